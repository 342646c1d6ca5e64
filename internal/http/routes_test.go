package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"mythic_prison/internal/http/handlers"
	"mythic_prison/internal/player"
	"mythic_prison/internal/repository"
	"mythic_prison/internal/service"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitJWT("routes-secret")

	store := repository.NewMemoryProfileStore()
	reg := player.NewRegistry()
	persist := service.NewPersister(store, reg)
	h := &handlers.Handler{
		Sessions: service.NewSessionService(reg, store, persist, persist, service.NewAuditService(nil), time.Second),
	}

	r := gin.New()
	RegisterRoutes(r, h, handlers.NewHealthHandler("test", nil), nil, "", Limits{
		APIRate: 100, APIWindow: time.Minute,
		ActionRate: 100, ActionWindow: time.Minute,
	})
	return r
}

func call(r http.Handler, method, path, role string) int {
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		tok, _ := service.GenerateJWT("tester", role, time.Minute)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRoutesRequireToken(t *testing.T) {
	r := newRouter(t)

	require.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/v1/online", ""))
	require.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/v1/online", service.RoleServer))
	require.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/v1/online", service.RoleAdmin))
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	r := newRouter(t)
	require.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/admin/stats", service.RoleServer))
}

func TestProbesAreOpen(t *testing.T) {
	r := newRouter(t)
	require.Equal(t, http.StatusOK, call(r, http.MethodGet, "/healthz", ""))
	require.Equal(t, http.StatusOK, call(r, http.MethodGet, "/readyz", ""))
	require.Equal(t, http.StatusOK, call(r, http.MethodGet, "/metrics", ""))
	require.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/ws/scoreboard", ""))
}
