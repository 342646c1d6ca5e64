package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mythic_prison/internal/service"
)

// Context keys set by JWT.
const (
	CtxSubject = "subject"
	CtxRole    = "role"
)

// JWT verifies the bearer token and, when roles are given, requires one of
// them. Admin tokens pass every role check.
func JWT(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if len(roles) > 0 && !allowed(claims.Role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Set(CtxSubject, claims.Subject)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

func allowed(role string, roles []string) bool {
	if role == service.RoleAdmin {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func extractBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Subject returns the token subject stored by JWT.
func Subject(c *gin.Context) string {
	return c.GetString(CtxSubject)
}
