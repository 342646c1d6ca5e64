package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/service"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	money float64
	gone  bool
}

func (f *fakeSource) Scoreboard(_ context.Context, id domain.Identity) (*domain.Scoreboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.gone {
		return nil, domain.ErrPlayerNotLoaded
	}
	return &domain.Scoreboard{UUID: id, Rank: "A", Raw: map[domain.Currency]float64{domain.Money: f.money}}, nil
}

func (f *fakeSource) set(money float64, gone bool) {
	f.mu.Lock()
	f.money, f.gone = money, gone
	f.mu.Unlock()
}

func startHub(t *testing.T, src Source) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitJWT("ws-secret")

	hub := NewHub(src, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/scoreboard", HandleWS(hub, ""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, player domain.Identity) *websocket.Conn {
	t.Helper()
	tok, err := service.GenerateJWT("renderer", service.RoleServer, time.Minute)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/scoreboard?player=" + string(player) + "&token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestScoreboardPush(t *testing.T) {
	src := &fakeSource{money: 10}
	hub, srv := startHub(t, src)
	id := domain.NewIdentity()
	conn := dial(t, srv, id)

	require.Equal(t, MsgReady, next(t, conn).Type)
	env := next(t, conn)
	require.Equal(t, MsgScoreboard, env.Type)
	var sb domain.Scoreboard
	require.NoError(t, json.Unmarshal(env.Data, &sb))
	require.Equal(t, id, sb.UUID)
	require.Equal(t, 10.0, sb.Raw[domain.Money])

	src.set(25, false)
	hub.MarkDirty(id)
	env = next(t, conn)
	require.NoError(t, json.Unmarshal(env.Data, &sb))
	require.Equal(t, 25.0, sb.Raw[domain.Money])

	src.set(0, true)
	hub.MarkDirty(id)
	env = next(t, conn)
	require.Equal(t, MsgOffline, env.Type)
}

func TestScoreboardCoalescesMarks(t *testing.T) {
	src := &fakeSource{}
	hub, srv := startHub(t, src)
	id := domain.NewIdentity()
	conn := dial(t, srv, id)
	next(t, conn)
	next(t, conn)

	src.mu.Lock()
	before := src.calls
	src.mu.Unlock()
	for i := 0; i < 500; i++ {
		hub.MarkDirty(id)
	}
	next(t, conn)

	src.mu.Lock()
	defer src.mu.Unlock()
	require.Less(t, src.calls-before, 50)
}

func TestScoreboardPingAndCleanup(t *testing.T) {
	hub, srv := startHub(t, &fakeSource{})
	id := domain.NewIdentity()
	conn := dial(t, srv, id)
	next(t, conn)
	next(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	require.Equal(t, MsgPong, next(t, conn).Type)
	require.Equal(t, 1, hub.Watchers(id))

	conn.Close()
	require.Eventually(t, func() bool { return hub.Watchers(id) == 0 }, time.Second, 5*time.Millisecond)
}

func TestUnwatchedMarksAreFree(t *testing.T) {
	src := &fakeSource{}
	hub := NewHub(src, time.Millisecond)
	hub.MarkDirty(domain.NewIdentity())
	hub.pushPending(context.Background())
	require.Zero(t, src.calls)
}

func TestHandshakeRequiresTokenAndPlayer(t *testing.T) {
	_, srv := startHub(t, &fakeSource{})
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/scoreboard"

	_, resp, err := websocket.DefaultDialer.Dial(base+"?player="+string(domain.NewIdentity()), nil)
	require.Error(t, err)
	require.Equal(t, 401, resp.StatusCode)

	tok, err := service.GenerateJWT("renderer", service.RoleServer, time.Minute)
	require.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(base+"?token="+tok, nil)
	require.Error(t, err)
	require.Equal(t, 400, resp.StatusCode)
}
