package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/logger"
	"mythic_prison/internal/service"
	"mythic_prison/internal/ws"
)

// ws_smoke joins a throwaway player against a running server, watches its
// scoreboard and checks that a balance change is pushed.
func main() {
	_ = godotenv.Load()
	logger.Init("debug", false)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	service.InitJWT(jwtSecret)
	token, err := service.GenerateJWT("ws-smoke", service.RoleServer, time.Minute)
	if err != nil {
		logger.Fatal("generate token", "error", err)
	}

	id := domain.NewIdentity()
	player := fmt.Sprintf("http://%s/api/v1/players/%s", base, id)
	post(token, player+"/join", map[string]string{"username": "smoke"})
	defer post(token, player+"/leave", nil)

	url := fmt.Sprintf("ws://%s/ws/scoreboard?player=%s&token=%s", base, id, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	expect(conn, ws.MsgReady)
	first := expect(conn, ws.MsgScoreboard)
	logger.Info("initial scoreboard", "data", string(first.Data))

	post(token, player+"/balances/money/add", map[string]float64{"amount": 1000})
	next := expect(conn, ws.MsgScoreboard)
	var sb domain.Scoreboard
	if err := json.Unmarshal(next.Data, &sb); err != nil {
		logger.Fatal("decode scoreboard", "error", err)
	}
	if sb.Raw[domain.Money] != 1000 {
		logger.Fatal("balance change not pushed", "money", sb.Raw[domain.Money])
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		logger.Fatal("write ping", "error", err)
	}
	expect(conn, ws.MsgPong)

	logger.Info("smoke test finished", "player", id)
}

// expect reads frames until one of type want arrives.
func expect(conn *websocket.Conn, want string) ws.Envelope {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Fatal("read", "want", want, "error", err)
		}
		var env ws.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			logger.Fatal("decode frame", "error", err)
		}
		if env.Type == want {
			return env
		}
		logger.Debug("skipping frame", "type", env.Type)
	}
	logger.Fatal("timed out", "want", want)
	return ws.Envelope{}
}

func post(token, url string, body any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		logger.Fatal("build request", "error", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Fatal("request", "url", url, "error", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Fatal("unexpected status", "url", url, "status", resp.StatusCode)
	}
}
