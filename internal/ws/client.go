package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"mythic_prison/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Client is one scoreboard renderer watching one player.
type Client struct {
	PlayerID domain.Identity
	Subject  string
	Conn     *websocket.Conn
	Send     chan []byte

	Hub  *Hub
	Done chan struct{}
}

func NewClient(playerID domain.Identity, subject string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		PlayerID: playerID,
		Subject:  subject,
		Conn:     conn,
		Send:     make(chan []byte, 64),
		Hub:      hub,
		Done:     make(chan struct{}),
	}
}

// Run starts the pumps and blocks until the connection goes away.
func (c *Client) Run() {
	// the ready frame goes first, before the hub can queue anything
	c.Send <- encode(MsgReady, nil)
	go c.writePump()
	c.Hub.Subscribe(c)

	c.readPump()
	<-c.Done
}

//read
func (c *Client) readPump() {
	defer c.disconnect()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.log.Debug("scoreboard read error", "player", c.PlayerID, "error", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			c.Hub.reply(c, encode(MsgError, ErrorPayload{Message: "invalid message"}))
			continue
		}
		switch env.Type {
		case MsgPing:
			c.Hub.reply(c, encode(MsgPong, nil))
		default:
			c.Hub.reply(c, encode(MsgError, ErrorPayload{Message: "unknown message type"}))
		}
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		close(c.Done)
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Hub.log.Debug("scoreboard write error", "player", c.PlayerID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

//disconnect
func (c *Client) disconnect() {
	c.Hub.OnDisconnect(c)
	_ = c.Conn.Close()
}
