package ws

import (
	"encoding/json"

	"mythic_prison/internal/domain"
)

// Envelope frames every message on the socket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// server → client
type OfflinePayload struct {
	UUID domain.Identity `json:"uuid"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(msgType string, data interface{}) []byte {
	env := Envelope{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			raw, _ = json.Marshal(ErrorPayload{Message: err.Error()})
			env.Type = MsgError
		}
		env.Data = raw
	}
	b, _ := json.Marshal(env)
	return b
}
