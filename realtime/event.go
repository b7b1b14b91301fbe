package realtime

import (
	"encoding/json"
	"time"
)

const (
	EventConnected      = "connected"
	EventNotification   = "notification"
	EventChatMessage    = "chat.message"
	EventCreditsUpdated = "credits.updated"
	EventPong           = "pong"
)

// Event 는 클라이언트로 나가는 JSON 봉투이다.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(eventType string, data any) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}

// inbound 는 클라이언트가 보내는 제어 메시지이다. 현재 {"type":"ping"} 만 처리한다.
type inbound struct {
	Type string `json:"type"`
}
