package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeRunStarted   MessageType = "run.started"
	TypeRunCompleted MessageType = "run.completed"
	TypeRunFailed    MessageType = "run.failed"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message is the envelope of every WebSocket message.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunStartedPayload is the payload for run.started events.
type RunStartedPayload struct {
	RunID       string    `json:"run_id"`
	TriggeredBy string    `json:"triggered_by"`
	StartedAt   time.Time `json:"started_at"`
}

// RunCompletedPayload is the payload for run.completed events.
type RunCompletedPayload struct {
	RunID      string `json:"run_id"`
	Courses    int    `json:"courses"`
	Skipped    int    `json:"skipped"`
	Places     int    `json:"places"`
	Rooms      int    `json:"rooms"`
	Unresolved int    `json:"unresolved"`
	DurationMS int64  `json:"duration_ms"`
}

// RunFailedPayload is the payload for run.failed events.
type RunFailedPayload struct {
	RunID   string `json:"run_id"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorPayload is the payload for error replies.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
