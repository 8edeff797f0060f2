package ingress

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	TypeUserMessage EventType = "user_message"
	TypeCommand     EventType = "command" // Slash command
)

// Event is the normalized data structure for all inputs.
type Event struct {
	ID     string `json:"id"`     // ULID
	Source string `json:"source"` // "voice", "slack", "telegram", "cli", "http"

	SessionID string `json:"session_id"`

	Type EventType `json:"type"`

	Content string `json:"content"`

	Metadata  map[string]string `json:"metadata"` // e.g. "chat_id": "42"
	CreatedAt time.Time         `json:"created_at"`
}

// NewEvent creates a normalized event with a fresh ULID.
func NewEvent(source string, eventType EventType, sessionID, content string, metadata map[string]string) Event {
	return Event{
		ID:        ulid.Make().String(),
		Source:    source,
		Type:      eventType,
		SessionID: sessionID,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}
