package ingress

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
)

type Resolver interface {
	ResolveSession(ctx context.Context, event *Event) (string, error)
}

// StandardResolver maps channel identifiers onto session ids so every chat,
// room or connection gets its own thread.
type StandardResolver struct{}

func NewStandardResolver() *StandardResolver {
	return &StandardResolver{}
}

func (r *StandardResolver) ResolveSession(ctx context.Context, event *Event) (string, error) {
	if event == nil {
		return "", fmt.Errorf("event is nil")
	}

	if event.Metadata == nil {
		event.Metadata = make(map[string]string)
	}
	if _, ok := event.Metadata["source"]; !ok {
		event.Metadata["source"] = event.Source
	}

	if event.SessionID != "" {
		return event.SessionID, nil
	}

	var sessionID string
	switch event.Source {
	case "slack":
		if thread, ok := event.Metadata["thread_ts"]; ok && thread != "" {
			sessionID = "slack:" + thread
		} else if channel, ok := event.Metadata["channel_id"]; ok && channel != "" {
			sessionID = "slack:" + channel
		}
	case "telegram":
		if chatID, ok := event.Metadata["chat_id"]; ok && chatID != "" {
			sessionID = "telegram:" + chatID
		}
	case "voice":
		if conn, ok := event.Metadata["connection_id"]; ok && conn != "" {
			sessionID = "voice:" + conn
		}
	case "cli":
		sessionID = "cli:" + ulid.Make().String()
	}

	if sessionID == "" {
		sessionID = "sess_" + ulid.Make().String()
	}
	return sessionID, nil
}
