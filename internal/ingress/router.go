package ingress

import (
	"context"
	"strings"

	"github.com/google/shlex"
)

type DestinationType int

const (
	DestPipeline DestinationType = iota // Continue to the queue
	DestDrop                            // Drop the event
)

// Router classifies an event before it is queued.
type Router interface {
	Route(ctx context.Context, event *Event) DestinationType
}

type StandardRouter struct{}

func NewStandardRouter() *StandardRouter {
	return &StandardRouter{}
}

// Route drops blank messages and marks parseable slash commands as
// TypeCommand so the kernel answers them without a model call.
func (r *StandardRouter) Route(ctx context.Context, event *Event) DestinationType {
	content := strings.TrimSpace(event.Content)
	if content == "" {
		return DestDrop
	}
	if !strings.HasPrefix(content, "/") {
		return DestPipeline
	}

	parts, err := shlex.Split(content)
	if err != nil || len(parts) == 0 {
		return DestPipeline
	}
	event.Type = TypeCommand
	return DestPipeline
}
