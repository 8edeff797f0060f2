package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"

	"github.com/google/shlex"
)

type Handler interface {
	CanHandle(input string) bool
	// Execute runs a slash command and returns the text to show the user.
	Execute(ctx context.Context, sessionID string, input string) (string, error)
}

// ThreadResetter forgets a session's conversation. session.Store satisfies it.
type ThreadResetter interface {
	Reset(threadID string) bool
}

// ToolLister exposes the catalog. tool.Runner satisfies it.
type ToolLister interface {
	GetDescriptors() []tool.ToolDescriptor
}

type DefaultCommandHandler struct {
	threads ThreadResetter
	tools   ToolLister
}

func NewHandler(threads ThreadResetter, tools ToolLister) *DefaultCommandHandler {
	return &DefaultCommandHandler{
		threads: threads,
		tools:   tools,
	}
}

func (h *DefaultCommandHandler) CanHandle(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

func (h *DefaultCommandHandler) Execute(ctx context.Context, sessionID string, input string) (string, error) {
	parts, parseErr := shlex.Split(input)
	if parseErr != nil {
		parts = strings.Fields(input)
	}
	if len(parts) == 0 {
		return "", nil
	}
	cmd := strings.ToLower(parts[0])

	slog.Info("Executing slash command", "cmd", cmd, "session", sessionID)

	var msg string
	var err error

	switch cmd {
	case "/reset", "/clear":
		msg, err = h.handleReset(sessionID)
	case "/tools":
		msg, err = h.handleTools()
	case "/help":
		msg = h.helpText()
	default:
		msg = fmt.Sprintf("Unknown command: %s. %s", parts[0], h.helpText())
	}

	if err != nil {
		slog.Error("Command execution failed", "cmd", cmd, "error", err)
		return fmt.Sprintf("Command failed: %v", err), err
	}
	return msg, nil
}

func (h *DefaultCommandHandler) handleReset(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	if h.threads == nil {
		return "", fmt.Errorf("thread store not initialized")
	}
	if !h.threads.Reset(sessionID) {
		return "Nothing to reset. This conversation is already empty.", nil
	}
	return "Conversation cleared. Where would you like to travel next?", nil
}

func (h *DefaultCommandHandler) handleTools() (string, error) {
	if h.tools == nil {
		return "", fmt.Errorf("tool catalog not initialized")
	}
	descriptors := h.tools.GetDescriptors()
	if len(descriptors) == 0 {
		return "No tools are available.", nil
	}

	lines := make([]string, 0, len(descriptors)+1)
	lines = append(lines, "Available tools:")
	for _, d := range descriptors {
		lines = append(lines, fmt.Sprintf("- %s: %s", d.Definition.Name, d.Definition.Description))
	}
	return strings.Join(lines, "\n"), nil
}

func (h *DefaultCommandHandler) helpText() string {
	return "Available commands: /help, /reset, /tools"
}
