package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
)

const (
	SourceCLI = "cli"
	cliPrompt = "> "
)

// CLIAdapter prints replies for the interactive chat command.
type CLIAdapter struct {
	mu      sync.Mutex
	out     io.Writer
	running bool

	answerStyle  lipgloss.Style
	commandStyle lipgloss.Style
	errorStyle   lipgloss.Style
	bannerStyle  lipgloss.Style
}

func NewCLIAdapter() *CLIAdapter {
	return NewCLIAdapterWithWriter(os.Stdout)
}

func NewCLIAdapterWithWriter(out io.Writer) *CLIAdapter {
	if out == nil {
		out = os.Stdout
	}
	return &CLIAdapter{
		out:          out,
		answerStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		commandStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		bannerStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
	}
}

func (a *CLIAdapter) Name() string {
	return SourceCLI
}

func (a *CLIAdapter) Send(ctx context.Context, sessionID string, content string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// \r\033[K clears the pending prompt before the reply is printed.
	fmt.Fprint(a.out, "\r\033[K")
	fmt.Fprintln(a.out, a.styleFor(content).Render(content))
	fmt.Fprint(a.out, cliPrompt)
	return nil
}

// Banner prints the greeting shown when a chat session opens.
func (a *CLIAdapter) Banner(sessionID, greeting string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	fmt.Fprintln(a.out, a.bannerStyle.Render("Travel assistant session "+sessionID))
	fmt.Fprintln(a.out, "Type your message, /help for commands or /exit to quit.")
	if strings.TrimSpace(greeting) != "" {
		fmt.Fprintln(a.out, a.answerStyle.Render(greeting))
	}
	fmt.Fprint(a.out, cliPrompt)
}

func (a *CLIAdapter) styleFor(content string) lipgloss.Style {
	switch {
	case strings.HasPrefix(content, "I encountered an error"), strings.HasPrefix(content, "Error:"):
		return a.errorStyle
	case strings.HasPrefix(content, "Available"), strings.HasPrefix(content, "Unknown command"),
		strings.HasPrefix(content, "Conversation cleared"), strings.HasPrefix(content, "Nothing to reset"):
		return a.commandStyle
	default:
		return a.answerStyle
	}
}

func (a *CLIAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()

	go func() {
		<-ctx.Done()
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()
	return nil
}

func (a *CLIAdapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	return nil
}

// Health always succeeds; stdout does not disconnect.
func (a *CLIAdapter) Health(ctx context.Context) error {
	return nil
}
