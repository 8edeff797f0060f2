package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/adapter"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon/components"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

const chatStartTimeout = 30 * time.Second

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the travel assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		daemonMgr, err := daemon.NewDaemon("travelagent-chat", cfg)
		if err != nil {
			return fmt.Errorf("failed to create daemon manager: %w", err)
		}
		stack, err := components.Register(daemonMgr, cfg, components.StackOptions{
			Version: version,
			CLI:     true,
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- daemonMgr.Start(ctx) }()

		if err := waitRunning(daemonMgr, done, chatStartTimeout); err != nil {
			return err
		}

		sessionID := adapter.SourceCLI + ":" + ulid.Make().String()
		greeting := cfg.Orchestrator.Greeting
		if greeting == "" {
			greeting = config.DefaultGreeting
		}
		stack.AdapterManager.CLI().Banner(sessionID, greeting)

		repl := newChatREPL(os.Stdin, sessionID, stack.Ingress.Submit)
		replErr := repl.Run(ctx, done)

		cancel()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("daemon failed: %w", err)
		}
		return replErr
	},
}

// waitRunning blocks until the daemon reports running or Start returns.
func waitRunning(d *daemon.Daemon, done chan error, timeout time.Duration) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for d.Health() != daemon.StatusRunning {
		select {
		case err := <-done:
			if err == nil {
				err = fmt.Errorf("daemon exited before it was ready")
			}
			return err
		case <-deadline:
			return fmt.Errorf("daemon did not start within %v", timeout)
		case <-ticker.C:
		}
	}
	return nil
}

type chatREPL struct {
	in        *bufio.Reader
	sessionID string
	submit    adapter.EventHandler
}

func newChatREPL(in io.Reader, sessionID string, submit adapter.EventHandler) *chatREPL {
	return &chatREPL{in: bufio.NewReader(in), sessionID: sessionID, submit: submit}
}

// Run forwards lines to the assistant until /exit, end of input, context
// cancellation or daemon exit. A daemon exit is pushed back onto done so
// the caller still observes it.
func (r *chatREPL) Run(ctx context.Context, done chan error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		for {
			text, err := r.in.ReadString('\n')
			if strings.TrimSpace(text) != "" {
				select {
				case lines <- text:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			done <- err
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case text := <-lines:
			text = strings.TrimSpace(text)
			if text == "/exit" || text == "/quit" {
				return nil
			}
			if err := r.submit(ctx, adapter.SourceCLI, "message", r.sessionID, text, map[string]string{
				"source": adapter.SourceCLI,
			}); err != nil {
				slog.Warn("Message not accepted", "session_id", r.sessionID, "error", err)
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
