package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/oklog/ulid/v2"
)

const (
	SourceVoice = "voice"

	FrameMessage  = "message"
	FrameGreeting = "greeting"
	FrameResponse = "response"
	FrameError    = "error"

	voiceReadLimit = 64 << 10
)

// ClientFrame is what a voice client sends. Content is either a string or
// an array of parts.
type ClientFrame struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type ServerFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type VoiceOptions struct {
	Greeting       string
	OriginPatterns []string
	WriteTimeout   time.Duration
	// OnClose runs after a connection goes away, with the session it owned.
	OnClose SessionCloser
}

// VoiceAdapter serves the realtime text channel fed by the speech pipeline.
// Each websocket connection is one session.
type VoiceAdapter struct {
	mu      sync.RWMutex
	conns   map[string]*websocket.Conn
	running bool

	eventHandler EventHandler
	opts         VoiceOptions
}

func NewVoiceAdapter(eventHandler EventHandler, opts VoiceOptions) *VoiceAdapter {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout, _ = config.DurationOrDefault("", config.DefaultVoiceWriteTimeout)
	}
	return &VoiceAdapter{
		conns:        make(map[string]*websocket.Conn),
		eventHandler: eventHandler,
		opts:         opts,
	}
}

func (v *VoiceAdapter) Name() string {
	return SourceVoice
}

// Start marks the adapter ready. Connections arrive through ServeHTTP on the
// API server, so there is no listener of its own.
func (v *VoiceAdapter) Start(ctx context.Context) error {
	v.mu.Lock()
	v.running = true
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.closeAll(websocket.StatusGoingAway, "server shutting down")
	}()
	return nil
}

func (v *VoiceAdapter) Stop(ctx context.Context) error {
	v.mu.Lock()
	v.running = false
	v.mu.Unlock()
	v.closeAll(websocket.StatusGoingAway, "server shutting down")
	return nil
}

func (v *VoiceAdapter) Health(ctx context.Context) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.running {
		return errors.Transient("voice adapter not started")
	}
	return nil
}

// Sessions lists the sessions with an open connection.
func (v *VoiceAdapter) Sessions() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.conns))
	for id := range v.conns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Send publishes a response frame to the connection owning sessionID.
func (v *VoiceAdapter) Send(ctx context.Context, sessionID string, content string) error {
	v.mu.RLock()
	conn, ok := v.conns[sessionID]
	v.mu.RUnlock()
	if !ok {
		return errors.NotFound("voice connection closed: " + sessionID)
	}
	return v.write(ctx, conn, ServerFrame{Type: FrameResponse, Content: content})
}

func (v *VoiceAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: v.opts.OriginPatterns,
	})
	if err != nil {
		slog.Warn("Voice handshake failed", "error", err)
		return
	}
	conn.SetReadLimit(voiceReadLimit)

	connectionID := ulid.Make().String()
	sessionID := sessionKey(SourceVoice, connectionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	v.mu.Lock()
	v.conns[sessionID] = conn
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		delete(v.conns, sessionID)
		v.mu.Unlock()
		conn.CloseNow()
		if v.opts.OnClose != nil {
			v.opts.OnClose(sessionID)
		}
		slog.Info("Voice session closed", "session_id", sessionID)
	}()

	slog.Info("Voice session opened", "session_id", sessionID, "remote", r.RemoteAddr)

	if strings.TrimSpace(v.opts.Greeting) != "" {
		if err := v.write(ctx, conn, ServerFrame{Type: FrameGreeting, Content: v.opts.Greeting}); err != nil {
			slog.Warn("Failed to send greeting", "session_id", sessionID, "error", err)
			return
		}
	}

	v.readLoop(ctx, conn, sessionID, connectionID)
}

func (v *VoiceAdapter) readLoop(ctx context.Context, conn *websocket.Conn, sessionID, connectionID string) {
	for {
		var frame ClientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					slog.Debug("Voice read ended", "session_id", sessionID, "error", err)
				}
			}
			return
		}

		if frame.Type != "" && frame.Type != FrameMessage {
			v.writeError(ctx, conn, fmt.Sprintf("unsupported frame type %q", frame.Type))
			continue
		}

		text, err := FlattenContent(frame.Content)
		if err != nil {
			v.writeError(ctx, conn, err.Error())
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		if v.eventHandler == nil {
			continue
		}
		metadata := map[string]string{"connection_id": connectionID}
		if err := v.eventHandler(ctx, SourceVoice, "user_message", sessionID, text, metadata); err != nil {
			slog.Warn("Failed to handle voice message", "session_id", sessionID, "error", err)
			v.writeError(ctx, conn, "The assistant is busy right now. Please try again in a moment.")
		}
	}
}

func (v *VoiceAdapter) write(ctx context.Context, conn *websocket.Conn, frame ServerFrame) error {
	ctx, cancel := context.WithTimeout(ctx, v.opts.WriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, frame); err != nil {
		return errors.Wrap(err, "failed to write voice frame")
	}
	return nil
}

func (v *VoiceAdapter) writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	if err := v.write(ctx, conn, ServerFrame{Type: FrameError, Content: msg}); err != nil {
		slog.Debug("Failed to send voice error frame", "error", err)
	}
}

func (v *VoiceAdapter) closeAll(code websocket.StatusCode, reason string) {
	v.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(v.conns))
	for _, conn := range v.conns {
		conns = append(conns, conn)
	}
	v.mu.RUnlock()

	for _, conn := range conns {
		conn.Close(code, reason)
	}
}

// FlattenContent turns a message content field into one text string. Arrays
// are joined with single spaces; object parts contribute their "text" field
// when present and their JSON form otherwise.
func FlattenContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", errors.InvalidInput("content must be a string or an array of parts")
	}

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, partText(part))
	}
	return strings.Join(out, " "), nil
}

func partText(part json.RawMessage) string {
	var s string
	if err := json.Unmarshal(part, &s); err == nil {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(part, &obj); err == nil {
		if text, ok := obj["text"].(string); ok {
			return text
		}
	}
	return strings.TrimSpace(string(part))
}
