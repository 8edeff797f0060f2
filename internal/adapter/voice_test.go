package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type voiceMessage struct {
	sessionID string
	content   string
	metadata  map[string]string
}

func startVoiceServer(t *testing.T, handler EventHandler, opts VoiceOptions) (*VoiceAdapter, *httptest.Server) {
	t.Helper()
	adapter := NewVoiceAdapter(handler, opts)
	require.NoError(t, adapter.Start(context.Background()))
	srv := httptest.NewServer(adapter)
	t.Cleanup(func() {
		_ = adapter.Stop(context.Background())
		srv.Close()
	})
	return adapter, srv
}

func dialVoice(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var frame ServerFrame
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, v))
}

func TestVoiceAdapter_GreetingMessageAndResponse(t *testing.T) {
	received := make(chan voiceMessage, 1)
	handler := func(ctx context.Context, source, eventType, sessionID, content string, metadata map[string]string) error {
		assert.Equal(t, "voice", source)
		assert.Equal(t, "user_message", eventType)
		received <- voiceMessage{sessionID: sessionID, content: content, metadata: metadata}
		return nil
	}
	adapter, srv := startVoiceServer(t, handler, VoiceOptions{Greeting: "Hello traveller"})
	conn := dialVoice(t, srv)

	greeting := readFrame(t, conn)
	assert.Equal(t, ServerFrame{Type: FrameGreeting, Content: "Hello traveller"}, greeting)

	writeFrame(t, conn, map[string]any{
		"type":    "message",
		"content": []any{"Find flights", map[string]any{"type": "text", "text": "from SFO to JFK"}},
	})

	var msg voiceMessage
	select {
	case msg = <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("message was not delivered")
	}
	assert.Equal(t, "Find flights from SFO to JFK", msg.content)
	assert.True(t, strings.HasPrefix(msg.sessionID, "voice:"))
	assert.Equal(t, platformID(SourceVoice, msg.sessionID), msg.metadata["connection_id"])
	assert.Equal(t, []string{msg.sessionID}, adapter.Sessions())

	require.NoError(t, adapter.Send(context.Background(), msg.sessionID, "Here are your flights."))
	assert.Equal(t, ServerFrame{Type: FrameResponse, Content: "Here are your flights."}, readFrame(t, conn))
}

func TestVoiceAdapter_NoGreetingWhenEmpty(t *testing.T) {
	received := make(chan string, 1)
	handler := func(ctx context.Context, source, eventType, sessionID, content string, metadata map[string]string) error {
		received <- content
		return nil
	}
	_, srv := startVoiceServer(t, handler, VoiceOptions{})
	conn := dialVoice(t, srv)

	writeFrame(t, conn, map[string]any{"type": "message", "content": "hotels in Paris"})
	select {
	case content := <-received:
		assert.Equal(t, "hotels in Paris", content)
	case <-time.After(5 * time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestVoiceAdapter_HandlerErrorSendsErrorFrame(t *testing.T) {
	handler := func(ctx context.Context, source, eventType, sessionID, content string, metadata map[string]string) error {
		return apperrors.Transient("queue full")
	}
	_, srv := startVoiceServer(t, handler, VoiceOptions{})
	conn := dialVoice(t, srv)

	writeFrame(t, conn, map[string]any{"type": "message", "content": "hi"})
	frame := readFrame(t, conn)
	assert.Equal(t, FrameError, frame.Type)
	assert.NotEmpty(t, frame.Content)
}

func TestVoiceAdapter_RejectsUnknownFrames(t *testing.T) {
	_, srv := startVoiceServer(t, nil, VoiceOptions{})
	conn := dialVoice(t, srv)

	writeFrame(t, conn, map[string]any{"type": "audio", "content": "..."})
	frame := readFrame(t, conn)
	assert.Equal(t, FrameError, frame.Type)
	assert.Contains(t, frame.Content, "audio")

	writeFrame(t, conn, map[string]any{"type": "message", "content": 42})
	frame = readFrame(t, conn)
	assert.Equal(t, FrameError, frame.Type)
}

func TestVoiceAdapter_CloseNotifiesSession(t *testing.T) {
	closed := make(chan string, 1)
	received := make(chan string, 1)
	handler := func(ctx context.Context, source, eventType, sessionID, content string, metadata map[string]string) error {
		received <- sessionID
		return nil
	}
	adapter, srv := startVoiceServer(t, handler, VoiceOptions{OnClose: func(sessionID string) { closed <- sessionID }})
	conn := dialVoice(t, srv)

	writeFrame(t, conn, map[string]any{"type": "message", "content": "hello"})
	sessionID := <-received

	_ = conn.Close(websocket.StatusNormalClosure, "bye")

	select {
	case got := <-closed:
		assert.Equal(t, sessionID, got)
	case <-time.After(5 * time.Second):
		t.Fatal("close callback not invoked")
	}

	err := adapter.Send(context.Background(), sessionID, "late reply")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestVoiceAdapter_Health(t *testing.T) {
	adapter := NewVoiceAdapter(nil, VoiceOptions{})
	assert.Error(t, adapter.Health(context.Background()))
	require.NoError(t, adapter.Start(context.Background()))
	assert.NoError(t, adapter.Health(context.Background()))
	require.NoError(t, adapter.Stop(context.Background()))
	assert.Error(t, adapter.Health(context.Background()))
}

func TestFlattenContent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "string", raw: `"hello"`, want: "hello"},
		{name: "null", raw: `null`, want: ""},
		{name: "string parts", raw: `["a","b","c"]`, want: "a b c"},
		{name: "text objects", raw: `[{"type":"text","text":"flights"},"to Rome"]`, want: "flights to Rome"},
		{name: "other parts", raw: `["x",7,true]`, want: "x 7 true"},
		{name: "number", raw: `12`, wantErr: true},
		{name: "object", raw: `{"text":"hi"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlattenContent(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
