package adapter

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	source    string
	eventType string
	sessionID string
	content   string
	metadata  map[string]string
}

func capture(got *capturedEvent) EventHandler {
	return func(ctx context.Context, source string, eventType string, sessionID string, content string, metadata map[string]string) error {
		*got = capturedEvent{
			source:    source,
			eventType: eventType,
			sessionID: sessionID,
			content:   content,
			metadata:  metadata,
		}
		return nil
	}
}

func signSlack(t *testing.T, req *http.Request, secret string, body []byte) {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte("v0:" + ts + ":" + string(body)))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func TestTelegramAdapter_EventFlow(t *testing.T) {
	var got capturedEvent
	adapter := NewTelegramAdapter("test-token", capture(&got), 1)

	adapter.handleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: 99,
		Message: &tgbotapi.Message{
			MessageID: 123,
			Text:      "find me a hotel in Lisbon",
			Chat:      &tgbotapi.Chat{ID: 456},
			From:      &tgbotapi.User{ID: 789, UserName: "traveller"},
		},
	})

	assert.Equal(t, "telegram", got.source)
	assert.Equal(t, "user_message", got.eventType)
	assert.Equal(t, "telegram:456", got.sessionID)
	assert.Equal(t, "find me a hotel in Lisbon", got.content)
	assert.Equal(t, "456", got.metadata["chat_id"])
	assert.Equal(t, "789", got.metadata["user_id"])
	assert.Equal(t, "traveller", got.metadata["user_name"])
	assert.Equal(t, "123", got.metadata["msg_id"])
}

func TestTelegramAdapter_IgnoresNonMessageUpdates(t *testing.T) {
	called := false
	adapter := NewTelegramAdapter("test-token", func(context.Context, string, string, string, string, map[string]string) error {
		called = true
		return nil
	}, 0)

	adapter.handleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1})
	assert.False(t, called)
}

func TestTelegramAdapter_SendBeforeStart(t *testing.T) {
	adapter := NewTelegramAdapter("test-token", nil, 0)
	assert.Error(t, adapter.Send(context.Background(), "telegram:1", "hi"))
}

func TestSlackAdapter_EventFlow(t *testing.T) {
	secret := "test-signing-secret"

	var got capturedEvent
	adapter := NewSlackAdapter(0, secret, "xoxb-test", capture(&got))

	body := []byte(`{"type":"event_callback","event":{"type":"message","user":"U123","text":"flights from SFO to JFK","channel":"C123","ts":"1710000000.000100"}}`)
	req := httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader(body))
	signSlack(t, req, secret, body)

	rr := httptest.NewRecorder()
	adapter.handleEvents(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "slack", got.source)
	assert.Equal(t, "user_message", got.eventType)
	assert.Equal(t, "slack:C123", got.sessionID)
	assert.Equal(t, "flights from SFO to JFK", got.content)
	assert.Equal(t, "U123", got.metadata["user_id"])
	assert.Equal(t, "C123", got.metadata["channel_id"])
	assert.Equal(t, "1710000000.000100", got.metadata["ts"])
}

func TestSlackAdapter_RejectsBadSignature(t *testing.T) {
	called := false
	adapter := NewSlackAdapter(0, "right-secret", "xoxb-test", func(context.Context, string, string, string, string, map[string]string) error {
		called = true
		return nil
	})

	body := []byte(`{"type":"event_callback","event":{"type":"message","user":"U1","text":"hi","channel":"C1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader(body))
	signSlack(t, req, "wrong-secret", body)

	rr := httptest.NewRecorder()
	adapter.handleEvents(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)
}

func TestSlackAdapter_IgnoresBotMessages(t *testing.T) {
	secret := "test-signing-secret"
	called := false
	adapter := NewSlackAdapter(0, secret, "xoxb-test", func(context.Context, string, string, string, string, map[string]string) error {
		called = true
		return nil
	})

	body := []byte(`{"type":"event_callback","event":{"type":"message","bot_id":"B1","text":"reply","channel":"C1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader(body))
	signSlack(t, req, secret, body)

	rr := httptest.NewRecorder()
	adapter.handleEvents(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, called)
}
