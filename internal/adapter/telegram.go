package adapter

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const SourceTelegram = "telegram"

type TelegramAdapter struct {
	token         string
	updateTimeout int
	eventHandler  EventHandler
	bot           *tgbotapi.BotAPI
	updates       tgbotapi.UpdatesChannel
}

func NewTelegramAdapter(token string, eventHandler EventHandler, updateTimeout int) *TelegramAdapter {
	if updateTimeout <= 0 {
		updateTimeout = config.DefaultTelegramUpdateTimeout
	}
	return &TelegramAdapter{
		token:         token,
		updateTimeout: updateTimeout,
		eventHandler:  eventHandler,
	}
}

func (t *TelegramAdapter) Name() string {
	return SourceTelegram
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	var err error
	t.bot, err = tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return errors.Wrap(err, "failed to init telegram bot")
	}

	slog.Info("Telegram adapter started", "user", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.updateTimeout
	t.updates = t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update := <-t.updates:
				t.handleUpdate(ctx, update)
			}
		}
	}()

	return nil
}

func (t *TelegramAdapter) Stop(ctx context.Context) error {
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	return nil
}

func (t *TelegramAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	msg := update.Message
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	metadata := map[string]string{
		"chat_id":     chatID,
		"msg_id":      strconv.Itoa(msg.MessageID),
		"delivery_id": strconv.Itoa(update.UpdateID),
	}
	if msg.From != nil {
		metadata["user_id"] = strconv.FormatInt(msg.From.ID, 10)
		metadata["user_name"] = msg.From.UserName
	}

	if t.eventHandler != nil {
		if err := t.eventHandler(ctx, SourceTelegram, "user_message", sessionKey(SourceTelegram, chatID), msg.Text, metadata); err != nil {
			slog.Error("Failed to handle Telegram event", "error", err)
		}
	}
}

// Send sends a reply back to the chat encoded in sessionID.
func (t *TelegramAdapter) Send(ctx context.Context, sessionID string, content string) error {
	if t.bot == nil {
		return errors.Unavailable("telegram bot not started")
	}
	chatID, err := strconv.ParseInt(platformID(SourceTelegram, sessionID), 10, 64)
	if err != nil {
		return errors.InvalidInput("invalid telegram session ID: " + err.Error())
	}

	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, content)); err != nil {
		return errors.Wrap(err, "failed to send telegram message")
	}

	slog.Debug("Telegram message sent", "chat_id", chatID)
	return nil
}

func (t *TelegramAdapter) Health(ctx context.Context) error {
	if t.bot == nil {
		return errors.Transient("Telegram bot not initialized")
	}
	if _, err := t.bot.GetMe(); err != nil {
		return errors.Transient("Telegram connection failed: " + err.Error())
	}
	return nil
}
