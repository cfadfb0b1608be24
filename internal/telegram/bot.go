package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxMessageLen is the Bot API limit for one text message.
const maxMessageLen = 4096

type StartHandler interface {
	HandleStart(ctx context.Context, id int64) error
}

type Bot struct {
	api     *tgbotapi.BotAPI
	timeout time.Duration
	logger  *zap.Logger
}

func New(token string, timeout time.Duration, logger *zap.Logger) (*Bot, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint, timeout, logger)
}

// NewWithEndpoint talks to a custom Bot API server; endpoint is a format
// string taking the token and the method name.
func NewWithEndpoint(token, endpoint string, timeout time.Duration, logger *zap.Logger) (*Bot, error) {
	_ = tgbotapi.SetLogger(zap.NewStdLog(logger.Named("tgbotapi")))
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	logger.Info("Telegram bot authorized", zap.String("username", api.Self.UserName))
	return &Bot{
		api:     api,
		timeout: timeout,
		logger:  logger.Named("telegram"),
	}, nil
}

// SendMessage delivers text to a chat, split into several messages when it
// exceeds the Bot API limit. The client timeout bounds each request; ctx is
// honoured between parts and while waiting.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	for _, part := range split(text, maxMessageLen) {
		if err := b.send(ctx, tgbotapi.NewMessage(chatID, part)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := b.api.Send(msg)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram: send to %d: %w", msg.ChatID, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Listen long-polls updates until ctx is done and routes /start commands to
// h. Each command gets its own timeout.
func (b *Bot) Listen(ctx context.Context, h StartHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollSeconds(b.timeout)
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopped receiving updates")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.route(ctx, h, upd)
		}
	}
}

func (b *Bot) route(ctx context.Context, h StartHandler, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || !msg.IsCommand() {
		return
	}
	if msg.Command() != "start" {
		b.logger.Debug("Ignoring command", zap.String("command", msg.Command()))
		return
	}

	var id int64
	switch {
	case msg.From != nil:
		id = msg.From.ID
	case msg.Chat != nil:
		id = msg.Chat.ID
	default:
		return
	}

	hctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := h.HandleStart(hctx, id); err != nil {
		b.logger.Error("/start failed", zap.Int64("subscriber_id", id), zap.Error(err))
	}
}

// split cuts text into pieces of at most limit bytes, preferring line
// breaks and never cutting a UTF-8 sequence.
func split(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

// pollSeconds keeps the long poll shorter than the HTTP client timeout,
// which applies to getUpdates as well.
func pollSeconds(clientTimeout time.Duration) int {
	if clientTimeout <= 0 {
		return 30
	}
	s := int(clientTimeout/time.Second) - 1
	if s < 0 {
		return 0
	}
	return s
}

func isRuneStart(c byte) bool { return c&0xC0 != 0x80 }
