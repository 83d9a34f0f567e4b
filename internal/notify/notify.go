// ABOUTME: Notification channel for review summaries.
// ABOUTME: Telegram via telegram-bot-api with retries; Noop when unconfigured.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/metrics"
	"github.com/harperreed/lift/internal/retry"
)

// Telegram rejects messages longer than this.
const (
	maxMessageLen = 4096
	chunkLen      = 4000
)

// Notifier sends one text message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Noop drops messages, logging them at debug level.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(_ context.Context, text string) error {
	logger := log.WithComponent("notify")
	logger.Debug().Str("text", text).Msg("notifier disabled, dropping message")
	return nil
}

// sendError adapts Telegram API errors to the retry classifier.
type sendError struct {
	code       int
	retryAfter time.Duration
	msg        string
}

func (e *sendError) Error() string {
	return fmt.Sprintf("telegram: %d %s", e.code, e.msg)
}

func (e *sendError) HTTPStatus() int { return e.code }

func (e *sendError) RetryAfter() (time.Duration, bool) {
	return e.retryAfter, e.retryAfter > 0
}

// Telegram sends messages to one chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	token  string
	policy retry.Policy
	logger zerolog.Logger
}

type options struct {
	endpoint string
	client   *http.Client
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option customizes the Telegram notifier.
type Option func(*options)

// WithEndpoint overrides the Bot API endpoint format ("…/bot%s/%s").
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithSleep replaces the retry sleeper.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) { o.sleep = sleep }
}

// NewTelegram validates credentials and connects to the Bot API.
func NewTelegram(cfg config.TelegramConfig, opts ...Option) (*Telegram, error) {
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram: %w", config.ErrMissingCredentials)
	}
	o := options{endpoint: tgbotapi.APIEndpoint, client: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, o.endpoint, o.client)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %s", scrub(err.Error(), cfg.Token))
	}

	policy := retry.DefaultPolicy()
	policy.Sleep = o.sleep
	policy.OnRetry = func(_ string, attempt int, wait time.Duration) {
		metrics.CountRetry("telegram", attempt, wait)
	}
	return &Telegram{
		bot:    bot,
		chatID: cfg.ChatID,
		token:  cfg.Token,
		policy: policy,
		logger: log.WithComponent("notify"),
	}, nil
}

// Notify sends text, split into chunks when it exceeds Telegram's limit.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	for i, chunk := range Chunks(text) {
		err := t.policy.Do(ctx, "telegram sendMessage", func(context.Context) error {
			return t.send(chunk)
		})
		if err != nil {
			return fmt.Errorf("send chunk %d: %w", i+1, err)
		}
	}
	t.logger.Info().Int64("chat_id", t.chatID).Int("chars", len(text)).Msg("message sent")
	return nil
}

func (t *Telegram) send(text string) error {
	timer := metrics.NewTimer()
	_, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text))
	timer.ObserveDurationVec(metrics.RemoteRequestDuration, "telegram", http.MethodPost)
	if err == nil {
		return nil
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return &sendError{
			code:       apiErr.Code,
			retryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
			msg:        scrub(apiErr.Message, t.token),
		}
	}
	return fmt.Errorf("telegram: %w", &scrubbedError{err: err, token: t.token})
}

// scrubbedError hides the bot token, which appears in request URLs.
type scrubbedError struct {
	err   error
	token string
}

func (e *scrubbedError) Error() string { return scrub(e.err.Error(), e.token) }

func (e *scrubbedError) Unwrap() error { return e.err }

func scrub(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "[redacted]")
}

// Chunks splits text into Telegram-sized pieces on rune boundaries.
func Chunks(text string) []string {
	r := []rune(text)
	if len(r) <= maxMessageLen {
		return []string{text}
	}
	var out []string
	for start := 0; start < len(r); start += chunkLen {
		out = append(out, string(r[start:min(start+chunkLen, len(r))]))
	}
	return out
}
