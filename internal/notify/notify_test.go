// ABOUTME: Tests for the Telegram notifier against a fake Bot API server.
// ABOUTME: Covers sending, chunking, retry on 429 and credential checks.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/lift/internal/config"
)

type fakeBot struct {
	mu        sync.Mutex
	texts     []string
	chatIDs   []string
	failFirst int
	sends     int
}

func (f *fakeBot) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 1, "is_bot": true, "first_name": "lift", "username": "lift_bot"},
		})
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.sends++
		fail := f.sends <= f.failFirst
		if !fail {
			f.texts = append(f.texts, r.FormValue("text"))
			f.chatIDs = append(f.chatIDs, r.FormValue("chat_id"))
		}
		f.mu.Unlock()
		if fail {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok": false, "error_code": 429, "description": "Too Many Requests: retry after 3",
				"parameters": map[string]any{"retry_after": 3},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestTelegram(t *testing.T, bot *fakeBot, waits *[]time.Duration) *Telegram {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(bot.handler))
	t.Cleanup(srv.Close)

	tg, err := NewTelegram(
		config.TelegramConfig{Token: "123:secret", ChatID: 42},
		WithEndpoint(srv.URL+"/bot%s/%s"),
		WithHTTPClient(srv.Client()),
		WithSleep(func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		}),
	)
	require.NoError(t, err)
	return tg
}

func TestNewTelegramRequiresCredentials(t *testing.T) {
	_, err := NewTelegram(config.TelegramConfig{ChatID: 1})
	assert.ErrorIs(t, err, config.ErrMissingCredentials)

	_, err = NewTelegram(config.TelegramConfig{Token: "x"})
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestTelegramNotify(t *testing.T) {
	bot := &fakeBot{}
	var waits []time.Duration
	tg := newTestTelegram(t, bot, &waits)

	require.NoError(t, tg.Notify(context.Background(), "Recovery: none"))
	assert.Equal(t, []string{"Recovery: none"}, bot.texts)
	assert.Equal(t, []string{"42"}, bot.chatIDs)
	assert.Empty(t, waits)
}

func TestTelegramRetriesRateLimit(t *testing.T) {
	bot := &fakeBot{failFirst: 1}
	var waits []time.Duration
	tg := newTestTelegram(t, bot, &waits)

	require.NoError(t, tg.Notify(context.Background(), "hello"))
	assert.Equal(t, []time.Duration{3 * time.Second}, waits)
	assert.Equal(t, 2, bot.sends)
}

func TestTelegramSplitsLongMessages(t *testing.T) {
	bot := &fakeBot{}
	var waits []time.Duration
	tg := newTestTelegram(t, bot, &waits)

	require.NoError(t, tg.Notify(context.Background(), strings.Repeat("a", 9000)))
	require.Len(t, bot.texts, 3)
	assert.Len(t, bot.texts[0], 4000)
	assert.Len(t, bot.texts[2], 1000)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, []string{"short"}, Chunks("short"))
	assert.Len(t, Chunks(strings.Repeat("é", 4096)), 1)
	assert.Len(t, Chunks(strings.Repeat("é", 4097)), 2)
}

func TestScrubHidesToken(t *testing.T) {
	assert.Equal(t, "POST https://api.telegram.org/bot[redacted]/sendMessage",
		scrub("POST https://api.telegram.org/bot123:secret/sendMessage", "123:secret"))
}

func TestNoopNotify(t *testing.T) {
	var n Notifier = Noop{}
	assert.NoError(t, n.Notify(context.Background(), "ignored"))
}
