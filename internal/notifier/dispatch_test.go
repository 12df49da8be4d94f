package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"kratzbaum/internal/model"
)

func TestWebhook_Deliver(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{})
	sub := model.Subscription{Channel: ChannelWebhook, Endpoint: srv.URL + "/hook", Auth: "s3cret"}

	require.NoError(t, wh.Deliver(context.Background(), sub, msg))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, msg.Title, payload["title"])
	assert.Equal(t, msg.Link, payload["link"])
	assert.Equal(t, "sha256="+Sign([]byte("s3cret"), gotBody), gotSig)

	sub.Endpoint = srv.URL + "/fail"
	assert.Error(t, wh.Deliver(context.Background(), sub, msg))

	sub.Endpoint = "ftp://nope"
	assert.ErrorIs(t, wh.Deliver(context.Background(), sub, msg), model.ErrValidation)
}

type fakeSender struct {
	to   tele.Recipient
	text string
	opts []interface{}
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.to, f.text, f.opts = to, what.(string), opts
	return &tele.Message{ID: 1}, nil
}

func TestTelegram_Deliver(t *testing.T) {
	fs := &fakeSender{}
	tg := &Telegram{bot: fs}

	err := tg.Deliver(context.Background(), model.Subscription{Channel: ChannelTelegram, Endpoint: "-1001234:7"}, msg)
	require.NoError(t, err)
	assert.Equal(t, "-1001234", fs.to.Recipient())
	assert.Equal(t, "Time to water Monstera\nYour plant Monstera needs watering!\n/plants", fs.text)
	require.Len(t, fs.opts, 1)
	assert.Equal(t, 7, fs.opts[0].(*tele.SendOptions).ThreadID)

	err = tg.Deliver(context.Background(), model.Subscription{Endpoint: "abc"}, msg)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestParseChatEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		chat   int64
		thread int
		ok     bool
	}{
		{in: "42", chat: 42, ok: true},
		{in: " -100:3 ", chat: -100, thread: 3, ok: true},
		{in: "0", ok: false},
		{in: "42:x", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			chat, thread, err := ParseChatEndpoint(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.chat, chat)
			assert.Equal(t, tt.thread, thread)
		})
	}
}

func TestNewTelegram_RequiresToken(t *testing.T) {
	_, err := NewTelegram(TelegramConfig{})
	assert.Error(t, err)
}
