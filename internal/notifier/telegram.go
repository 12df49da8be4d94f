package notifier

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"kratzbaum/internal/model"
)

const ChannelTelegram = "telegram"

type TelegramConfig struct {
	Token   string
	Timeout time.Duration
	// URL overrides the Bot API endpoint.
	URL string
}

// sender is the slice of *tele.Bot the dispatcher uses.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram delivers to chats. A subscription endpoint is "<chat_id>" or
// "<chat_id>:<thread_id>".
type Telegram struct {
	bot sender
}

func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.URL,
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b}, nil
}

func (t *Telegram) Channel() string { return ChannelTelegram }

func (t *Telegram) Deliver(ctx context.Context, target model.Subscription, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, threadID, err := ParseChatEndpoint(target.Endpoint)
	if err != nil {
		return err
	}
	_, err = t.bot.Send(&tele.Chat{ID: chatID}, FormatText(msg), &tele.SendOptions{
		ThreadID:              threadID,
		DisableWebPagePreview: true,
	})
	return err
}

// ParseChatEndpoint splits "<chat_id>[:<thread_id>]".
func ParseChatEndpoint(s string) (chatID int64, threadID int, err error) {
	s = strings.TrimSpace(s)
	chat, thread, hasThread := strings.Cut(s, ":")
	chatID, err = strconv.ParseInt(chat, 10, 64)
	if err != nil || chatID == 0 {
		return 0, 0, model.Invalid("endpoint", "invalid telegram chat id %q", chat)
	}
	if hasThread {
		threadID, err = strconv.Atoi(thread)
		if err != nil || threadID < 0 {
			return 0, 0, model.Invalid("endpoint", "invalid telegram thread id %q", thread)
		}
	}
	return chatID, threadID, nil
}

// FormatText renders msg as a plain-text chat message.
func FormatText(msg Message) string {
	var b strings.Builder
	b.WriteString(msg.Title)
	if msg.Body != "" {
		b.WriteString("\n")
		b.WriteString(msg.Body)
	}
	if msg.Link != "" {
		b.WriteString("\n")
		b.WriteString(msg.Link)
	}
	return b.String()
}
