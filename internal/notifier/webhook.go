package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"kratzbaum/internal/model"
)

const ChannelWebhook = "webhook"

// SignatureHeader carries hex(HMAC-SHA256(auth, body)) when the
// subscription has an auth secret.
const SignatureHeader = "X-Kratzbaum-Signature"

type WebhookConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// Webhook POSTs the message as JSON to the subscription endpoint.
type Webhook struct {
	client *http.Client
	ua     string
}

func NewWebhook(cfg WebhookConfig) *Webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "kratzbaum"
	}
	return &Webhook{client: &http.Client{Timeout: timeout}, ua: ua}
}

func (w *Webhook) Channel() string { return ChannelWebhook }

type webhookPayload struct {
	Message
	SentAt time.Time `json:"sent_at"`
}

func (w *Webhook) Deliver(ctx context.Context, target model.Subscription, msg Message) error {
	u, err := url.Parse(target.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.Invalid("endpoint", "invalid webhook url %q", target.Endpoint)
	}
	body, err := json.Marshal(webhookPayload{Message: msg, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", w.ua)
	if target.Auth != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign([]byte(target.Auth), body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s: status %d", u.Host, resp.StatusCode)
	}
	return nil
}

// Sign returns hex(HMAC-SHA256(secret, body)).
func Sign(secret, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}
