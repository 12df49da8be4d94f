package notifier

import (
	"context"
	"time"

	"kratzbaum/internal/model"
)

// Config controls delivery.
type Config struct {
	Enabled       bool
	RatePerSec    int
	Timeout       time.Duration // per attempt
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	Breaker       BreakerConfig
}

type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	// HalfOpenRequests is how many probes pass while half-open.
	HalfOpenRequests uint32
}

// Message is what a reminder looks like on the wire.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link,omitempty"`
}

// Dispatcher sends one message to one subscription of its channel.
type Dispatcher interface {
	Channel() string
	Deliver(ctx context.Context, target model.Subscription, msg Message) error
}

type HistoryItem struct {
	At             time.Time
	Channel        string
	SubscriptionID string
	Title          string
	Error          string
}

// DeliveryEvent is published on the bus for every delivery outcome.
type DeliveryEvent struct {
	Channel        string    `json:"channel"`
	SubscriptionID string    `json:"subscription_id"`
	Title          string    `json:"title"`
	Attempts       int       `json:"attempts"`
	At             time.Time `json:"at"`
	Error          string    `json:"error,omitempty"`
}
