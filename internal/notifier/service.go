package notifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"kratzbaum/internal/eventbus"
	"kratzbaum/internal/metrics"
	"kratzbaum/internal/model"
	logx "kratzbaum/pkg/logx"
)

var (
	ErrDisabled       = errors.New("notifier disabled")
	ErrUnknownChannel = errors.New("no dispatcher for channel")
)

const historyMax = 300

// Service routes deliveries to channel dispatchers. It is safe for
// concurrent use.
type Service struct {
	mu sync.Mutex

	log logx.Logger
	bus eventbus.Bus

	cfg         Config
	limiter     *rate.Limiter
	dispatchers map[string]Dispatcher
	breakers    map[string]*gobreaker.CircuitBreaker[struct{}]

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus, dispatchers ...Dispatcher) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if bus == nil {
		bus = eventbus.Nop()
	}
	s := &Service{
		log:         log.With(logx.String("comp", "notifier")),
		bus:         bus,
		dispatchers: map[string]Dispatcher{},
	}
	for _, d := range dispatchers {
		if d != nil {
			s.dispatchers[d.Channel()] = d
		}
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

// Channels lists the registered dispatcher channels.
func (s *Service) Channels() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.dispatchers))
	for ch := range s.dispatchers {
		out = append(out, ch)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

// Register adds or replaces the dispatcher for its channel.
func (s *Service) Register(d Dispatcher) {
	if d == nil {
		return
	}
	s.mu.Lock()
	s.dispatchers[d.Channel()] = d
	s.breakers[d.Channel()] = s.newBreaker(d.Channel(), s.cfg.Breaker)
	s.mu.Unlock()
}

// Apply swaps the config. Breakers restart closed.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Breaker.OpenTimeout <= 0 {
		cfg.Breaker.OpenTimeout = time.Minute
	}
	if cfg.Breaker.HalfOpenRequests == 0 {
		cfg.Breaker.HalfOpenRequests = 1
	}

	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	s.breakers = make(map[string]*gobreaker.CircuitBreaker[struct{}], len(s.dispatchers))
	for ch := range s.dispatchers {
		s.breakers[ch] = s.newBreaker(ch, cfg.Breaker)
	}
}

func (s *Service) newBreaker(channel string, bc BreakerConfig) *gobreaker.CircuitBreaker[struct{}] {
	metrics.BreakerState.WithLabelValues(channel).Set(0)
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        channel,
		MaxRequests: bc.HalfOpenRequests,
		Timeout:     bc.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			s.log.Warn("notifier breaker state changed",
				logx.String("channel", name),
				logx.String("from", from.String()),
				logx.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Deliver sends msg to target, retrying up to RetryMax times, and reports
// whether it arrived. Errors are logged and published, never returned.
func (s *Service) Deliver(ctx context.Context, target model.Subscription, msg Message) bool {
	return s.send(ctx, target, msg, true)
}

// SingleShot is a view of a Service that makes exactly one attempt per
// delivery. The sweep uses it: a failed target waits for the next tick.
type SingleShot struct{ s *Service }

func (s *Service) SingleShot() SingleShot { return SingleShot{s: s} }

func (o SingleShot) Deliver(ctx context.Context, target model.Subscription, msg Message) bool {
	return o.s.send(ctx, target, msg, false)
}

func (s *Service) send(ctx context.Context, target model.Subscription, msg Message, retry bool) bool {
	attempts, err := s.deliver(ctx, target, msg, retry)
	now := time.Now()
	ev := DeliveryEvent{
		Channel:        target.Channel,
		SubscriptionID: target.ID,
		Title:          msg.Title,
		Attempts:       attempts,
		At:             now,
	}
	item := HistoryItem{At: now, Channel: target.Channel, SubscriptionID: target.ID, Title: msg.Title}

	if err == nil {
		metrics.DeliveriesTotal.WithLabelValues(target.Channel, "sent").Inc()
		s.appendHistory(item)
		s.bus.Publish(eventbus.Event{Type: eventbus.NotifierSent, Time: now, Data: ev})
		return true
	}

	result := "failed"
	switch {
	case errors.Is(err, ErrDisabled):
		result = "disabled"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "breaker_open"
	}
	metrics.DeliveriesTotal.WithLabelValues(target.Channel, result).Inc()

	ev.Error = err.Error()
	item.Error = err.Error()
	s.appendHistory(item)
	s.bus.Publish(eventbus.Event{Type: eventbus.NotifierFailed, Time: now, Data: ev})
	s.log.Warn("delivery failed",
		logx.String("channel", target.Channel),
		logx.String("subscription_id", target.ID),
		logx.Int("attempts", attempts),
		logx.Err(err),
	)
	return false
}

func (s *Service) deliver(ctx context.Context, target model.Subscription, msg Message, retry bool) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	d := s.dispatchers[target.Channel]
	cb := s.breakers[target.Channel]
	s.mu.Unlock()

	if !cfg.Enabled {
		return 0, ErrDisabled
	}
	if d == nil || cb == nil {
		return 0, fmt.Errorf("%w %q", ErrUnknownChannel, target.Channel)
	}

	maxAttempts := 1
	if retry {
		maxAttempts += cfg.RetryMax
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return attempt - 1, err
		}

		start := time.Now()
		_, err := cb.Execute(func() (struct{}, error) {
			callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
			return struct{}{}, d.Deliver(callCtx, target, msg)
		})
		metrics.DeliveryDuration.WithLabelValues(target.Channel).Observe(time.Since(start).Seconds())
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		s.log.Debug("delivery attempt failed",
			logx.String("channel", target.Channel),
			logx.Int("attempt", attempt),
			logx.Int("max", maxAttempts),
			logx.Err(err),
		)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return attempt, err
		}
		if attempt >= maxAttempts {
			break
		}

		t := time.NewTimer(retryDelay(cfg, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return attempt, errors.Join(lastErr, ctx.Err())
		}
	}
	return maxAttempts, fmt.Errorf("%w: %w", model.ErrDeliveryFailed, lastErr)
}

// Snapshot returns recent deliveries, oldest first.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) appendHistory(it HistoryItem) {
	s.hmu.Lock()
	s.history = append(s.history, it)
	if len(s.history) > historyMax {
		s.history = s.history[len(s.history)-historyMax:]
	}
	s.hmu.Unlock()
}

func retryDelay(cfg Config, attempt int) time.Duration {
	d := cfg.RetryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cfg.RetryMaxDelay {
			d = cfg.RetryMaxDelay
			break
		}
	}
	// 0.7x .. 1.3x
	jitter := 0.7 + rand.Float64()*0.6
	return time.Duration(float64(d) * jitter)
}
