package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kratzbaum/internal/eventbus"
	"kratzbaum/internal/metrics"
	"kratzbaum/internal/model"
	"kratzbaum/internal/notifier"
	"kratzbaum/internal/storage"
	logx "kratzbaum/pkg/logx"
)

const DefaultCooldown = 24 * time.Hour

// markTimeout bounds the last_notified write, which runs detached from the
// tick's deadline once deliveries have been attempted.
const markTimeout = 5 * time.Second

// Dispatcher delivers one message to one target and reports success.
// Failures are the dispatcher's to log.
type Dispatcher interface {
	Deliver(ctx context.Context, target model.Subscription, msg notifier.Message) bool
}

type SweepOptions struct {
	Cooldown time.Duration
	LinkBase string
}

// SweepReport counts what one sweep tick did.
type SweepReport struct {
	At            time.Time `json:"at"`
	Due           int       `json:"due"`
	Subscriptions int       `json:"subscriptions"`
	Notified      int       `json:"notified"`
	Cooldown      int       `json:"cooldown"`
	Dormant       int       `json:"dormant"`
	Orphaned      int       `json:"orphaned"`
	Delivered     int       `json:"delivered"`
	Failed        int       `json:"failed"`
}

// Sweeper finds due reminders and notifies every subscription. It never
// moves next_due.
type Sweeper struct {
	d    Deps
	disp Dispatcher
	opts SweepOptions
}

func NewSweeper(d Deps, disp Dispatcher, opts SweepOptions) *Sweeper {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	return &Sweeper{d: d.normalized(), disp: disp, opts: opts}
}

// WithOptions returns a sweeper sharing s's collaborators with new options.
func (s *Sweeper) WithOptions(opts SweepOptions) *Sweeper {
	return NewSweeper(s.d, s.disp, opts)
}

// Run is RunSweep at the clock's current time, for schedulers.
func (s *Sweeper) Run(ctx context.Context) error {
	_, err := s.RunSweep(ctx, s.d.Clock.Now())
	return err
}

// RunSweep notifies for every enabled reminder due at now, unless it was
// notified within the cooldown, its dormancy window covers now, or its
// plant is gone. last_notified is written per reminder in its own
// transaction after all deliveries were attempted.
func (s *Sweeper) RunSweep(ctx context.Context, now time.Time) (rep SweepReport, err error) {
	rep.At = now
	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.SweepRunsTotal.WithLabelValues(result).Inc()
	}()

	due, err := s.d.Store.ListReminders(ctx, storage.ReminderFilter{EnabledOnly: true, DueBefore: &now})
	if err != nil {
		return rep, fmt.Errorf("sweep: list due: %w", err)
	}
	rep.Due = len(due)
	if len(due) == 0 {
		return rep, nil
	}
	subs, err := s.d.Store.ListSubscriptions(ctx)
	if err != nil {
		return rep, fmt.Errorf("sweep: list subscriptions: %w", err)
	}
	rep.Subscriptions = len(subs)
	if len(subs) == 0 {
		s.d.Log.Debug("due reminders but no subscriptions", logx.Int("due", len(due)))
		return rep, nil
	}

	var errs []error
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if r.LastNotified != nil && now.Sub(*r.LastNotified) < s.opts.Cooldown {
			rep.Cooldown++
			metrics.SweepRemindersTotal.WithLabelValues("cooldown").Inc()
			continue
		}
		if r.Dormancy != nil && r.Dormancy.Contains(now.Month()) {
			rep.Dormant++
			metrics.SweepRemindersTotal.WithLabelValues("dormant").Inc()
			continue
		}
		plant, err := s.d.Store.GetPlant(ctx, r.PlantID)
		if errors.Is(err, model.ErrNotFound) {
			rep.Orphaned++
			metrics.SweepRemindersTotal.WithLabelValues("orphaned").Inc()
			s.d.Log.Warn("due reminder without plant", logx.String("reminder_id", r.ID), logx.String("plant_id", r.PlantID))
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("reminder %s: %w", r.ID, err))
			continue
		}

		msg := ComposeMessage(plant, r.Type, s.opts.LinkBase)
		for _, sub := range subs {
			if s.disp != nil && s.disp.Deliver(ctx, sub, msg) {
				rep.Delivered++
			} else {
				rep.Failed++
			}
		}

		if err := s.markNotified(ctx, r.ID, now); err != nil {
			errs = append(errs, fmt.Errorf("reminder %s: mark notified: %w", r.ID, err))
			continue
		}
		rep.Notified++
		metrics.SweepRemindersTotal.WithLabelValues("notified").Inc()
		r.LastNotified = &now
		s.d.Bus.Publish(eventbus.Event{Type: eventbus.ReminderNotified, Data: r})
	}

	s.d.Log.Info("sweep finished",
		logx.Int("due", rep.Due),
		logx.Int("notified", rep.Notified),
		logx.Int("cooldown", rep.Cooldown),
		logx.Int("dormant", rep.Dormant),
		logx.Int("delivered", rep.Delivered),
		logx.Int("failed", rep.Failed),
	)
	s.d.Bus.Publish(eventbus.Event{Type: eventbus.SweepCompleted, Data: rep})
	return rep, errors.Join(errs...)
}

func (s *Sweeper) markNotified(ctx context.Context, id string, now time.Time) error {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()
	return s.d.Store.WithTx(mctx, func(repo storage.Repo) error {
		return repo.MarkNotified(mctx, id, now)
	})
}
