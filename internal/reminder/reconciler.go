package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kratzbaum/internal/eventbus"
	"kratzbaum/internal/metrics"
	"kratzbaum/internal/model"
	"kratzbaum/internal/storage"
	logx "kratzbaum/pkg/logx"
)

type Outcome string

const (
	// OutcomeNone: no interval applies and no row existed.
	OutcomeNone      Outcome = "none"
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeDeleted   Outcome = "deleted"
)

// Change is the result of reconciling one (plant, type) pair.
type Change struct {
	Outcome  Outcome
	Reminder model.Reminder
}

// Summary aggregates a bulk reconciliation.
type Summary struct {
	Plants   int
	Outcomes map[Outcome]int
}

// Reconciler derives persisted reminder rows from plants, settings and
// care history.
type Reconciler struct {
	d     Deps
	newID func() string
}

func NewReconciler(d Deps) *Reconciler {
	return &Reconciler{d: d.normalized(), newID: uuid.NewString}
}

// Reconcile brings the reminder for (plantID, t) in line with its inputs
// in one transaction.
//
// Errors: model.ErrNotFound when the plant is gone,
// model.ErrPreconditionMissing when no settings row exists. Neither writes.
func (r *Reconciler) Reconcile(ctx context.Context, plantID string, t model.ReminderType) (Change, error) {
	now := r.d.Clock.Now()
	var ch Change
	err := r.d.Store.WithTx(ctx, func(repo storage.Repo) error {
		var err error
		ch, err = r.ReconcileTx(ctx, repo, now, plantID, t)
		return err
	})
	if err != nil {
		metrics.ReconcileTotal.WithLabelValues(string(t), "error").Inc()
		return Change{}, err
	}
	r.Announce(ch)
	return ch, nil
}

// ReconcilePlant reconciles every reminder type of one plant in one
// transaction.
func (r *Reconciler) ReconcilePlant(ctx context.Context, plantID string) ([]Change, error) {
	now := r.d.Clock.Now()
	var changes []Change
	err := r.d.Store.WithTx(ctx, func(repo storage.Repo) error {
		var err error
		changes, err = r.ReconcilePlantTx(ctx, repo, now, plantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.Announce(changes...)
	return changes, nil
}

// ReconcileAll reconciles every plant, one transaction per plant. A plant
// that fails does not stop the others; failures are joined.
func (r *Reconciler) ReconcileAll(ctx context.Context) (Summary, error) {
	sum := Summary{Outcomes: map[Outcome]int{}}

	if _, err := r.d.Store.GetSettings(ctx); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return sum, fmt.Errorf("reconcile all: %w", model.ErrPreconditionMissing)
		}
		return sum, err
	}
	plants, err := r.d.Store.ListPlants(ctx, storage.PlantFilter{})
	if err != nil {
		return sum, err
	}

	var errs []error
	for _, p := range plants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		changes, err := r.ReconcilePlant(ctx, p.ID)
		if err != nil {
			r.d.Log.Warn("reconcile plant failed", logx.String("plant_id", p.ID), logx.Err(err))
			errs = append(errs, fmt.Errorf("plant %s: %w", p.ID, err))
			continue
		}
		sum.Plants++
		for _, c := range changes {
			sum.Outcomes[c.Outcome]++
		}
	}
	r.d.Log.Info("reconciled all reminders",
		logx.Int("plants", sum.Plants),
		logx.Int("created", sum.Outcomes[OutcomeCreated]),
		logx.Int("updated", sum.Outcomes[OutcomeUpdated]),
		logx.Int("deleted", sum.Outcomes[OutcomeDeleted]),
	)
	return sum, errors.Join(errs...)
}

// ReconcilePlantTx is ReconcilePlant on a caller-owned transaction. The
// caller announces the changes after commit.
func (r *Reconciler) ReconcilePlantTx(ctx context.Context, repo storage.Repo, now time.Time, plantID string) ([]Change, error) {
	changes := make([]Change, 0, len(model.ReminderTypes))
	for _, t := range model.ReminderTypes {
		ch, err := r.ReconcileTx(ctx, repo, now, plantID, t)
		if err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	return changes, nil
}

// ReconcileTx is Reconcile on a caller-owned transaction.
func (r *Reconciler) ReconcileTx(ctx context.Context, repo storage.Repo, now time.Time, plantID string, t model.ReminderType) (Change, error) {
	plant, err := repo.GetPlant(ctx, plantID)
	if err != nil {
		return Change{}, err
	}
	settings, err := repo.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Change{}, fmt.Errorf("reconcile %s/%s: %w", plantID, t, model.ErrPreconditionMissing)
		}
		return Change{}, err
	}
	existing, err := repo.GetReminderFor(ctx, plantID, t)
	exists := err == nil
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return Change{}, err
	}

	days, ok := EffectiveInterval(plant, settings, t)
	if !ok {
		if !exists {
			return Change{Outcome: OutcomeNone, Reminder: model.Reminder{PlantID: plantID, Type: t}}, nil
		}
		if err := repo.DeleteReminder(ctx, existing.ID); err != nil {
			return Change{}, err
		}
		return Change{Outcome: OutcomeDeleted, Reminder: existing}, nil
	}

	freq, at := model.Interval(days), settings.PreferredReminderTime
	if exists && existing.Custom {
		freq, at = existing.Frequency, existing.PreferredTime
	}

	ref := plant.CreatedAt
	last, found, err := repo.LatestCareEvent(ctx, plantID, t.CareType())
	if err != nil {
		return Change{}, err
	}
	if found {
		ref = last.EventDate
	}
	due := ResolveNextDue(freq, ref, at)

	if exists && existing.NextDue.Equal(due) && existing.Frequency.Equal(freq) && existing.PreferredTime == at {
		return Change{Outcome: OutcomeUnchanged, Reminder: existing}, nil
	}

	next := existing
	outcome := OutcomeUpdated
	if !exists {
		outcome = OutcomeCreated
		next = model.Reminder{
			ID:        r.newID(),
			PlantID:   plantID,
			Type:      t,
			Enabled:   true,
			CreatedAt: now,
		}
	}
	next.Frequency = freq
	next.PreferredTime = at
	next.NextDue = due
	next.UpdatedAt = now
	if err := repo.UpsertReminder(ctx, next); err != nil {
		return Change{}, err
	}
	if exists {
		return Change{Outcome: outcome, Reminder: next}, nil
	}
	// A concurrent writer may have created the row first; the upsert then
	// updated theirs and our id was never stored.
	stored, err := repo.GetReminderFor(ctx, plantID, t)
	if err != nil {
		return Change{}, err
	}
	if stored.ID != next.ID {
		outcome = OutcomeUpdated
	}
	return Change{Outcome: outcome, Reminder: stored}, nil
}

// Announce publishes committed changes and counts them.
func (r *Reconciler) Announce(changes ...Change) {
	for _, c := range changes {
		t := string(c.Reminder.Type)
		if t == "" {
			t = "unknown"
		}
		metrics.ReconcileTotal.WithLabelValues(t, string(c.Outcome)).Inc()

		var typ string
		switch c.Outcome {
		case OutcomeCreated:
			typ = eventbus.ReminderCreated
		case OutcomeUpdated:
			typ = eventbus.ReminderUpdated
		case OutcomeDeleted:
			typ = eventbus.ReminderDeleted
		default:
			continue
		}
		r.d.Log.Debug("reminder reconciled",
			logx.String("reminder_id", c.Reminder.ID),
			logx.String("plant_id", c.Reminder.PlantID),
			logx.String("type", t),
			logx.String("outcome", string(c.Outcome)),
			logx.Time("next_due", c.Reminder.NextDue),
		)
		r.d.Bus.Publish(eventbus.Event{Type: typ, Data: c.Reminder})
	}
}
