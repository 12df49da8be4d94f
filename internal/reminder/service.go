package reminder

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"kratzbaum/internal/eventbus"
	"kratzbaum/internal/model"
	"kratzbaum/internal/storage"
	logx "kratzbaum/pkg/logx"
)

const (
	DefaultSnoozeHours  = 24
	MaxSnoozeHours      = 720
	DefaultUpcomingDays = 7
)

type Options struct {
	DefaultSnoozeHours int
	UpcomingDays       int
}

// Item is a reminder with its plant's name.
type Item struct {
	model.Reminder
	PlantName string
}

type ListFilter struct {
	// UpcomingOnly keeps enabled reminders due within Days from now.
	UpcomingOnly bool
	Days         int
	PlantID      string
}

// Patch is a partial update. Nil fields stay as they are.
type Patch struct {
	Enabled       *bool
	Frequency     *model.Frequency
	PreferredTime *model.TimeOfDay
	Dormancy      *model.Dormancy
	ClearDormancy bool
	// ResetSchedule drops a custom frequency and time so the row follows
	// plant and settings again.
	ResetSchedule bool
}

func (p Patch) Validate() error {
	if p.Frequency != nil {
		if err := p.Frequency.Validate(); err != nil {
			return err
		}
	}
	if p.Dormancy != nil {
		if p.ClearDormancy {
			return model.Invalid("dormancy", "cannot set and clear dormancy at once")
		}
		if err := p.Dormancy.Validate(); err != nil {
			return err
		}
	}
	if p.ResetSchedule && (p.Frequency != nil || p.PreferredTime != nil) {
		return model.Invalid("frequency", "cannot set a schedule and reset it at once")
	}
	return nil
}

// Service holds the reminder accessors.
type Service struct {
	d    Deps
	rec  *Reconciler
	opts atomic.Pointer[Options]
}

func NewService(d Deps, rec *Reconciler, opts Options) *Service {
	d = d.normalized()
	if rec == nil {
		rec = NewReconciler(d)
	}
	s := &Service{d: d, rec: rec}
	s.SetOptions(opts)
	return s
}

// SetOptions swaps the defaults used by List and Snooze.
func (s *Service) SetOptions(opts Options) {
	if opts.DefaultSnoozeHours <= 0 {
		opts.DefaultSnoozeHours = DefaultSnoozeHours
	}
	if opts.UpcomingDays <= 0 {
		opts.UpcomingDays = DefaultUpcomingDays
	}
	s.opts.Store(&opts)
}

func (s *Service) Reconciler() *Reconciler { return s.rec }

// List returns reminders ordered by next_due. Rows whose plant is missing
// are skipped.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Item, error) {
	rf := storage.ReminderFilter{PlantID: f.PlantID}
	if f.UpcomingOnly {
		days := f.Days
		if days <= 0 {
			days = s.opts.Load().UpcomingDays
		}
		cutoff := s.d.Clock.Now().Add(time.Duration(days) * 24 * time.Hour)
		rf.EnabledOnly = true
		rf.DueBefore = &cutoff
	}
	return s.list(ctx, rf)
}

// Overdue returns enabled reminders already due.
func (s *Service) Overdue(ctx context.Context) ([]Item, error) {
	now := s.d.Clock.Now()
	return s.list(ctx, storage.ReminderFilter{EnabledOnly: true, DueBefore: &now})
}

func (s *Service) list(ctx context.Context, rf storage.ReminderFilter) ([]Item, error) {
	rems, err := s.d.Store.ListReminders(ctx, rf)
	if err != nil {
		return nil, err
	}
	if len(rems) == 0 {
		return nil, nil
	}
	plants, err := s.d.Store.ListPlants(ctx, storage.PlantFilter{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(plants))
	for _, p := range plants {
		names[p.ID] = p.Name
	}
	out := make([]Item, 0, len(rems))
	for _, r := range rems {
		name, ok := names[r.PlantID]
		if !ok {
			s.d.Log.Debug("skipping orphaned reminder", logx.String("reminder_id", r.ID), logx.String("plant_id", r.PlantID))
			continue
		}
		out = append(out, Item{Reminder: r, PlantName: name})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	r, err := s.d.Store.GetReminder(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return s.withName(ctx, r), nil
}

func (s *Service) withName(ctx context.Context, r model.Reminder) Item {
	it := Item{Reminder: r, PlantName: "Unknown"}
	if p, err := s.d.Store.GetPlant(ctx, r.PlantID); err == nil {
		it.PlantName = p.Name
	}
	return it
}

// Snooze moves next_due to now + hours without consulting the schedule.
// hours of 0 means the configured default. The next reconciliation of the
// row discards the snooze.
func (s *Service) Snooze(ctx context.Context, id string, hours int) (Item, error) {
	if hours == 0 {
		hours = s.opts.Load().DefaultSnoozeHours
	}
	if hours < 1 || hours > MaxSnoozeHours {
		return Item{}, model.Invalid("snooze_hours", "must be between 1 and %d", MaxSnoozeHours)
	}
	now := s.d.Clock.Now()
	r, err := s.mutate(ctx, id, func(r *model.Reminder) {
		r.NextDue = now.Add(time.Duration(hours) * time.Hour)
		r.UpdatedAt = now
	})
	if err != nil {
		return Item{}, err
	}
	s.d.Log.Info("reminder snoozed", logx.String("reminder_id", id), logx.Int("hours", hours), logx.Time("next_due", r.NextDue))
	s.d.Bus.Publish(eventbus.Event{Type: eventbus.ReminderSnoozed, Data: r})
	return s.withName(ctx, r), nil
}

// Complete reschedules from now, as if the care was done this moment. No
// care event is logged.
func (s *Service) Complete(ctx context.Context, id string) (Item, error) {
	now := s.d.Clock.Now()
	r, err := s.mutate(ctx, id, func(r *model.Reminder) {
		r.NextDue = ResolveNextDue(r.Frequency, now, r.PreferredTime)
		r.UpdatedAt = now
	})
	if err != nil {
		return Item{}, err
	}
	s.d.Log.Info("reminder completed", logx.String("reminder_id", id), logx.Time("next_due", r.NextDue))
	s.d.Bus.Publish(eventbus.Event{Type: eventbus.ReminderCompleted, Data: r})
	return s.withName(ctx, r), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	r, err := s.d.Store.GetReminder(ctx, id)
	if err != nil {
		return err
	}
	if err := s.d.Store.DeleteReminder(ctx, id); err != nil {
		return err
	}
	s.d.Bus.Publish(eventbus.Event{Type: eventbus.ReminderDeleted, Data: r})
	return nil
}

// Update applies p and recomputes the row from its inputs in the same
// transaction. Setting Frequency or PreferredTime pins them against later
// reconciliations until ResetSchedule.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Item, error) {
	if err := p.Validate(); err != nil {
		return Item{}, err
	}
	now := s.d.Clock.Now()
	var (
		out     model.Reminder
		change  Change
		changed bool
	)
	err := s.d.Store.WithTx(ctx, func(repo storage.Repo) error {
		r, err := repo.GetReminder(ctx, id)
		if err != nil {
			return err
		}
		before := r
		if p.Enabled != nil {
			r.Enabled = *p.Enabled
		}
		if p.Frequency != nil {
			r.Frequency = *p.Frequency
			r.Custom = true
		}
		if p.PreferredTime != nil {
			r.PreferredTime = *p.PreferredTime
			r.Custom = true
		}
		if p.ResetSchedule {
			r.Custom = false
		}
		if p.Dormancy != nil {
			d := *p.Dormancy
			r.Dormancy = &d
		}
		if p.ClearDormancy {
			r.Dormancy = nil
		}
		// Enabled and dormancy leave next_due alone, so a snooze survives.
		// Only an explicit schedule change is recomputed.
		schedule := p.Frequency != nil || p.PreferredTime != nil || p.ResetSchedule
		if !schedule && sameSettings(before, r) {
			out = r
			return nil
		}
		changed = true
		r.UpdatedAt = now
		if err := repo.UpsertReminder(ctx, r); err != nil {
			return err
		}
		if !schedule {
			out = r
			return nil
		}

		change, err = s.rec.ReconcileTx(ctx, repo, now, r.PlantID, r.Type)
		switch {
		case errors.Is(err, model.ErrPreconditionMissing):
			s.d.Log.Debug("reminder update kept without recompute", logx.String("reminder_id", id), logx.Err(err))
			out = r
			return nil
		case err != nil:
			return err
		}
		if change.Outcome == OutcomeDeleted {
			return model.NotFound("reminder", id)
		}
		out = change.Reminder
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	if change.Outcome != "" {
		s.rec.Announce(change)
	}
	if changed {
		s.d.Bus.Publish(eventbus.Event{Type: eventbus.ReminderUpdated, Data: out})
	}
	return s.withName(ctx, out), nil
}

func sameSettings(a, b model.Reminder) bool {
	if a.Enabled != b.Enabled || a.Custom != b.Custom || a.PreferredTime != b.PreferredTime || !a.Frequency.Equal(b.Frequency) {
		return false
	}
	if a.Dormancy == nil || b.Dormancy == nil {
		return a.Dormancy == b.Dormancy
	}
	return *a.Dormancy == *b.Dormancy
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*model.Reminder)) (model.Reminder, error) {
	var out model.Reminder
	err := s.d.Store.WithTx(ctx, func(repo storage.Repo) error {
		r, err := repo.GetReminder(ctx, id)
		if err != nil {
			return err
		}
		fn(&r)
		if err := repo.UpsertReminder(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}
