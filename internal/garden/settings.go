package garden

import (
	"context"
	"errors"

	"kratzbaum/internal/model"
	"kratzbaum/internal/reminder"
	"kratzbaum/internal/storage"
	logx "kratzbaum/pkg/logx"
)

func (s *Service) GetSettings(ctx context.Context) (model.Settings, error) {
	return s.store.GetSettings(ctx)
}

// EnsureSettings writes seed when no settings row exists yet. created
// reports whether it did.
func (s *Service) EnsureSettings(ctx context.Context, seed model.Settings) (model.Settings, bool, error) {
	cur, err := s.store.GetSettings(ctx)
	if err == nil {
		return cur, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Settings{}, false, err
	}
	seed.UpdatedAt = s.clock.Now()
	if err := s.store.PutSettings(ctx, seed); err != nil {
		return model.Settings{}, false, err
	}
	s.log.Info("settings seeded",
		logx.String("preferred_reminder_time", seed.PreferredReminderTime.String()),
	)
	return seed, true, nil
}

// UpdateSettings applies in and reconciles every plant.
func (s *Service) UpdateSettings(ctx context.Context, in SettingsPatch) (model.Settings, reminder.Summary, error) {
	if err := model.Validate(in); err != nil {
		return model.Settings{}, reminder.Summary{}, err
	}
	if (in.DefaultWateringInterval != nil && in.ClearDefaultWateringInterval) ||
		(in.DefaultFertilizingInterval != nil && in.ClearDefaultFertilizingInterval) {
		return model.Settings{}, reminder.Summary{}, model.Invalid("interval", "cannot set and clear an interval at once")
	}

	var st model.Settings
	err := s.store.WithTx(ctx, func(repo storage.Repo) error {
		var err error
		if st, err = repo.GetSettings(ctx); err != nil {
			return err
		}
		switch {
		case in.ClearDefaultWateringInterval:
			st.DefaultWateringInterval = nil
		case in.DefaultWateringInterval != nil:
			st.DefaultWateringInterval = in.DefaultWateringInterval
		}
		switch {
		case in.ClearDefaultFertilizingInterval:
			st.DefaultFertilizingInterval = nil
		case in.DefaultFertilizingInterval != nil:
			st.DefaultFertilizingInterval = in.DefaultFertilizingInterval
		}
		if in.PreferredReminderTime != nil {
			st.PreferredReminderTime = *in.PreferredReminderTime
		}
		st.UpdatedAt = s.clock.Now()
		return repo.PutSettings(ctx, st)
	})
	if err != nil {
		return model.Settings{}, reminder.Summary{}, err
	}
	sum, err := s.rec.ReconcileAll(ctx)
	return st, sum, err
}
