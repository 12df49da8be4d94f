package garden

import (
	"context"
	"strings"
	"time"

	"kratzbaum/internal/model"
	"kratzbaum/internal/reminder"
	"kratzbaum/internal/storage"
	logx "kratzbaum/pkg/logx"
)

// LogCare records a care event and reschedules the matching reminder.
// REPOTTED reschedules nothing.
func (s *Service) LogCare(ctx context.Context, in CareInput) (model.CareEvent, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := model.Validate(in); err != nil {
		return model.CareEvent{}, err
	}
	var e model.CareEvent
	err := s.tx(ctx, func(repo storage.Repo, now time.Time) ([]reminder.Change, error) {
		if _, err := repo.GetPlant(ctx, in.PlantID); err != nil {
			return nil, err
		}
		at := now
		if in.EventDate != nil {
			at = in.EventDate.UTC()
		}
		e = model.CareEvent{
			ID:        s.newID(),
			PlantID:   in.PlantID,
			Type:      in.Type,
			EventDate: at,
			Notes:     in.Notes,
			CreatedAt: now,
		}
		if err := repo.InsertCareEvent(ctx, e); err != nil {
			return nil, err
		}
		rt, ok := e.Type.ReminderType()
		if !ok {
			return nil, nil
		}
		return s.reconcile(ctx, repo, now, e.PlantID, rt)
	})
	if err != nil {
		return model.CareEvent{}, err
	}
	s.log.Info("care logged",
		logx.String("plant_id", e.PlantID),
		logx.String("type", string(e.Type)),
		logx.Time("event_date", e.EventDate),
	)
	return e, nil
}

// DeleteCareEvent removes an event of plantID and reschedules from the
// event before it. An empty plantID skips the ownership check.
func (s *Service) DeleteCareEvent(ctx context.Context, plantID, eventID string) error {
	return s.tx(ctx, func(repo storage.Repo, now time.Time) ([]reminder.Change, error) {
		e, err := repo.GetCareEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if plantID != "" && e.PlantID != plantID {
			return nil, model.NotFound("care event", eventID)
		}
		if err := repo.DeleteCareEvent(ctx, eventID); err != nil {
			return nil, err
		}
		rt, ok := e.Type.ReminderType()
		if !ok {
			return nil, nil
		}
		return s.reconcile(ctx, repo, now, e.PlantID, rt)
	})
}

func (s *Service) ListCareEvents(ctx context.Context, f storage.CareFilter) ([]model.CareEvent, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, model.Invalid("event_type", "must be one of [WATERED FERTILIZED REPOTTED]")
	}
	if f.PlantID != "" {
		if _, err := s.store.GetPlant(ctx, f.PlantID); err != nil {
			return nil, err
		}
	}
	return s.store.ListCareEvents(ctx, f)
}
