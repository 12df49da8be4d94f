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

// PlantDetail is a plant with its pot and the last time each care type
// was logged.
type PlantDetail struct {
	model.Plant
	Pot            *model.Pot
	LastWatered    *time.Time
	LastFertilized *time.Time
	LastRepotted   *time.Time
}

func (s *Service) CreatePlant(ctx context.Context, in PlantInput) (model.Plant, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Species = strings.TrimSpace(in.Species)
	if err := model.Validate(in); err != nil {
		return model.Plant{}, err
	}
	var p model.Plant
	err := s.tx(ctx, func(repo storage.Repo, now time.Time) ([]reminder.Change, error) {
		p = model.Plant{
			ID:                  s.newID(),
			Name:                in.Name,
			Species:             in.Species,
			PotID:               in.PotID,
			WateringInterval:    in.WateringInterval,
			FertilizingInterval: in.FertilizingInterval,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if p.PotID != "" {
			if _, err := repo.GetPot(ctx, p.PotID); err != nil {
				return nil, err
			}
		}
		if err := repo.InsertPlant(ctx, p); err != nil {
			return nil, err
		}
		return s.reconcile(ctx, repo, now, p.ID, model.ReminderTypes...)
	})
	if err != nil {
		return model.Plant{}, err
	}
	s.log.Info("plant created", logx.String("plant_id", p.ID), logx.String("name", p.Name))
	return p, nil
}

func (s *Service) UpdatePlant(ctx context.Context, id string, in PlantPatch) (model.Plant, error) {
	if err := model.Validate(in); err != nil {
		return model.Plant{}, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return model.Plant{}, model.Invalid("name", "is required")
	}
	if (in.WateringInterval != nil && in.ClearWateringInterval) || (in.FertilizingInterval != nil && in.ClearFertilizingInterval) {
		return model.Plant{}, model.Invalid("interval", "cannot set and clear an interval at once")
	}

	var p model.Plant
	err := s.tx(ctx, func(repo storage.Repo, now time.Time) ([]reminder.Change, error) {
		var err error
		if p, err = repo.GetPlant(ctx, id); err != nil {
			return nil, err
		}
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Species != nil {
			p.Species = strings.TrimSpace(*in.Species)
		}
		if in.PotID != nil && *in.PotID != p.PotID {
			if *in.PotID != "" {
				if _, err := repo.GetPot(ctx, *in.PotID); err != nil {
					return nil, err
				}
			}
			p.PotID = *in.PotID
		}
		switch {
		case in.ClearWateringInterval:
			p.WateringInterval = nil
		case in.WateringInterval != nil:
			p.WateringInterval = in.WateringInterval
		}
		switch {
		case in.ClearFertilizingInterval:
			p.FertilizingInterval = nil
		case in.FertilizingInterval != nil:
			p.FertilizingInterval = in.FertilizingInterval
		}
		p.UpdatedAt = now
		if err := repo.UpdatePlant(ctx, p); err != nil {
			return nil, err
		}
		return s.reconcile(ctx, repo, now, p.ID, model.ReminderTypes...)
	})
	return p, err
}

// DeletePlant removes the plant with its reminders and care history.
func (s *Service) DeletePlant(ctx context.Context, id string) error {
	if err := s.store.DeletePlant(ctx, id); err != nil {
		return err
	}
	s.log.Info("plant deleted", logx.String("plant_id", id))
	return nil
}

func (s *Service) GetPlant(ctx context.Context, id string) (PlantDetail, error) {
	p, err := s.store.GetPlant(ctx, id)
	if err != nil {
		return PlantDetail{}, err
	}
	d := PlantDetail{Plant: p}
	if p.PotID != "" {
		if pot, err := s.store.GetPot(ctx, p.PotID); err == nil {
			d.Pot = &pot
		}
	}
	last := map[model.CareType]**time.Time{
		model.CareWatered:    &d.LastWatered,
		model.CareFertilized: &d.LastFertilized,
		model.CareRepotted:   &d.LastRepotted,
	}
	for typ, dst := range last {
		e, ok, err := s.store.LatestCareEvent(ctx, id, typ)
		if err != nil {
			return PlantDetail{}, err
		}
		if ok {
			at := e.EventDate
			*dst = &at
		}
	}
	return d, nil
}

func (s *Service) ListPlants(ctx context.Context, f storage.PlantFilter) ([]model.Plant, error) {
	switch f.Sort {
	case "", storage.SortByName, storage.SortBySpecies, storage.SortByCreatedAt:
	default:
		return nil, model.Invalid("sort", "must be one of [name species created_at]")
	}
	if f.Sort == "" {
		f.Sort = storage.SortByName
	}
	return s.store.ListPlants(ctx, f)
}
