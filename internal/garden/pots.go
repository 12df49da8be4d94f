package garden

import (
	"context"
	"strings"

	"kratzbaum/internal/model"
)

func (s *Service) CreatePot(ctx context.Context, in PotInput) (model.Pot, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := model.Validate(in); err != nil {
		return model.Pot{}, err
	}
	now := s.clock.Now()
	p := model.Pot{
		ID:         s.newID(),
		Name:       in.Name,
		DiameterCM: in.DiameterCM,
		HeightCM:   in.HeightCM,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertPot(ctx, p); err != nil {
		return model.Pot{}, err
	}
	return p, nil
}

func (s *Service) UpdatePot(ctx context.Context, id string, in PotPatch) (model.Pot, error) {
	if err := model.Validate(in); err != nil {
		return model.Pot{}, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return model.Pot{}, model.Invalid("name", "is required")
	}
	p, err := s.store.GetPot(ctx, id)
	if err != nil {
		return model.Pot{}, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.DiameterCM != nil {
		p.DiameterCM = *in.DiameterCM
	}
	if in.HeightCM != nil {
		p.HeightCM = *in.HeightCM
	}
	p.UpdatedAt = s.clock.Now()
	if err := s.store.UpdatePot(ctx, p); err != nil {
		return model.Pot{}, err
	}
	return p, nil
}

func (s *Service) GetPot(ctx context.Context, id string) (model.Pot, error) {
	return s.store.GetPot(ctx, id)
}

// ListPots lists pots by name; availableOnly drops pots in use.
func (s *Service) ListPots(ctx context.Context, availableOnly bool) ([]model.Pot, error) {
	return s.store.ListPots(ctx, availableOnly)
}

// DeletePot unassigns the pot from its plant and removes it.
func (s *Service) DeletePot(ctx context.Context, id string) error {
	return s.store.DeletePot(ctx, id)
}
