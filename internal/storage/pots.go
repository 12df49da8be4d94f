package storage

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"kratzbaum/internal/model"
)

const tablePots = "pots"

func (r repo) InsertPot(ctx context.Context, p model.Pot) error {
	b := r.sb.Insert(tablePots).Columns(potColumns...).Values(
		p.ID, p.Name, p.DiameterCM, p.HeightCM, ms(p.CreatedAt), ms(p.UpdatedAt),
	)
	_, err := r.exec(ctx, b, "insert pot", tablePots)
	return err
}

func (r repo) UpdatePot(ctx context.Context, p model.Pot) error {
	b := r.sb.Update(tablePots).SetMap(map[string]any{
		"name":        p.Name,
		"diameter_cm": p.DiameterCM,
		"height_cm":   p.HeightCM,
		"updated_at":  ms(p.UpdatedAt),
	}).Where(sq.Eq{"id": p.ID})
	return r.execOne(ctx, b, "update pot", tablePots)
}

func (r repo) GetPot(ctx context.Context, id string) (model.Pot, error) {
	var row potRow
	b := r.sb.Select(potColumns...).From(tablePots).Where(sq.Eq{"id": id})
	if err := r.get(ctx, &row, b, "get pot", tablePots); err != nil {
		return model.Pot{}, err
	}
	return row.model(), nil
}

// ListPots returns pots by name. availableOnly drops pots assigned to a plant.
func (r repo) ListPots(ctx context.Context, availableOnly bool) ([]model.Pot, error) {
	b := r.sb.Select(potColumns...).From(tablePots)
	if availableOnly {
		b = b.Where("id NOT IN (SELECT pot_id FROM plants WHERE pot_id IS NOT NULL)")
	}
	b = b.OrderBy("name ASC", "id ASC")

	var rows []potRow
	if err := r.selectAll(ctx, &rows, b, "list pots", tablePots); err != nil {
		return nil, err
	}
	out := make([]model.Pot, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r repo) DeletePot(ctx context.Context, id string) error {
	unassign := r.sb.Update(tablePlants).Set("pot_id", nil).Where(sq.Eq{"pot_id": id})
	if _, err := r.exec(ctx, unassign, "delete pot", tablePlants); err != nil {
		return err
	}
	return r.execOne(ctx, r.sb.Delete(tablePots).Where(sq.Eq{"id": id}), "delete pot", tablePots)
}
