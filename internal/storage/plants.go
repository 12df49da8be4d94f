package storage

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"kratzbaum/internal/model"
)

const tablePlants = "plants"

func (r repo) InsertPlant(ctx context.Context, p model.Plant) error {
	b := r.sb.Insert(tablePlants).Columns(plantColumns...).Values(
		p.ID, p.Name, nullStr(p.Species), nullStr(p.PotID),
		nullInt(p.WateringInterval), nullInt(p.FertilizingInterval),
		ms(p.CreatedAt), ms(p.UpdatedAt),
	)
	_, err := r.exec(ctx, b, "insert plant", tablePlants)
	return err
}

func (r repo) UpdatePlant(ctx context.Context, p model.Plant) error {
	b := r.sb.Update(tablePlants).SetMap(map[string]any{
		"name":                 p.Name,
		"species":              nullStr(p.Species),
		"pot_id":               nullStr(p.PotID),
		"watering_interval":    nullInt(p.WateringInterval),
		"fertilizing_interval": nullInt(p.FertilizingInterval),
		"updated_at":           ms(p.UpdatedAt),
	}).Where(sq.Eq{"id": p.ID})
	return r.execOne(ctx, b, "update plant", tablePlants)
}

func (r repo) GetPlant(ctx context.Context, id string) (model.Plant, error) {
	var row plantRow
	b := r.sb.Select(plantColumns...).From(tablePlants).Where(sq.Eq{"id": id})
	if err := r.get(ctx, &row, b, "get plant", tablePlants); err != nil {
		return model.Plant{}, err
	}
	return row.model(), nil
}

func (r repo) ListPlants(ctx context.Context, f PlantFilter) ([]model.Plant, error) {
	b := r.sb.Select(plantColumns...).From(tablePlants)
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		b = b.Where(sq.Or{
			sq.Like{"LOWER(name)": like},
			sq.Like{"LOWER(species)": like},
		})
	}
	col := "created_at"
	switch f.Sort {
	case SortByName:
		col = "name"
	case SortBySpecies:
		col = "species"
	}
	dir := " ASC"
	if f.Desc {
		dir = " DESC"
	}
	b = b.OrderBy(col+dir, "id ASC")

	var rows []plantRow
	if err := r.selectAll(ctx, &rows, b, "list plants", tablePlants); err != nil {
		return nil, err
	}
	out := make([]model.Plant, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r repo) DeletePlant(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, r.sb.Delete(tableReminders).Where(sq.Eq{"plant_id": id}), "delete plant", tableReminders); err != nil {
		return err
	}
	if _, err := r.exec(ctx, r.sb.Delete(tableCare).Where(sq.Eq{"plant_id": id}), "delete plant", tableCare); err != nil {
		return err
	}
	return r.execOne(ctx, r.sb.Delete(tablePlants).Where(sq.Eq{"id": id}), "delete plant", tablePlants)
}
