package storage

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"kratzbaum/internal/model"
)

const tableCare = "care_events"

func (r repo) InsertCareEvent(ctx context.Context, e model.CareEvent) error {
	b := r.sb.Insert(tableCare).Columns(careColumns...).Values(
		e.ID, e.PlantID, string(e.Type), ms(e.EventDate), nullStr(e.Notes), ms(e.CreatedAt),
	)
	_, err := r.exec(ctx, b, "insert care event", tableCare)
	return err
}

func (r repo) GetCareEvent(ctx context.Context, id string) (model.CareEvent, error) {
	var row careRow
	b := r.sb.Select(careColumns...).From(tableCare).Where(sq.Eq{"id": id})
	if err := r.get(ctx, &row, b, "get care event", tableCare); err != nil {
		return model.CareEvent{}, err
	}
	return row.model(), nil
}

func (r repo) DeleteCareEvent(ctx context.Context, id string) error {
	return r.execOne(ctx, r.sb.Delete(tableCare).Where(sq.Eq{"id": id}), "delete care event", tableCare)
}

// ListCareEvents returns events newest first.
func (r repo) ListCareEvents(ctx context.Context, f CareFilter) ([]model.CareEvent, error) {
	b := r.sb.Select(careColumns...).From(tableCare)
	if f.PlantID != "" {
		b = b.Where(sq.Eq{"plant_id": f.PlantID})
	}
	if f.Type != "" {
		b = b.Where(sq.Eq{"event_type": string(f.Type)})
	}
	b = b.OrderBy("event_date DESC", "id DESC")
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}

	var rows []careRow
	if err := r.selectAll(ctx, &rows, b, "list care events", tableCare); err != nil {
		return nil, err
	}
	out := make([]model.CareEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r repo) LatestCareEvent(ctx context.Context, plantID string, t model.CareType) (model.CareEvent, bool, error) {
	var row careRow
	b := r.sb.Select(careColumns...).From(tableCare).
		Where(sq.Eq{"plant_id": plantID, "event_type": string(t)}).
		OrderBy("event_date DESC", "id DESC").
		Limit(1)
	err := r.get(ctx, &row, b, "latest care event", tableCare)
	if errors.Is(err, model.ErrNotFound) {
		return model.CareEvent{}, false, nil
	}
	if err != nil {
		return model.CareEvent{}, false, err
	}
	return row.model(), true, nil
}
