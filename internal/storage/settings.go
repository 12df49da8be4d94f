package storage

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"kratzbaum/internal/model"
)

const tableSettings = "settings"

// settingsID is the primary key of the single settings row.
const settingsID = 1

func (r repo) GetSettings(ctx context.Context) (model.Settings, error) {
	var row settingsRow
	b := r.sb.Select("id", "default_watering_interval", "default_fertilizing_interval", "preferred_reminder_time", "updated_at").
		From(tableSettings).
		Where(sq.Eq{"id": settingsID})
	if err := r.get(ctx, &row, b, "get settings", tableSettings); err != nil {
		return model.Settings{}, err
	}
	s, err := row.model()
	if err != nil {
		return model.Settings{}, wrap(err, "get settings", tableSettings)
	}
	return s, nil
}

func (r repo) PutSettings(ctx context.Context, s model.Settings) error {
	b := r.sb.Insert(tableSettings).
		Columns("id", "default_watering_interval", "default_fertilizing_interval", "preferred_reminder_time", "updated_at").
		Values(settingsID, nullInt(s.DefaultWateringInterval), nullInt(s.DefaultFertilizingInterval), s.PreferredReminderTime.String(), ms(s.UpdatedAt)).
		Suffix("ON CONFLICT (id) DO UPDATE SET " +
			"default_watering_interval = excluded.default_watering_interval, " +
			"default_fertilizing_interval = excluded.default_fertilizing_interval, " +
			"preferred_reminder_time = excluded.preferred_reminder_time, " +
			"updated_at = excluded.updated_at")
	_, err := r.exec(ctx, b, "put settings", tableSettings)
	return err
}
