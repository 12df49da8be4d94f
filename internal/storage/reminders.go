package storage

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"kratzbaum/internal/model"
)

const tableReminders = "reminders"

const reminderUpsertSuffix = "ON CONFLICT (plant_id, reminder_type) DO UPDATE SET " +
	"frequency_kind = excluded.frequency_kind, " +
	"frequency_value = excluded.frequency_value, " +
	"specific_days = excluded.specific_days, " +
	"preferred_time = excluded.preferred_time, " +
	"custom = excluded.custom, " +
	"is_enabled = excluded.is_enabled, " +
	"dormant_start = excluded.dormant_start, " +
	"dormant_end = excluded.dormant_end, " +
	"next_due = excluded.next_due, " +
	"last_notified = excluded.last_notified, " +
	"updated_at = excluded.updated_at"

func (r repo) GetReminder(ctx context.Context, id string) (model.Reminder, error) {
	return r.getReminder(ctx, sq.Eq{"id": id})
}

func (r repo) GetReminderFor(ctx context.Context, plantID string, t model.ReminderType) (model.Reminder, error) {
	return r.getReminder(ctx, sq.Eq{"plant_id": plantID, "reminder_type": string(t)})
}

func (r repo) getReminder(ctx context.Context, where sq.Eq) (model.Reminder, error) {
	var row reminderRow
	b := r.sb.Select(reminderColumns...).From(tableReminders).Where(where)
	if err := r.get(ctx, &row, b, "get reminder", tableReminders); err != nil {
		return model.Reminder{}, err
	}
	rem, err := row.model()
	if err != nil {
		return model.Reminder{}, wrap(err, "get reminder", tableReminders)
	}
	return rem, nil
}

func (r repo) UpsertReminder(ctx context.Context, rem model.Reminder) error {
	b := r.sb.Insert(tableReminders).
		Columns(reminderColumns...).
		Values(reminderValues(rem)...).
		Suffix(reminderUpsertSuffix)
	_, err := r.exec(ctx, b, "upsert reminder", tableReminders)
	return err
}

func (r repo) DeleteReminder(ctx context.Context, id string) error {
	return r.execOne(ctx, r.sb.Delete(tableReminders).Where(sq.Eq{"id": id}), "delete reminder", tableReminders)
}

func (r repo) ListReminders(ctx context.Context, f ReminderFilter) ([]model.Reminder, error) {
	b := r.sb.Select(reminderColumns...).From(tableReminders)
	if f.PlantID != "" {
		b = b.Where(sq.Eq{"plant_id": f.PlantID})
	}
	if f.Type != "" {
		b = b.Where(sq.Eq{"reminder_type": string(f.Type)})
	}
	if f.EnabledOnly {
		b = b.Where(sq.Eq{"is_enabled": true})
	}
	if f.DueBefore != nil {
		b = b.Where(sq.LtOrEq{"next_due": ms(*f.DueBefore)})
	}
	b = b.OrderBy("next_due ASC", "id ASC")

	var rows []reminderRow
	if err := r.selectAll(ctx, &rows, b, "list reminders", tableReminders); err != nil {
		return nil, err
	}
	out := make([]model.Reminder, 0, len(rows))
	for _, row := range rows {
		rem, err := row.model()
		if err != nil {
			return nil, wrap(err, "list reminders", tableReminders)
		}
		out = append(out, rem)
	}
	return out, nil
}

// MarkNotified records a delivery. next_due is left as is.
func (r repo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	b := r.sb.Update(tableReminders).Set("last_notified", ms(at)).Where(sq.Eq{"id": id})
	return r.execOne(ctx, b, "mark notified", tableReminders)
}
