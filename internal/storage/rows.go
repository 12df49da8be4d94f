package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"kratzbaum/internal/model"
)

func ms(t time.Time) int64 { return t.UnixMilli() }

func fromMS(v int64) time.Time { return time.UnixMilli(v).UTC() }

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ms(*t)
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

type plantRow struct {
	ID                  string         `db:"id"`
	Name                string         `db:"name"`
	Species             sql.NullString `db:"species"`
	PotID               sql.NullString `db:"pot_id"`
	WateringInterval    sql.NullInt64  `db:"watering_interval"`
	FertilizingInterval sql.NullInt64  `db:"fertilizing_interval"`
	CreatedAt           int64          `db:"created_at"`
	UpdatedAt           int64          `db:"updated_at"`
}

var plantColumns = []string{"id", "name", "species", "pot_id", "watering_interval", "fertilizing_interval", "created_at", "updated_at"}

func (r plantRow) model() model.Plant {
	return model.Plant{
		ID:                  r.ID,
		Name:                r.Name,
		Species:             r.Species.String,
		PotID:               r.PotID.String,
		WateringInterval:    intPtr(r.WateringInterval),
		FertilizingInterval: intPtr(r.FertilizingInterval),
		CreatedAt:           fromMS(r.CreatedAt),
		UpdatedAt:           fromMS(r.UpdatedAt),
	}
}

type potRow struct {
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	DiameterCM float64 `db:"diameter_cm"`
	HeightCM   float64 `db:"height_cm"`
	CreatedAt  int64   `db:"created_at"`
	UpdatedAt  int64   `db:"updated_at"`
}

var potColumns = []string{"id", "name", "diameter_cm", "height_cm", "created_at", "updated_at"}

func (r potRow) model() model.Pot {
	return model.Pot{
		ID:         r.ID,
		Name:       r.Name,
		DiameterCM: r.DiameterCM,
		HeightCM:   r.HeightCM,
		CreatedAt:  fromMS(r.CreatedAt),
		UpdatedAt:  fromMS(r.UpdatedAt),
	}
}

type careRow struct {
	ID        string         `db:"id"`
	PlantID   string         `db:"plant_id"`
	Type      string         `db:"event_type"`
	EventDate int64          `db:"event_date"`
	Notes     sql.NullString `db:"notes"`
	CreatedAt int64          `db:"created_at"`
}

var careColumns = []string{"id", "plant_id", "event_type", "event_date", "notes", "created_at"}

func (r careRow) model() model.CareEvent {
	return model.CareEvent{
		ID:        r.ID,
		PlantID:   r.PlantID,
		Type:      model.CareType(r.Type),
		EventDate: fromMS(r.EventDate),
		Notes:     r.Notes.String,
		CreatedAt: fromMS(r.CreatedAt),
	}
}

type reminderRow struct {
	ID             string        `db:"id"`
	PlantID        string        `db:"plant_id"`
	Type           string        `db:"reminder_type"`
	FrequencyKind  string        `db:"frequency_kind"`
	FrequencyValue int64         `db:"frequency_value"`
	SpecificDays   string        `db:"specific_days"`
	PreferredTime  string        `db:"preferred_time"`
	Custom         bool          `db:"custom"`
	Enabled        bool          `db:"is_enabled"`
	DormantStart   sql.NullInt64 `db:"dormant_start"`
	DormantEnd     sql.NullInt64 `db:"dormant_end"`
	NextDue        int64         `db:"next_due"`
	LastNotified   sql.NullInt64 `db:"last_notified"`
	CreatedAt      int64         `db:"created_at"`
	UpdatedAt      int64         `db:"updated_at"`
}

var reminderColumns = []string{
	"id", "plant_id", "reminder_type", "frequency_kind", "frequency_value", "specific_days",
	"preferred_time", "custom", "is_enabled", "dormant_start", "dormant_end",
	"next_due", "last_notified", "created_at", "updated_at",
}

func (r reminderRow) model() (model.Reminder, error) {
	at, err := model.ParseTimeOfDay(r.PreferredTime)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("reminder %s: preferred_time: %w", r.ID, err)
	}
	days, err := model.ParseWeekdays(r.SpecificDays)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("reminder %s: specific_days: %w", r.ID, err)
	}
	out := model.Reminder{
		ID:            r.ID,
		PlantID:       r.PlantID,
		Type:          model.ReminderType(r.Type),
		Frequency:     model.Frequency{Kind: model.FrequencyKind(r.FrequencyKind), Every: int(r.FrequencyValue), Days: days},
		PreferredTime: at,
		Custom:        r.Custom,
		Enabled:       r.Enabled,
		NextDue:       fromMS(r.NextDue),
		CreatedAt:     fromMS(r.CreatedAt),
		UpdatedAt:     fromMS(r.UpdatedAt),
	}
	if r.DormantStart.Valid && r.DormantEnd.Valid {
		out.Dormancy = &model.Dormancy{Start: time.Month(r.DormantStart.Int64), End: time.Month(r.DormantEnd.Int64)}
	}
	if r.LastNotified.Valid {
		t := fromMS(r.LastNotified.Int64)
		out.LastNotified = &t
	}
	return out, nil
}

func reminderValues(r model.Reminder) []any {
	var ds, de any
	if r.Dormancy != nil {
		ds, de = int(r.Dormancy.Start), int(r.Dormancy.End)
	}
	return []any{
		r.ID, r.PlantID, string(r.Type), string(r.Frequency.Kind), r.Frequency.Every,
		model.FormatWeekdays(r.Frequency.Days), r.PreferredTime.String(), r.Custom, r.Enabled,
		ds, de, ms(r.NextDue), nullTime(r.LastNotified), ms(r.CreatedAt), ms(r.UpdatedAt),
	}
}

type settingsRow struct {
	ID                         int64         `db:"id"`
	DefaultWateringInterval    sql.NullInt64 `db:"default_watering_interval"`
	DefaultFertilizingInterval sql.NullInt64 `db:"default_fertilizing_interval"`
	PreferredReminderTime      string        `db:"preferred_reminder_time"`
	UpdatedAt                  int64         `db:"updated_at"`
}

func (r settingsRow) model() (model.Settings, error) {
	at, err := model.ParseTimeOfDay(r.PreferredReminderTime)
	if err != nil {
		return model.Settings{}, fmt.Errorf("settings: preferred_reminder_time: %w", err)
	}
	return model.Settings{
		DefaultWateringInterval:    intPtr(r.DefaultWateringInterval),
		DefaultFertilizingInterval: intPtr(r.DefaultFertilizingInterval),
		PreferredReminderTime:      at,
		UpdatedAt:                  fromMS(r.UpdatedAt),
	}, nil
}

type subscriptionRow struct {
	ID        string         `db:"id"`
	Channel   string         `db:"channel"`
	Endpoint  string         `db:"endpoint"`
	P256dh    sql.NullString `db:"p256dh_key"`
	Auth      sql.NullString `db:"auth_key"`
	CreatedAt int64          `db:"created_at"`
}

var subscriptionColumns = []string{"id", "channel", "endpoint", "p256dh_key", "auth_key", "created_at"}

func (r subscriptionRow) model() model.Subscription {
	return model.Subscription{
		ID:        r.ID,
		Channel:   r.Channel,
		Endpoint:  r.Endpoint,
		P256dh:    r.P256dh.String,
		Auth:      r.Auth.String,
		CreatedAt: fromMS(r.CreatedAt),
	}
}
