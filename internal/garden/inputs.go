package garden

import (
	"time"

	"kratzbaum/internal/model"
)

type PlantInput struct {
	Name                string `json:"name" validate:"required,max=100"`
	Species             string `json:"species" validate:"max=200"`
	PotID               string `json:"pot_id" validate:"omitempty,uuid"`
	WateringInterval    *int   `json:"watering_interval" validate:"omitempty,min=1,max=365"`
	FertilizingInterval *int   `json:"fertilizing_interval" validate:"omitempty,min=1,max=365"`
}

// PlantPatch is a partial plant update. A non-nil empty PotID unassigns the
// pot. The Clear flags unset an interval override.
type PlantPatch struct {
	Name                     *string `json:"name" validate:"omitempty,max=100"`
	Species                  *string `json:"species" validate:"omitempty,max=200"`
	PotID                    *string `json:"pot_id" validate:"omitempty,uuid"`
	WateringInterval         *int    `json:"watering_interval" validate:"omitempty,min=1,max=365"`
	ClearWateringInterval    bool    `json:"clear_watering_interval"`
	FertilizingInterval      *int    `json:"fertilizing_interval" validate:"omitempty,min=1,max=365"`
	ClearFertilizingInterval bool    `json:"clear_fertilizing_interval"`
}

type CareInput struct {
	PlantID string         `json:"plant_id" validate:"required"`
	Type    model.CareType `json:"event_type" validate:"required,oneof=WATERED FERTILIZED REPOTTED"`
	// EventDate defaults to now.
	EventDate *time.Time `json:"event_date"`
	Notes     string     `json:"notes" validate:"max=2000"`
}

type PotInput struct {
	Name       string  `json:"name" validate:"required,max=100"`
	DiameterCM float64 `json:"diameter_cm" validate:"min=0"`
	HeightCM   float64 `json:"height_cm" validate:"min=0"`
}

type PotPatch struct {
	Name       *string  `json:"name" validate:"omitempty,max=100"`
	DiameterCM *float64 `json:"diameter_cm" validate:"omitempty,min=0"`
	HeightCM   *float64 `json:"height_cm" validate:"omitempty,min=0"`
}

type SettingsPatch struct {
	DefaultWateringInterval         *int             `json:"default_watering_interval" validate:"omitempty,min=1,max=365"`
	ClearDefaultWateringInterval    bool             `json:"clear_default_watering_interval"`
	DefaultFertilizingInterval      *int             `json:"default_fertilizing_interval" validate:"omitempty,min=1,max=365"`
	ClearDefaultFertilizingInterval bool             `json:"clear_default_fertilizing_interval"`
	PreferredReminderTime           *model.TimeOfDay `json:"preferred_reminder_time"`
}

type SubscriptionInput struct {
	Channel  string `json:"channel" validate:"required,oneof=telegram webhook"`
	Endpoint string `json:"endpoint" validate:"required,max=2048"`
	P256dh   string `json:"p256dh" validate:"max=256"`
	Auth     string `json:"auth" validate:"max=256"`
}
