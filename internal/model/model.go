package model

import "time"

// ReminderType identifies which kind of care a reminder tracks.
type ReminderType string

const (
	ReminderWatering    ReminderType = "WATERING"
	ReminderFertilizing ReminderType = "FERTILIZING"
)

// ReminderTypes lists every reminder type in a stable order.
var ReminderTypes = []ReminderType{ReminderWatering, ReminderFertilizing}

func (t ReminderType) Valid() bool {
	return t == ReminderWatering || t == ReminderFertilizing
}

// CareType returns the care event type that satisfies this reminder.
func (t ReminderType) CareType() CareType {
	if t == ReminderFertilizing {
		return CareFertilized
	}
	return CareWatered
}

// Verb is the imperative used in notification texts ("water", "fertilize").
func (t ReminderType) Verb() string {
	if t == ReminderFertilizing {
		return "fertilize"
	}
	return "water"
}

// Gerund is the noun form used in notification texts ("watering", "fertilizing").
func (t ReminderType) Gerund() string {
	if t == ReminderFertilizing {
		return "fertilizing"
	}
	return "watering"
}

// CareType identifies a logged care action.
type CareType string

const (
	CareWatered    CareType = "WATERED"
	CareFertilized CareType = "FERTILIZED"
	CareRepotted   CareType = "REPOTTED"
)

func (t CareType) Valid() bool {
	return t == CareWatered || t == CareFertilized || t == CareRepotted
}

// ReminderType maps a care event to the reminder it reschedules.
// REPOTTED maps to nothing.
func (t CareType) ReminderType() (ReminderType, bool) {
	switch t {
	case CareWatered:
		return ReminderWatering, true
	case CareFertilized:
		return ReminderFertilizing, true
	default:
		return "", false
	}
}

type Plant struct {
	ID                  string
	Name                string
	Species             string
	PotID               string
	WateringInterval    *int
	FertilizingInterval *int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Override returns the per-plant interval for t, if set.
func (p Plant) Override(t ReminderType) *int {
	if t == ReminderFertilizing {
		return p.FertilizingInterval
	}
	return p.WateringInterval
}

type Pot struct {
	ID         string
	Name       string
	DiameterCM float64
	HeightCM   float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CareEvent struct {
	ID        string
	PlantID   string
	Type      CareType
	EventDate time.Time
	Notes     string
	CreatedAt time.Time
}

type Reminder struct {
	ID      string
	PlantID string
	Type    ReminderType

	Frequency     Frequency
	PreferredTime TimeOfDay
	// Custom marks a schedule edited by the user. Reconciliation keeps
	// Frequency and PreferredTime of custom rows.
	Custom   bool
	Enabled  bool
	Dormancy *Dormancy

	NextDue      time.Time
	LastNotified *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Settings is the singleton of global reminder defaults.
type Settings struct {
	DefaultWateringInterval    *int
	DefaultFertilizingInterval *int
	PreferredReminderTime      TimeOfDay
	UpdatedAt                  time.Time
}

// Default returns the global interval for t, if set.
func (s Settings) Default(t ReminderType) *int {
	if t == ReminderFertilizing {
		return s.DefaultFertilizingInterval
	}
	return s.DefaultWateringInterval
}

// Subscription is a notification target.
type Subscription struct {
	ID       string
	Channel  string
	Endpoint string
	P256dh   string
	Auth     string

	CreatedAt time.Time
}

// IntPtr is a small helper for optional interval fields.
func IntPtr(v int) *int { return &v }
