package storage

import (
	"context"
	"time"

	"kratzbaum/internal/model"
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": embedded SQLite database file (default)
//   - "postgres": PostgreSQL via DSN
type Config struct {
	Driver       string
	Path         string
	DSN          string
	BusyTimeout  time.Duration // sqlite only; 0 means default
	MaxOpenConns int           // postgres only
}

// Store is a Repo bound to the database plus transactional scoping.
//
// Within WithTx, only the Repo passed to fn may be used. SQLite runs on a
// single connection, so touching the Store itself inside fn blocks.
type Store interface {
	Repo
	WithTx(ctx context.Context, fn func(Repo) error) error
	Close() error
}

// Repo is the CRUD and query surface over every persisted entity.
//
// Lookups of absent rows return an error matching model.ErrNotFound.
// Unique violations match model.ErrConflict.
type Repo interface {
	InsertPlant(ctx context.Context, p model.Plant) error
	UpdatePlant(ctx context.Context, p model.Plant) error
	GetPlant(ctx context.Context, id string) (model.Plant, error)
	ListPlants(ctx context.Context, f PlantFilter) ([]model.Plant, error)
	// DeletePlant removes the plant with its reminders and care events.
	DeletePlant(ctx context.Context, id string) error

	InsertPot(ctx context.Context, p model.Pot) error
	UpdatePot(ctx context.Context, p model.Pot) error
	GetPot(ctx context.Context, id string) (model.Pot, error)
	ListPots(ctx context.Context, availableOnly bool) ([]model.Pot, error)
	// DeletePot unassigns the pot from its plant before removing it.
	DeletePot(ctx context.Context, id string) error

	InsertCareEvent(ctx context.Context, e model.CareEvent) error
	GetCareEvent(ctx context.Context, id string) (model.CareEvent, error)
	DeleteCareEvent(ctx context.Context, id string) error
	ListCareEvents(ctx context.Context, f CareFilter) ([]model.CareEvent, error)
	// LatestCareEvent returns the newest event of type t by event date,
	// ties broken by id. ok is false when the plant has none.
	LatestCareEvent(ctx context.Context, plantID string, t model.CareType) (e model.CareEvent, ok bool, err error)

	GetSettings(ctx context.Context) (model.Settings, error)
	PutSettings(ctx context.Context, s model.Settings) error

	GetReminder(ctx context.Context, id string) (model.Reminder, error)
	GetReminderFor(ctx context.Context, plantID string, t model.ReminderType) (model.Reminder, error)
	// UpsertReminder writes r keyed by (plant_id, reminder_type).
	UpsertReminder(ctx context.Context, r model.Reminder) error
	DeleteReminder(ctx context.Context, id string) error
	ListReminders(ctx context.Context, f ReminderFilter) ([]model.Reminder, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error

	InsertSubscription(ctx context.Context, s model.Subscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
}

type PlantSort string

const (
	SortByName      PlantSort = "name"
	SortBySpecies   PlantSort = "species"
	SortByCreatedAt PlantSort = "created_at"
)

type PlantFilter struct {
	Search string
	Sort   PlantSort
	Desc   bool
}

type CareFilter struct {
	PlantID string
	Type    model.CareType
	Limit   uint64
}

// ReminderFilter narrows ListReminders. Results are ordered by next_due.
type ReminderFilter struct {
	PlantID     string
	Type        model.ReminderType
	EnabledOnly bool
	DueBefore   *time.Time // next_due <= DueBefore
}
