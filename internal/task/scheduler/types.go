package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"kratzbaum/internal/eventbus"
	logx "kratzbaum/pkg/logx"
)

// Config controls the scheduler service.
type Config struct {
	Enabled  bool
	Timezone string // IANA TZ, e.g. "Europe/Berlin"; empty means local
}

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Result of a single run.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultTimeout = "timeout"
	ResultPanic   = "panic"
	ResultSkipped = "skipped"
)

// runState is shared across re-registrations of the same name.
type runState struct {
	running atomic.Bool

	mu       sync.Mutex
	lastRun  time.Time
	lastTook time.Duration
	lastRes  string
	lastErr  string
	runs     uint64
	skipped  uint64
}

type scheduleDef struct {
	name          string
	spec          Spec
	timeout       time.Duration
	job           Job
	entryID       cron.EntryID
	startupSpread time.Duration
	state         *runState
}

type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config
	loc *time.Location
	bus eventbus.Bus

	c    *cron.Cron // nil while not triggering
	defs []scheduleDef

	// base is the parent of every run context. Non-nil between Start and
	// Stop; cancelled by Stop.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type ScheduleInfo struct {
	Name          string        `json:"name"`
	Spec          string        `json:"spec"`
	Timeout       time.Duration `json:"timeout"`
	StartupSpread time.Duration `json:"startup_spread,omitempty"`
	Next          time.Time     `json:"next,omitzero"`
	Prev          time.Time     `json:"prev,omitzero"`
	Running       bool          `json:"running"`
	Runs          uint64        `json:"runs"`
	Skipped       uint64        `json:"skipped"`
	LastRun       time.Time     `json:"last_run,omitzero"`
	LastResult    string        `json:"last_result,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	LastTook      time.Duration `json:"last_took,omitempty"`
}

type Snapshot struct {
	Enabled   bool           `json:"enabled"`
	Started   bool           `json:"started"`
	Timezone  string         `json:"timezone"`
	Schedules []ScheduleInfo `json:"schedules"`
}
