package config

// Config is the on-disk configuration (JSON or YAML).
//
// Durations are Go duration strings ("500ms", "24h") or whole days ("2d").
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Sweep     SweepConfig     `json:"sweep"`
	Reminders RemindersConfig `json:"reminders"`

	// Notifier may be omitted; it then defaults to enabled with no channels.
	Notifier *NotifierConfig `json:"notifier,omitempty"`
	Ops      OpsConfig       `json:"ops,omitempty"`

	// SettingsSeed is written once when the database has no settings row.
	SettingsSeed SettingsSeedConfig `json:"settings_seed"`
}

type LoggingConfig struct {
	Level           string      `json:"level"`
	Console         bool        `json:"console"`
	JSON            bool        `json:"json,omitempty"`
	File            LoggingFile `json:"file"`
	DebugRatePerSec int         `json:"debug_rate_per_sec,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig selects the database. Changes need a restart.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/kratzbaum.db" }
type StorageConfig struct {
	Driver       string `json:"driver"`
	Path         string `json:"path,omitempty"`
	DSN          string `json:"dsn,omitempty"`          // postgres; never logged
	BusyTimeout  string `json:"busy_timeout,omitempty"` // sqlite
	MaxOpenConns int    `json:"max_open_conns,omitempty"`
}

type SchedulerConfig struct {
	Enabled bool `json:"enabled"`
	// Trigger timezone.
	Timezone string `json:"timezone,omitempty"`
}

// SweepConfig controls the periodic due-reminder sweep.
//
// Defaults: schedule "@every 60s", cooldown "24h", timeout "30s".
type SweepConfig struct {
	Schedule string `json:"schedule,omitempty"`
	Cooldown string `json:"cooldown,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

type RemindersConfig struct {
	DefaultSnoozeHours int `json:"default_snooze_hours,omitempty"`
	UpcomingDays       int `json:"upcoming_days,omitempty"`
	// LinkBase prefixes the plant link in messages, e.g. "https://plants.example".
	LinkBase string `json:"link_base,omitempty"`
}

// NotifierConfig controls delivery to subscriptions.
//
// Defaults (when fields are omitted/zero):
//   - rate_per_sec: 5
//   - timeout: "10s" (per attempt)
//   - retry_max: 0
//   - breaker.failure_threshold: 5
//   - breaker.open_timeout: "1m"
type NotifierConfig struct {
	Enabled       bool           `json:"enabled"`
	RatePerSec    int            `json:"rate_per_sec,omitempty"`
	Timeout       string         `json:"timeout,omitempty"`
	RetryMax      int            `json:"retry_max,omitempty"`
	RetryBase     string         `json:"retry_base,omitempty"`
	RetryMaxDelay string         `json:"retry_max_delay,omitempty"`
	Breaker       BreakerConfig  `json:"breaker,omitempty"`
	Telegram      TelegramConfig `json:"telegram,omitempty"`
	Webhook       WebhookConfig  `json:"webhook,omitempty"`
}

type BreakerConfig struct {
	FailureThreshold int    `json:"failure_threshold,omitempty"`
	OpenTimeout      string `json:"open_timeout,omitempty"`
	HalfOpenRequests int    `json:"half_open_requests,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"` // never logged
	// URL overrides the Bot API endpoint.
	URL string `json:"url,omitempty"`
}

type WebhookConfig struct {
	Enabled   bool   `json:"enabled"`
	Timeout   string `json:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// OpsConfig controls the optional ops HTTP server (/healthz, /metrics,
// /schedules and pprof).
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:6060").
//   - If you bind to a non-loopback address, set a token or explicitly allow_insecure.
type OpsConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`  // default: "127.0.0.1:6060"
	Token         string `json:"token,omitempty"` // optional bearer token (do not log)
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
	Pprof         bool   `json:"pprof,omitempty"`

	// Server timeouts. WriteTimeout defaults to 0 (disabled) so
	// /debug/pprof/profile (30s+) works reliably.
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`

	// Runtime profiling rates. Leave 0 to keep Go defaults.
	MutexProfileFraction int `json:"mutex_profile_fraction,omitempty"`
	BlockProfileRate     int `json:"block_profile_rate,omitempty"`
}

type SettingsSeedConfig struct {
	PreferredReminderTime      string `json:"preferred_reminder_time,omitempty"` // HH:MM, default "09:00"
	DefaultWateringInterval    *int   `json:"default_watering_interval,omitempty"`
	DefaultFertilizingInterval *int   `json:"default_fertilizing_interval,omitempty"`
}
