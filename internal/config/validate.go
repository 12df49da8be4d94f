package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"kratzbaum/internal/model"
	"kratzbaum/internal/task/scheduler"
)

const (
	DefaultSweepSchedule = "@every 60s"
	DefaultSweepCooldown = 24 * time.Hour
	DefaultSweepTimeout  = 30 * time.Second
	DefaultOpsAddr       = "127.0.0.1:6060"
)

// Validate checks every field that the runtime would otherwise reject
// later. All problems are reported together.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	switch strings.ToUpper(strings.TrimSpace(c.Logging.Level)) {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		add(fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}

	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "sqlite", "sqlite3":
		if strings.TrimSpace(c.Storage.Path) == "" {
			add(errors.New("storage.path is required when storage.driver=sqlite"))
		}
	case "postgres", "postgresql", "pq":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			add(errors.New("storage.dsn is required when storage.driver=postgres"))
		}
	default:
		add(fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	_, err := Duration("storage.busy_timeout", c.Storage.BusyTimeout)
	add(err)
	if c.Storage.MaxOpenConns < 0 {
		add(errors.New("storage.max_open_conns must be >= 0"))
	}

	if tz := strings.TrimSpace(c.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			add(fmt.Errorf("scheduler.timezone: %w", err))
		}
	}
	if s := strings.TrimSpace(c.Sweep.Schedule); s != "" {
		if _, err := scheduler.ParseSpec(s); err != nil {
			add(fmt.Errorf("sweep.schedule: %w", err))
		}
	}
	_, err = Duration("sweep.cooldown", c.Sweep.Cooldown)
	add(err)
	_, err = Duration("sweep.timeout", c.Sweep.Timeout)
	add(err)

	if h := c.Reminders.DefaultSnoozeHours; h < 0 || h > 720 {
		add(errors.New("reminders.default_snooze_hours must be within 0..720"))
	}
	if d := c.Reminders.UpcomingDays; d < 0 || d > 365 {
		add(errors.New("reminders.upcoming_days must be within 0..365"))
	}

	if n := c.Notifier; n != nil {
		if n.RatePerSec < 0 || n.RetryMax < 0 || n.Breaker.FailureThreshold < 0 || n.Breaker.HalfOpenRequests < 0 {
			add(errors.New("notifier: counts must be >= 0"))
		}
		for path, raw := range map[string]string{
			"notifier.timeout":              n.Timeout,
			"notifier.retry_base":           n.RetryBase,
			"notifier.retry_max_delay":      n.RetryMaxDelay,
			"notifier.breaker.open_timeout": n.Breaker.OpenTimeout,
			"notifier.webhook.timeout":      n.Webhook.Timeout,
		} {
			_, err := Duration(path, raw)
			add(err)
		}
		if n.Telegram.Enabled && strings.TrimSpace(n.Telegram.Token) == "" {
			add(errors.New("notifier.telegram.token is required when telegram is enabled"))
		}
	}

	if c.Ops.Enabled {
		add(validateOps(c.Ops))
	}

	seed := c.SettingsSeed
	if s := strings.TrimSpace(seed.PreferredReminderTime); s != "" {
		if _, err := model.ParseTimeOfDay(s); err != nil {
			add(fmt.Errorf("settings_seed.preferred_reminder_time: %w", err))
		}
	}
	for path, v := range map[string]*int{
		"settings_seed.default_watering_interval":    seed.DefaultWateringInterval,
		"settings_seed.default_fertilizing_interval": seed.DefaultFertilizingInterval,
	} {
		if v != nil && (*v < 1 || *v > 365) {
			add(fmt.Errorf("%s must be within 1..365", path))
		}
	}

	return errors.Join(errs...)
}

func validateOps(o OpsConfig) error {
	addr := strings.TrimSpace(o.Addr)
	if addr == "" {
		addr = DefaultOpsAddr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("ops.addr: %w", err)
	}
	if !isLoopbackHost(host) && strings.TrimSpace(o.Token) == "" && !o.AllowInsecure {
		return fmt.Errorf("ops.addr %q is not loopback: set ops.token or ops.allow_insecure", addr)
	}
	for path, raw := range map[string]string{
		"ops.read_timeout":  o.ReadTimeout,
		"ops.write_timeout": o.WriteTimeout,
		"ops.idle_timeout":  o.IdleTimeout,
	} {
		if _, err := Duration(path, raw); err != nil {
			return err
		}
	}
	return nil
}

func isLoopbackHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
