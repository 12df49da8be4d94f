package app

import (
	"fmt"
	"strings"
	"time"

	"kratzbaum/internal/config"
	"kratzbaum/internal/model"
	"kratzbaum/internal/notifier"
	"kratzbaum/internal/ops"
	"kratzbaum/internal/reminder"
	"kratzbaum/internal/storage"
	"kratzbaum/internal/task/scheduler"
	logx "kratzbaum/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		JSON:    cfg.Logging.JSON,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		DebugRatePerSec: cfg.Logging.DebugRatePerSec,
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	sc := cfg.Storage
	busy, err := config.DurationOr("storage.busy_timeout", sc.BusyTimeout, time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:       strings.ToLower(strings.TrimSpace(sc.Driver)),
		Path:         strings.TrimSpace(sc.Path),
		DSN:          strings.TrimSpace(sc.DSN),
		BusyTimeout:  busy,
		MaxOpenConns: sc.MaxOpenConns,
	}, nil
}

func mapSchedulerConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{Enabled: cfg.Scheduler.Enabled, Timezone: cfg.Scheduler.Timezone}
}

// sweepPlan is the sweep's schedule plus the options the sweeper is built with.
type sweepPlan struct {
	Schedule string
	Timeout  time.Duration
	Options  reminder.SweepOptions
}

func mapSweepConfig(cfg *config.Config) (sweepPlan, error) {
	schedule := strings.TrimSpace(cfg.Sweep.Schedule)
	if schedule == "" {
		schedule = config.DefaultSweepSchedule
	}
	cooldown, err := config.DurationOr("sweep.cooldown", cfg.Sweep.Cooldown, config.DefaultSweepCooldown)
	if err != nil {
		return sweepPlan{}, err
	}
	timeout, err := config.DurationOr("sweep.timeout", cfg.Sweep.Timeout, config.DefaultSweepTimeout)
	if err != nil {
		return sweepPlan{}, err
	}
	return sweepPlan{
		Schedule: schedule,
		Timeout:  timeout,
		Options:  reminder.SweepOptions{Cooldown: cooldown, LinkBase: strings.TrimSpace(cfg.Reminders.LinkBase)},
	}, nil
}

func mapReminderOptions(cfg *config.Config) reminder.Options {
	return reminder.Options{
		DefaultSnoozeHours: cfg.Reminders.DefaultSnoozeHours,
		UpcomingDays:       cfg.Reminders.UpcomingDays,
	}
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	if cfg.Notifier == nil {
		return notifier.Config{}, nil
	}
	n := cfg.Notifier
	timeout, err := config.DurationOr("notifier.timeout", n.Timeout, 10*time.Second)
	if err != nil {
		return notifier.Config{}, err
	}
	retryBase, err := config.DurationOr("notifier.retry_base", n.RetryBase, 500*time.Millisecond)
	if err != nil {
		return notifier.Config{}, err
	}
	retryMaxDelay, err := config.DurationOr("notifier.retry_max_delay", n.RetryMaxDelay, 10*time.Second)
	if err != nil {
		return notifier.Config{}, err
	}
	openTimeout, err := config.DurationOr("notifier.breaker.open_timeout", n.Breaker.OpenTimeout, time.Minute)
	if err != nil {
		return notifier.Config{}, err
	}
	if n.Breaker.FailureThreshold < 0 || n.Breaker.HalfOpenRequests < 0 {
		return notifier.Config{}, fmt.Errorf("notifier.breaker: counts must be >= 0")
	}
	return notifier.Config{
		Enabled:       n.Enabled,
		RatePerSec:    n.RatePerSec,
		Timeout:       timeout,
		RetryMax:      n.RetryMax,
		RetryBase:     retryBase,
		RetryMaxDelay: retryMaxDelay,
		Breaker: notifier.BreakerConfig{
			FailureThreshold: uint32(n.Breaker.FailureThreshold),
			OpenTimeout:      openTimeout,
			HalfOpenRequests: uint32(n.Breaker.HalfOpenRequests),
		},
	}, nil
}

// buildDispatchers creates the dispatchers enabled in cfg. Dispatchers are
// built once at startup; changing their credentials needs a restart.
func buildDispatchers(cfg *config.Config) ([]notifier.Dispatcher, error) {
	if cfg.Notifier == nil {
		return nil, nil
	}
	n := cfg.Notifier
	timeout, err := config.DurationOr("notifier.timeout", n.Timeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	var out []notifier.Dispatcher
	if n.Telegram.Enabled {
		tg, err := notifier.NewTelegram(notifier.TelegramConfig{Token: n.Telegram.Token, Timeout: timeout, URL: n.Telegram.URL})
		if err != nil {
			return nil, fmt.Errorf("notifier.telegram: %w", err)
		}
		out = append(out, tg)
	}
	if n.Webhook.Enabled {
		wt, err := config.DurationOr("notifier.webhook.timeout", n.Webhook.Timeout, timeout)
		if err != nil {
			return nil, err
		}
		out = append(out, notifier.NewWebhook(notifier.WebhookConfig{Timeout: wt, UserAgent: n.Webhook.UserAgent}))
	}
	return out, nil
}

func mapOpsConfig(cfg *config.Config) (ops.Config, error) {
	o := cfg.Ops
	read, err := config.DurationOr("ops.read_timeout", o.ReadTimeout, 10*time.Second)
	if err != nil {
		return ops.Config{}, err
	}
	// 0 keeps long pprof profiles working.
	write, err := config.DurationOr("ops.write_timeout", o.WriteTimeout, 0)
	if err != nil {
		return ops.Config{}, err
	}
	idle, err := config.DurationOr("ops.idle_timeout", o.IdleTimeout, time.Minute)
	if err != nil {
		return ops.Config{}, err
	}
	return ops.Config{
		Enabled:              o.Enabled,
		Addr:                 strings.TrimSpace(o.Addr),
		Token:                strings.TrimSpace(o.Token),
		AllowInsecure:        o.AllowInsecure,
		Pprof:                o.Pprof,
		ReadTimeout:          read,
		WriteTimeout:         write,
		IdleTimeout:          idle,
		MutexProfileFraction: o.MutexProfileFraction,
		BlockProfileRate:     o.BlockProfileRate,
	}, nil
}

func mapSettingsSeed(cfg *config.Config) (model.Settings, error) {
	seed := model.Settings{
		DefaultWateringInterval:    cfg.SettingsSeed.DefaultWateringInterval,
		DefaultFertilizingInterval: cfg.SettingsSeed.DefaultFertilizingInterval,
		PreferredReminderTime:      model.DefaultReminderTime,
	}
	if raw := strings.TrimSpace(cfg.SettingsSeed.PreferredReminderTime); raw != "" {
		at, err := model.ParseTimeOfDay(raw)
		if err != nil {
			return model.Settings{}, fmt.Errorf("settings_seed.preferred_reminder_time: %w", err)
		}
		seed.PreferredReminderTime = at
	}
	return seed, nil
}
