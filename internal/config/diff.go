package config

import (
	"reflect"
	"sort"
	"strings"

	logx "kratzbaum/pkg/logx"
)

// Change summarizes a reload for the log. Attrs never carry secrets
// (tokens, DSNs).
type Change struct {
	Sections []string
	Attrs    []logx.Field
	// RestartRequired lists changed sections that only apply on restart.
	RestartRequired []string
}

func (c Change) Empty() bool { return len(c.Sections) == 0 }

// SummarizeConfigChange compares two configs section by section.
func SummarizeConfigChange(oldCfg, newCfg *Config) Change {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var ch Change
	mark := func(section string, attrs ...logx.Field) {
		ch.Sections = append(ch.Sections, section)
		ch.Attrs = append(ch.Attrs, attrs...)
	}

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		mark("logging",
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	oldS, newS := oldCfg.Storage, newCfg.Storage
	if !strings.EqualFold(strings.TrimSpace(oldS.Driver), strings.TrimSpace(newS.Driver)) ||
		strings.TrimSpace(oldS.Path) != strings.TrimSpace(newS.Path) ||
		oldS.DSN != newS.DSN ||
		strings.TrimSpace(oldS.BusyTimeout) != strings.TrimSpace(newS.BusyTimeout) ||
		oldS.MaxOpenConns != newS.MaxOpenConns {
		mark("storage",
			logx.String("storage.driver", strings.TrimSpace(newS.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(newS.Path) != ""),
			logx.Bool("storage.dsn_set", strings.TrimSpace(newS.DSN) != ""),
		)
		ch.RestartRequired = append(ch.RestartRequired, "storage")
	}

	if oldCfg.Scheduler.Enabled != newCfg.Scheduler.Enabled ||
		strings.TrimSpace(oldCfg.Scheduler.Timezone) != strings.TrimSpace(newCfg.Scheduler.Timezone) {
		mark("scheduler",
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.String("scheduler.timezone", strings.TrimSpace(newCfg.Scheduler.Timezone)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Sweep, newCfg.Sweep) {
		mark("sweep",
			logx.String("sweep.schedule", newCfg.Sweep.Schedule),
			logx.String("sweep.cooldown", newCfg.Sweep.Cooldown),
			logx.String("sweep.timeout", newCfg.Sweep.Timeout),
		)
	}

	if oldCfg.Reminders != newCfg.Reminders {
		mark("reminders",
			logx.Int("reminders.default_snooze_hours", newCfg.Reminders.DefaultSnoozeHours),
			logx.Int("reminders.upcoming_days", newCfg.Reminders.UpcomingDays),
			logx.Bool("reminders.link_base_set", newCfg.Reminders.LinkBase != ""),
		)
		ch.RestartRequired = append(ch.RestartRequired, "reminders")
	}

	on, nn := derefNotifier(oldCfg.Notifier), derefNotifier(newCfg.Notifier)
	if !reflect.DeepEqual(on, nn) {
		mark("notifier",
			logx.Bool("notifier.enabled", nn.Enabled),
			logx.Int("notifier.rate_per_sec", nn.RatePerSec),
			logx.Int("notifier.retry_max", nn.RetryMax),
			logx.Bool("notifier.telegram", nn.Telegram.Enabled),
			logx.Bool("notifier.telegram_token_set", strings.TrimSpace(nn.Telegram.Token) != ""),
			logx.Bool("notifier.webhook", nn.Webhook.Enabled),
		)
		if on.Telegram != nn.Telegram || on.Webhook != nn.Webhook {
			ch.RestartRequired = append(ch.RestartRequired, "notifier.channels")
		}
	}

	oo, no := oldCfg.Ops, newCfg.Ops
	oo.Token, no.Token = tokenMarker(oo.Token), tokenMarker(no.Token)
	if oo != no {
		mark("ops",
			logx.Bool("ops.enabled", newCfg.Ops.Enabled),
			logx.String("ops.addr", strings.TrimSpace(newCfg.Ops.Addr)),
			logx.Bool("ops.token_set", strings.TrimSpace(newCfg.Ops.Token) != ""),
			logx.Bool("ops.pprof", newCfg.Ops.Pprof),
		)
	}

	if !reflect.DeepEqual(oldCfg.SettingsSeed, newCfg.SettingsSeed) {
		// Seeds apply only to an empty database.
		mark("settings_seed")
	}

	sort.Strings(ch.Sections)
	return ch
}

// derefNotifier treats an omitted section as enabled with no channels.
func derefNotifier(n *NotifierConfig) NotifierConfig {
	if n == nil {
		return NotifierConfig{Enabled: true}
	}
	return *n
}

// tokenMarker keeps token rotation visible without comparing secrets in logs.
func tokenMarker(tok string) string {
	if strings.TrimSpace(tok) == "" {
		return ""
	}
	return "set:" + tok
}
