package app

import (
	"context"
	"fmt"
	"strings"

	"kratzbaum/internal/config"
	logx "kratzbaum/pkg/logx"
)

// validate gates hot reloads. Fields that only take effect on restart are
// accepted but reported.
func (a *App) validate(_ context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := mapNotifierConfig(cfg); err != nil {
		return err
	}
	if _, err := mapOpsConfig(cfg); err != nil {
		return err
	}
	if _, err := mapSweepConfig(cfg); err != nil {
		return err
	}
	if _, err := mapSettingsSeed(cfg); err != nil {
		return err
	}
	return nil
}

// applyLoop fans committed configs out to the running components.
func (a *App) applyLoop(ctx context.Context) error {
	sub := a.cfgm.Subscribe(8)
	defer a.cfgm.Unsubscribe(sub)

	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return nil
		case next, ok := <-sub:
			if !ok {
				return nil
			}
			// Coalesce bursts: only the newest config matters.
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						next = newer
					}
				default:
					break drain
				}
			}
			a.apply(ctx, last, next)
			last = next
		}
	}
}

func (a *App) apply(ctx context.Context, prev, next *config.Config) {
	ch := config.SummarizeConfigChange(prev, next)
	if ch.Empty() {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(ch.Sections, ","))}, ch.Attrs...)
	a.log.Info("config change summary", fields...)
	if len(ch.RestartRequired) > 0 {
		a.log.Warn("some changes take effect after restart", logx.String("sections", strings.Join(ch.RestartRequired, ",")))
	}

	a.logs.Apply(mapLoggingConfig(next))

	if ncfg, err := mapNotifierConfig(next); err == nil {
		a.notif.Apply(ncfg)
	}

	a.reminders.SetOptions(mapReminderOptions(next))

	a.sched.Apply(mapSchedulerConfig(next))
	if plan, err := mapSweepConfig(next); err == nil {
		a.mu.Lock()
		changed := plan != a.sweep
		if changed {
			a.sweep = plan
			a.sweeper = a.sweeper.WithOptions(plan.Options)
		}
		a.mu.Unlock()
		if changed {
			if err := a.scheduleSweep(); err != nil {
				a.log.Error("sweep reschedule failed", logx.Err(err))
			} else {
				a.log.Info("sweep rescheduled", logx.String("schedule", plan.Schedule), logx.Duration("cooldown", plan.Options.Cooldown))
			}
		}
	}

	if ocfg, err := mapOpsConfig(next); err == nil {
		if err := a.ops.Reconfigure(ctx, ocfg); err != nil {
			a.log.Warn("ops reconfigure failed", logx.Err(err))
		}
	}
}

// logEvents mirrors bus traffic into the debug log.
func (a *App) logEvents(ctx context.Context) error {
	events, unsub := a.bus.Subscribe(128)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if !a.log.Enabled(logx.LevelDebug) {
				continue
			}
			a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time), logx.String("data", fmt.Sprintf("%+v", e.Data)))
		}
	}
}
