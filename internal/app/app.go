// Package app composes kratzbaum's components from a config file and runs
// the long-lived parts: the sweep schedule, config hot reload and the ops
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kratzbaum/internal/config"
	"kratzbaum/internal/eventbus"
	"kratzbaum/internal/garden"
	"kratzbaum/internal/notifier"
	"kratzbaum/internal/ops"
	"kratzbaum/internal/reminder"
	rtsup "kratzbaum/internal/runtime/supervisor"
	"kratzbaum/internal/storage"
	"kratzbaum/internal/task/scheduler"
	logx "kratzbaum/pkg/logx"
	"kratzbaum/pkg/systemd"
)

// SweepJob is the scheduler name of the due-reminder sweep.
const SweepJob = "reminder.sweep"

type App struct {
	cfgm *config.Manager

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store *storage.SQLStore
	clock reminder.Clock

	notif     *notifier.Service
	rec       *reminder.Reconciler
	reminders *reminder.Service
	garden    *garden.Service
	sched     *scheduler.Service
	ops       *ops.Service

	mu      sync.Mutex
	sweeper *reminder.Sweeper
	sweep   sweepPlan

	sup *rtsup.Supervisor
}

// Open loads cfgPath, opens storage and builds every component. Nothing
// runs in the background until Start.
func Open(ctx context.Context, cfgPath string) (*App, error) {
	bootLog := logx.NewConsole("INFO")
	bus := eventbus.New()

	cfgm := config.NewManager(cfgPath, bootLog, bus)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	cfgm.SetLogger(log)

	a := &App{
		cfgm:  cfgm,
		log:   log.With(logx.String("comp", "app")),
		logs:  logSvc,
		bus:   bus,
		clock: reminder.SystemClock{},
	}
	if err := a.build(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config) error {
	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return err
	}
	st, err := storage.Open(ctx, sc, a.log.With(logx.String("comp", "storage")))
	if err != nil {
		return err
	}
	a.store = st
	a.log.Debug("storage opened", logx.String("driver", sc.Driver))

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return err
	}
	disps, err := buildDispatchers(cfg)
	if err != nil {
		return err
	}
	a.notif = notifier.New(ncfg, a.log, a.bus, disps...)

	deps := reminder.Deps{
		Store: st,
		Clock: a.clock,
		Log:   a.log.With(logx.String("comp", "reminder")),
		Bus:   a.bus,
	}
	a.rec = reminder.NewReconciler(deps)
	a.reminders = reminder.NewService(deps, a.rec, mapReminderOptions(cfg))
	a.garden = garden.New(st, a.rec, a.clock, a.log.With(logx.String("comp", "garden")))

	plan, err := mapSweepConfig(cfg)
	if err != nil {
		return err
	}
	a.sweep = plan
	a.sweeper = reminder.NewSweeper(deps, a.notif.SingleShot(), plan.Options)

	a.sched = scheduler.New(mapSchedulerConfig(cfg), a.log, a.bus)

	ocfg, err := mapOpsConfig(cfg)
	if err != nil {
		return err
	}
	a.ops = ops.New(ocfg, ops.Sources{
		Health:    a.health,
		Schedules: func() any { return a.sched.Snapshot() },
		Workers: func() any {
			if a.sup == nil {
				return rtsup.Snapshot{}
			}
			return a.sup.Snapshot()
		},
	}, a.log)
	return nil
}

func (a *App) Config() *config.Config { return a.cfgm.Get() }
func (a *App) Log() logx.Logger { return a.log }
func (a *App) Bus() eventbus.Bus { return a.bus }
func (a *App) Store() storage.Store { return a.store }
func (a *App) Garden() *garden.Service { return a.garden }
func (a *App) Reminders() *reminder.Service { return a.reminders }
func (a *App) Reconciler() *reminder.Reconciler { return a.rec }
func (a *App) Notifier() *notifier.Service { return a.notif }
func (a *App) Scheduler() *scheduler.Service { return a.sched }
func (a *App) Ops() *ops.Service { return a.ops }

func (a *App) Sweeper() *reminder.Sweeper {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sweeper
}

// SeedSettings writes the configured settings seed when the database has
// no settings yet.
func (a *App) SeedSettings(ctx context.Context) error {
	seed, err := mapSettingsSeed(a.cfgm.Get())
	if err != nil {
		return err
	}
	_, created, err := a.garden.EnsureSettings(ctx, seed)
	if err != nil {
		return err
	}
	if created {
		a.log.Info("settings seeded", logx.String("preferred_reminder_time", seed.PreferredReminderTime.String()))
	}
	return nil
}

// Prepare seeds settings, then reconciles every plant so stored reminders
// match current rules.
func (a *App) Prepare(ctx context.Context) (reminder.Summary, error) {
	if err := a.SeedSettings(ctx); err != nil {
		return reminder.Summary{}, err
	}
	return a.rec.ReconcileAll(ctx)
}

// Start runs the sweep schedule, hot reload, the ops server and the
// systemd watchdog until ctx ends or Stop is called.
func (a *App) Start(ctx context.Context) error {
	if _, err := a.Prepare(ctx); err != nil {
		return fmt.Errorf("startup reconcile: %w", err)
	}

	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	a.cfgm.SetValidator(a.validate)

	if err := a.scheduleSweep(); err != nil {
		return err
	}
	a.sched.Start(a.sup.Context())

	if err := a.ops.Start(a.sup.Context()); err != nil {
		// Ops is optional; a bad bind is logged and retried on reload.
		a.log.Warn("ops server not started", logx.Err(err))
	}

	a.sup.GoRestart("config.watch", a.cfgm.Watch, time.Second, 30*time.Second)
	a.sup.Go("config.apply", a.applyLoop)
	a.sup.Go("eventbus.log", a.logEvents)
	a.sup.GoRestart("systemd.watchdog", systemd.Watchdog, time.Second, 30*time.Second)

	if ok, err := systemd.Ready(); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}
	a.log.Info("kratzbaum started",
		logx.String("sweep", a.sweep.Schedule),
		logx.Any("channels", a.notif.Channels()),
	)
	return nil
}

// Done is closed when the app stops or fails.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Stop stops background work and closes storage and logging.
func (a *App) Stop(ctx context.Context) error {
	_, _ = systemd.Stopping()
	var errs []error
	if a.sup != nil {
		a.sup.Cancel()
	}
	if a.sched != nil {
		a.sched.Stop(ctx)
	}
	if a.ops != nil {
		a.ops.Stop(ctx)
	}
	if a.sup != nil {
		if err := a.sup.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	}
	a.log.Info("kratzbaum stopped")
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases storage and log sinks without touching background work.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
		a.logs = nil
	}
	return errors.Join(errs...)
}

func (a *App) health(ctx context.Context) error {
	if a.store == nil {
		return errors.New("storage closed")
	}
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.store.DB().PingContext(pctx)
}

func (a *App) scheduleSweep() error {
	a.mu.Lock()
	plan, sw := a.sweep, a.sweeper
	a.mu.Unlock()
	return a.sched.AddSchedule(SweepJob, plan.Schedule, plan.Timeout, sw.Run)
}
