package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"kratzbaum/internal/eventbus"
	logx "kratzbaum/pkg/logx"
)

func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if bus == nil {
		bus = eventbus.Nop()
	}
	return &Service{cfg: cfg, log: log, bus: bus, loc: time.Local}
}

// Enabled reports whether schedules trigger.
func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Apply swaps the config. Toggling Enabled starts or halts triggering on a
// started service; a timezone change re-registers every schedule.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cfg
	s.cfg = cfg
	if s.base == nil {
		return
	}
	tzChanged := strings.TrimSpace(prev.Timezone) != strings.TrimSpace(cfg.Timezone)
	switch {
	case !cfg.Enabled:
		s.haltLocked()
	case s.c == nil || tzChanged:
		s.haltLocked()
		s.runCronLocked()
	}
}

// Start makes the service live. Runs derive from ctx. With Enabled unset
// schedules stay registered but never fire until Apply enables them.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base != nil {
		return
	}
	s.base, s.cancel = context.WithCancel(ctx)
	if !s.cfg.Enabled {
		s.log.Info("scheduler disabled; schedules will not fire", logx.Int("schedules", len(s.defs)))
		return
	}
	s.runCronLocked()
}

// runCronLocked builds a cron in the configured zone and registers every
// definition on it.
func (s *Service) runCronLocked() {
	s.loc = s.locationLocked()
	s.c = cron.New(cron.WithParser(specParser), cron.WithLocation(s.loc))
	for i := range s.defs {
		if err := s.addCronLocked(&s.defs[i]); err != nil {
			s.log.Error("schedule register failed", logx.String("name", s.defs[i].name), logx.Err(err))
		}
	}
	s.c.Start()
	s.log.Info("scheduler running", logx.String("tz", s.loc.String()), logx.Int("schedules", len(s.defs)))
}

// haltLocked stops triggering. Runs already in flight continue.
func (s *Service) haltLocked() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
	for i := range s.defs {
		s.defs[i].entryID = 0
	}
}

// Stop halts triggering, cancels in-flight runs and waits for them until
// ctx expires. Definitions survive for the next Start.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()

	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.base, s.cancel = nil, nil, nil
	for i := range s.defs {
		s.defs[i].entryID = 0
	}
	s.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	if cancel != nil {
		cancel()
	}
	if !s.drain(ctx) {
		s.log.Warn("scheduler stop timed out with runs in flight")
	}
	s.log.Info("scheduler stopped", logx.Duration("took", time.Since(start)))
}

// drain waits for in-flight runs. It reports false if ctx ended first.
func (s *Service) drain(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Service) locationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("unknown timezone, falling back to local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
