package scheduler

import (
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	logx "kratzbaum/pkg/logx"
)

// AddSchedule registers job under name; see ParseSpec for the accepted
// schedule forms. Registering an existing name replaces it and keeps its
// run statistics.
func (s *Service) AddSchedule(name, schedule string, timeout time.Duration, job Job) error {
	spec, err := ParseSpec(schedule)
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name required")
	}
	if job == nil {
		return errors.New("job required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	state := &runState{}
	for _, d := range s.defs {
		if d.name == name {
			state = d.state
		}
	}
	s.removeScheduleLocked(name)
	s.defs = append(s.defs, scheduleDef{name: name, spec: spec, timeout: timeout, job: job, state: state})
	if s.c == nil {
		return nil
	}
	d := &s.defs[len(s.defs)-1]
	if err := s.addCronLocked(d); err != nil {
		s.log.Error("schedule register failed", logx.String("name", name), logx.String("spec", spec.Cron), logx.Err(err))
		return err
	}
	s.log.Debug("schedule registered",
		logx.String("name", name),
		logx.String("spec", spec.Cron),
		logx.Duration("timeout", timeout),
		logx.Duration("startup_spread", d.startupSpread),
	)
	return nil
}

// Remove unschedules name. It reports whether something was removed.
func (s *Service) Remove(name string) bool {
	s.mu.Lock()
	removed := s.removeScheduleLocked(strings.TrimSpace(name))
	s.mu.Unlock()
	if removed {
		s.log.Debug("schedule removed", logx.String("name", name))
	}
	return removed
}

// removeScheduleLocked drops defs matching name. Call with s.mu held.
func (s *Service) removeScheduleLocked(name string) bool {
	if name == "" {
		return false
	}
	removed := false
	n := 0
	for _, d := range s.defs {
		if d.name == name {
			if s.c != nil && d.entryID != 0 {
				s.c.Remove(d.entryID)
			}
			removed = true
			continue
		}
		s.defs[n] = d
		n++
	}
	s.defs = s.defs[:n]
	return removed
}

func (s *Service) addCronLocked(d *scheduleDef) error {
	def := *d
	base := s.base
	job := cron.FuncJob(func() { s.fire(base, def) })

	if d.spec.Every > 0 {
		sched, offset := staggered(d.name, d.spec.Every, time.Now().In(s.loc))
		d.startupSpread = offset
		d.entryID = s.c.Schedule(sched, job)
		return nil
	}
	d.startupSpread = 0
	eid, err := s.c.AddJob(d.spec.Cron, job)
	if err == nil {
		d.entryID = eid
	}
	return err
}
