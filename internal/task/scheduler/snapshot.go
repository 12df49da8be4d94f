package scheduler

// Snapshot reports registered schedules with their run statistics and,
// while triggering, their next and previous fire times.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		Enabled:   s.cfg.Enabled,
		Started:   s.c != nil,
		Timezone:  s.cfg.Timezone,
		Schedules: make([]ScheduleInfo, 0, len(s.defs)),
	}
	if out.Timezone == "" {
		out.Timezone = s.loc.String()
	}
	for _, d := range s.defs {
		it := d.state.info()
		it.Name, it.Spec, it.Timeout, it.StartupSpread = d.name, d.spec.Cron, d.timeout, d.startupSpread
		if s.c != nil && d.entryID != 0 {
			e := s.c.Entry(d.entryID)
			it.Next, it.Prev = e.Next, e.Prev
		}
		out.Schedules = append(out.Schedules, it)
	}
	return out
}

func (r *runState) info() ScheduleInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ScheduleInfo{
		Running:    r.running.Load(),
		Runs:       r.runs,
		Skipped:    r.skipped,
		LastRun:    r.lastRun,
		LastResult: r.lastRes,
		LastError:  r.lastErr,
		LastTook:   r.lastTook,
	}
}
