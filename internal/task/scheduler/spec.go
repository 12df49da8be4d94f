package scheduler

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// specParser accepts 5-field and 6-field (with seconds) cron specs plus
// descriptors such as "@hourly" and "@every 60s".
var specParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// MinInterval is the shortest accepted "@every" interval.
const MinInterval = time.Second

// maxFirstDelay bounds how long an interval job waits for its first run.
const maxFirstDelay = 30 * time.Second

// Spec is a validated trigger. Every is set for fixed intervals.
type Spec struct {
	Cron  string
	Every time.Duration
}

func (s Spec) String() string { return s.Cron }

// ParseSpec validates raw. It accepts cron ("*/5 * * * *"), descriptors
// ("@daily", "@every 60s") and bare Go durations ("90s"), which become
// "@every" specs.
func ParseSpec(raw string) (Spec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Spec{}, errors.New("schedule required")
	}
	if _, err := time.ParseDuration(s); err == nil {
		s = "@every " + s
	}
	if rest, ok := strings.CutPrefix(s, "@every"); ok {
		every, err := time.ParseDuration(strings.TrimSpace(rest))
		if err != nil {
			return Spec{}, fmt.Errorf("invalid interval in %q: %w", raw, err)
		}
		if every < MinInterval {
			return Spec{}, fmt.Errorf("interval in %q must be at least %s", raw, MinInterval)
		}
		return Spec{Cron: s, Every: every}, nil
	}
	if _, err := specParser.Parse(s); err != nil {
		return Spec{}, fmt.Errorf("invalid cron %q: %w", raw, err)
	}
	return Spec{Cron: s}, nil
}

// delayedStart fires once at first, then follows base.
type delayedStart struct {
	base  cron.Schedule
	first time.Time
}

func (d *delayedStart) Next(t time.Time) time.Time {
	if t.Before(d.first) {
		return d.first
	}
	return d.base.Next(t)
}

// staggered returns the interval schedule for name. Its first run comes
// after an offset in [0, min(every, maxFirstDelay)) derived from name, so
// a restart neither waits a full interval nor fires every job at once.
func staggered(name string, every time.Duration, now time.Time) (cron.Schedule, time.Duration) {
	window := min(every, maxFirstDelay)
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	offset := time.Duration(h.Sum64() % uint64(window))
	return &delayedStart{base: cron.Every(every), first: now.Add(offset)}, offset
}
