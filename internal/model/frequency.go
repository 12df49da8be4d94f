package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type FrequencyKind string

const (
	FrequencyDaily        FrequencyKind = "DAILY"
	FrequencyInterval     FrequencyKind = "INTERVAL"
	FrequencyWeekly       FrequencyKind = "WEEKLY"
	FrequencySpecificDays FrequencyKind = "SPECIFIC_DAYS"
)

// Frequency describes how often a reminder recurs.
//
// Days is only used by SPECIFIC_DAYS, Every only by INTERVAL.
type Frequency struct {
	Kind  FrequencyKind
	Every int
	Days  []time.Weekday
}

func Daily() Frequency         { return Frequency{Kind: FrequencyDaily} }
func Weekly() Frequency        { return Frequency{Kind: FrequencyWeekly} }
func Interval(n int) Frequency { return Frequency{Kind: FrequencyInterval, Every: n} }
func SpecificDays(days ...time.Weekday) Frequency {
	return Frequency{Kind: FrequencySpecificDays, Days: normalizeDays(days)}
}

// Equal compares two descriptors by value.
func (f Frequency) Equal(o Frequency) bool {
	if f.Kind != o.Kind || f.Every != o.Every {
		return false
	}
	a, b := normalizeDays(f.Days), normalizeDays(o.Days)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Validate rejects descriptors the resolver would have to clamp.
func (f Frequency) Validate() error {
	switch f.Kind {
	case FrequencyDaily, FrequencyWeekly:
		return nil
	case FrequencyInterval:
		if f.Every < 1 {
			return Invalid("frequency", "interval must be >= 1 day, got %d", f.Every)
		}
		return nil
	case FrequencySpecificDays:
		for _, d := range f.Days {
			if d < time.Sunday || d > time.Saturday {
				return Invalid("frequency", "invalid weekday %d", int(d))
			}
		}
		return nil
	default:
		return Invalid("frequency", "unknown kind %q", string(f.Kind))
	}
}

// String renders the descriptor in the form accepted by ParseFrequency.
func (f Frequency) String() string {
	switch f.Kind {
	case FrequencyInterval:
		return fmt.Sprintf("INTERVAL:%d", f.Every)
	case FrequencySpecificDays:
		names := make([]string, 0, len(f.Days))
		for _, d := range normalizeDays(f.Days) {
			names = append(names, strings.ToLower(d.String()[:3]))
		}
		return "SPECIFIC_DAYS:" + strings.Join(names, ",")
	default:
		return string(f.Kind)
	}
}

// ParseFrequency accepts "DAILY", "WEEKLY", "INTERVAL:n" and
// "SPECIFIC_DAYS:mon,wed" (weekday names or numbers, Sunday=0).
func ParseFrequency(raw string) (Frequency, error) {
	s := strings.TrimSpace(raw)
	kind, arg, _ := strings.Cut(s, ":")
	kind = strings.ToUpper(strings.TrimSpace(kind))
	arg = strings.TrimSpace(arg)

	var f Frequency
	switch FrequencyKind(kind) {
	case FrequencyDaily:
		f = Daily()
	case FrequencyWeekly:
		f = Weekly()
	case FrequencyInterval:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Frequency{}, Invalid("frequency", "invalid interval %q", arg)
		}
		f = Interval(n)
	case FrequencySpecificDays:
		days, err := ParseWeekdays(arg)
		if err != nil {
			return Frequency{}, err
		}
		f = SpecificDays(days...)
	default:
		return Frequency{}, Invalid("frequency", "unknown frequency %q", raw)
	}
	if err := f.Validate(); err != nil {
		return Frequency{}, err
	}
	return f, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekdays parses a comma-separated list of weekday names or numbers.
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []time.Weekday
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if len(p) >= 3 {
			if d, ok := weekdayNames[p[:3]]; ok {
				out = append(out, d)
				continue
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 6 {
			return nil, Invalid("days", "invalid weekday %q", p)
		}
		out = append(out, time.Weekday(n))
	}
	return normalizeDays(out), nil
}

// FormatWeekdays is the storage encoding of a weekday set ("1,3,5").
func FormatWeekdays(days []time.Weekday) string {
	days = normalizeDays(days)
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func normalizeDays(days []time.Weekday) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	seen := make(map[time.Weekday]struct{}, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dormancy is an inclusive month window, wrapping across the year end
// when Start > End (e.g. 11..2 covers Nov, Dec, Jan, Feb).
type Dormancy struct {
	Start time.Month
	End   time.Month
}

func (d Dormancy) Validate() error {
	if d.Start < time.January || d.Start > time.December {
		return Invalid("dormancy.start", "month must be 1..12, got %d", int(d.Start))
	}
	if d.End < time.January || d.End > time.December {
		return Invalid("dormancy.end", "month must be 1..12, got %d", int(d.End))
	}
	return nil
}

func (d Dormancy) Contains(m time.Month) bool {
	if d.Start <= d.End {
		return m >= d.Start && m <= d.End
	}
	return m >= d.Start || m <= d.End
}

func (d Dormancy) String() string { return fmt.Sprintf("%d-%d", int(d.Start), int(d.End)) }

// ParseDormancy parses "start-end" month numbers, e.g. "11-2".
func ParseDormancy(raw string) (Dormancy, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return Dormancy{}, Invalid("dormancy", "expected START-END months, got %q", raw)
	}
	s, err1 := strconv.Atoi(strings.TrimSpace(a))
	e, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil {
		return Dormancy{}, Invalid("dormancy", "expected START-END months, got %q", raw)
	}
	d := Dormancy{Start: time.Month(s), End: time.Month(e)}
	return d, d.Validate()
}
