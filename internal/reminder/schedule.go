package reminder

import (
	"time"

	"kratzbaum/internal/model"
)

// ResolveNextDue computes the next due instant for freq, counted from ref,
// at the wall-clock time at in ref's location.
//
// The date always moves forward by at least one day and the result never
// carries seconds. It never reads the clock.
func ResolveNextDue(freq model.Frequency, ref time.Time, at model.TimeOfDay) time.Time {
	return at.On(ref.AddDate(0, 0, dayOffset(freq, ref.Weekday())))
}

func dayOffset(freq model.Frequency, wd time.Weekday) int {
	switch freq.Kind {
	case model.FrequencyInterval:
		if freq.Every < 1 {
			return 1
		}
		return freq.Every
	case model.FrequencyWeekly:
		return 7
	case model.FrequencySpecificDays:
		if len(freq.Days) == 0 {
			return 1
		}
		set := make(map[time.Weekday]bool, len(freq.Days))
		for _, d := range freq.Days {
			set[d] = true
		}
		for d := 1; d <= 7; d++ {
			if set[time.Weekday((int(wd)+d)%7)] {
				return d
			}
		}
		return 1
	default:
		return 1
	}
}
