package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kratzbaum/internal/model"
)

func TestResolveNextDue(t *testing.T) {
	monday := utc(2024, 1, 15, 10, 0) // a Monday
	at := model.MustTimeOfDay("09:00")

	tests := []struct {
		name string
		freq model.Frequency
		ref  time.Time
		want time.Time
	}{
		{name: "interval", freq: model.Interval(3), ref: monday, want: utc(2024, 1, 18, 9, 0)},
		{name: "interval across month", freq: model.Interval(20), ref: monday, want: utc(2024, 2, 4, 9, 0)},
		{name: "interval below one", freq: model.Interval(0), ref: monday, want: utc(2024, 1, 16, 9, 0)},
		{name: "daily", freq: model.Daily(), ref: monday, want: utc(2024, 1, 16, 9, 0)},
		{name: "weekly", freq: model.Weekly(), ref: monday, want: utc(2024, 1, 22, 9, 0)},
		{name: "specific next day", freq: model.SpecificDays(time.Tuesday, time.Friday), ref: monday, want: utc(2024, 1, 16, 9, 0)},
		{name: "specific later in week", freq: model.SpecificDays(time.Friday), ref: monday, want: utc(2024, 1, 19, 9, 0)},
		{name: "specific same weekday", freq: model.SpecificDays(time.Monday), ref: monday, want: utc(2024, 1, 22, 9, 0)},
		{name: "specific wraps week", freq: model.SpecificDays(time.Sunday), ref: monday, want: utc(2024, 1, 21, 9, 0)},
		{name: "specific empty", freq: model.Frequency{Kind: model.FrequencySpecificDays}, ref: monday, want: utc(2024, 1, 16, 9, 0)},
		{name: "unknown kind", freq: model.Frequency{Kind: "HOURLY"}, ref: monday, want: utc(2024, 1, 16, 9, 0)},
		{name: "leap day", freq: model.Interval(1), ref: utc(2024, 2, 28, 23, 59), want: utc(2024, 2, 29, 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveNextDue(tt.freq, tt.ref, at)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestResolveNextDue_TimeOfDayProperty(t *testing.T) {
	times := []string{"00:00", "06:45", "09:00", "23:59"}
	freqs := []model.Frequency{
		model.Daily(), model.Weekly(), model.Interval(1), model.Interval(13),
		model.SpecificDays(time.Wednesday), model.SpecificDays(time.Sunday, time.Saturday),
	}
	ref := utc(2024, 3, 1, 17, 33).Add(42 * time.Second)
	for i := 0; i < 14; i++ {
		ref := ref.AddDate(0, 0, i)
		for _, f := range freqs {
			for _, raw := range times {
				at := model.MustTimeOfDay(raw)
				got := ResolveNextDue(f, ref, at)

				assert.Equal(t, at.Hour, got.Hour())
				assert.Equal(t, at.Minute, got.Minute())
				assert.Zero(t, got.Second())
				assert.Zero(t, got.Nanosecond())
				assert.True(t, got.After(ref))
			}
		}
	}
}

func TestResolveNextDue_SpecificDaysMinimumOffset(t *testing.T) {
	at := model.MustTimeOfDay("08:00")
	set := []time.Weekday{time.Monday, time.Thursday}
	for i := 0; i < 7; i++ {
		ref := utc(2024, 1, 14+i, 12, 0)
		got := ResolveNextDue(model.SpecificDays(set...), ref, at)
		days := int(got.Sub(at.On(ref)).Hours() / 24)

		assert.Contains(t, set, got.Weekday())
		assert.GreaterOrEqual(t, days, 1)
		for d := 1; d < days; d++ {
			assert.NotContains(t, set, ref.AddDate(0, 0, d).Weekday(), "offset %d from %s is not minimal", days, ref.Weekday())
		}
	}
}

func TestResolveNextDue_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ref := time.Date(2024, 1, 15, 23, 30, 0, 0, loc)
	got := ResolveNextDue(model.Interval(1), ref, model.MustTimeOfDay("07:00"))
	assert.Equal(t, time.Date(2024, 1, 16, 7, 0, 0, 0, loc), got)
}

func TestEffectiveInterval(t *testing.T) {
	tests := []struct {
		name     string
		override *int
		def      *int
		want     int
		ok       bool
	}{
		{name: "override wins", override: model.IntPtr(3), def: model.IntPtr(7), want: 3, ok: true},
		{name: "default", def: model.IntPtr(7), want: 7, ok: true},
		{name: "neither", ok: false},
		{name: "zero override falls back", override: model.IntPtr(0), def: model.IntPtr(5), want: 5, ok: true},
		{name: "zero default", def: model.IntPtr(0), ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := model.Plant{WateringInterval: tt.override, FertilizingInterval: model.IntPtr(99)}
			s := model.Settings{DefaultWateringInterval: tt.def}
			got, ok := EffectiveInterval(p, s, model.ReminderWatering)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := EffectiveInterval(model.Plant{FertilizingInterval: model.IntPtr(30)}, model.Settings{}, model.ReminderFertilizing)
	assert.True(t, ok)
	assert.Equal(t, 30, got)
}
