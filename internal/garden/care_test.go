package garden

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kratzbaum/internal/model"
	"kratzbaum/internal/storage"
)

func TestLogCare(t *testing.T) {
	t.Parallel()

	t.Run("watering reschedules from the event", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.seed(t, model.IntPtr(3), nil)
		p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Pothos"})
		require.NoError(t, err)

		e.now = time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC)
		ev, err := e.svc.LogCare(e.ctx, CareInput{PlantID: p.ID, Type: model.CareWatered, Notes: " soaked "})
		require.NoError(t, err)
		assert.Equal(t, e.now, ev.EventDate, "event date defaults to now")
		assert.Equal(t, "soaked", ev.Notes)

		r, ok := e.reminderFor(t, p.ID, model.ReminderWatering)
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 23, 9, 0, 0, 0, time.UTC), r.NextDue)
	})

	t.Run("repotting leaves reminders alone", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.seed(t, model.IntPtr(3), nil)
		p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Pothos"})
		require.NoError(t, err)
		before, _ := e.reminderFor(t, p.ID, model.ReminderWatering)

		e.now = t0.Add(48 * time.Hour)
		_, err = e.svc.LogCare(e.ctx, CareInput{PlantID: p.ID, Type: model.CareRepotted})
		require.NoError(t, err)
		after, _ := e.reminderFor(t, p.ID, model.ReminderWatering)
		assert.Equal(t, before.NextDue, after.NextDue)
		assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	})

	t.Run("rejects", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		_, err := e.svc.LogCare(e.ctx, CareInput{PlantID: "p", Type: "PRUNED"})
		assert.ErrorIs(t, err, model.ErrValidation)
		_, err = e.svc.LogCare(e.ctx, CareInput{PlantID: "missing", Type: model.CareWatered})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestDeleteCareEvent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.seed(t, model.IntPtr(3), nil)
	p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Pothos"})
	require.NoError(t, err)
	other, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Other"})
	require.NoError(t, err)

	at := time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC)
	ev, err := e.svc.LogCare(e.ctx, CareInput{PlantID: p.ID, Type: model.CareWatered, EventDate: &at})
	require.NoError(t, err)
	r, _ := e.reminderFor(t, p.ID, model.ReminderWatering)
	require.Equal(t, time.Date(2024, 1, 19, 9, 0, 0, 0, time.UTC), r.NextDue)

	err = e.svc.DeleteCareEvent(e.ctx, other.ID, ev.ID)
	require.ErrorIs(t, err, model.ErrNotFound, "event belongs to another plant")

	require.NoError(t, e.svc.DeleteCareEvent(e.ctx, p.ID, ev.ID))
	r, _ = e.reminderFor(t, p.ID, model.ReminderWatering)
	assert.Equal(t, time.Date(2024, 1, 18, 9, 0, 0, 0, time.UTC), r.NextDue, "back to creation-based schedule")

	events, err := e.svc.ListCareEvents(e.ctx, storage.CareFilter{PlantID: p.ID})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListCareEvents(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Pothos"})
	require.NoError(t, err)
	for i, typ := range []model.CareType{model.CareWatered, model.CareFertilized, model.CareWatered} {
		at := t0.Add(time.Duration(i) * time.Hour)
		_, err := e.svc.LogCare(e.ctx, CareInput{PlantID: p.ID, Type: typ, EventDate: &at})
		require.NoError(t, err)
	}

	all, err := e.svc.ListCareEvents(e.ctx, storage.CareFilter{PlantID: p.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].EventDate.After(all[2].EventDate), "newest first")

	watered, err := e.svc.ListCareEvents(e.ctx, storage.CareFilter{PlantID: p.ID, Type: model.CareWatered, Limit: 1})
	require.NoError(t, err)
	require.Len(t, watered, 1)
	assert.Equal(t, t0.Add(2*time.Hour), watered[0].EventDate)

	_, err = e.svc.ListCareEvents(e.ctx, storage.CareFilter{Type: "MISTED"})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = e.svc.ListCareEvents(e.ctx, storage.CareFilter{PlantID: "missing"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}
