package garden

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kratzbaum/internal/eventbus"
	"kratzbaum/internal/model"
	"kratzbaum/internal/reminder"
	"kratzbaum/internal/storage"
	logx "kratzbaum/pkg/logx"
)

var t0 = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

type env struct {
	ctx context.Context
	st  *storage.SQLStore
	bus eventbus.Bus
	svc *Service
	now time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st, err := storage.Open(context.Background(), storage.Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "garden.db"),
	}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	e := &env{ctx: context.Background(), st: st, bus: eventbus.New(), now: t0}
	clock := reminder.ClockFunc(func() time.Time { return e.now })
	rec := reminder.NewReconciler(reminder.Deps{Store: st, Clock: clock, Bus: e.bus})
	e.svc = New(st, rec, clock, logx.Nop())
	n := 0
	e.svc.newID = func() string {
		n++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
	}
	return e
}

func (e *env) seed(t *testing.T, water, fert *int) {
	t.Helper()
	_, created, err := e.svc.EnsureSettings(e.ctx, model.Settings{
		DefaultWateringInterval:    water,
		DefaultFertilizingInterval: fert,
		PreferredReminderTime:      model.DefaultReminderTime,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func (e *env) reminderFor(t *testing.T, plantID string, typ model.ReminderType) (model.Reminder, bool) {
	t.Helper()
	r, err := e.st.GetReminderFor(e.ctx, plantID, typ)
	if err != nil {
		require.ErrorIs(t, err, model.ErrNotFound)
		return model.Reminder{}, false
	}
	return r, true
}

func TestCreatePlant(t *testing.T) {
	t.Parallel()

	t.Run("schedules from creation time", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.seed(t, model.IntPtr(3), nil)

		p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "  Monstera ", Species: "M. deliciosa"})
		require.NoError(t, err)
		assert.Equal(t, "Monstera", p.Name)

		r, ok := e.reminderFor(t, p.ID, model.ReminderWatering)
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 18, 9, 0, 0, 0, time.UTC), r.NextDue)
		assert.True(t, r.Enabled)

		_, ok = e.reminderFor(t, p.ID, model.ReminderFertilizing)
		assert.False(t, ok, "no fertilizing interval anywhere")
	})

	t.Run("without settings still creates the plant", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Fern", WateringInterval: model.IntPtr(2)})
		require.NoError(t, err)
		_, ok := e.reminderFor(t, p.ID, model.ReminderWatering)
		assert.False(t, ok)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		tests := []struct {
			name string
			in   PlantInput
		}{
			{"empty name", PlantInput{Name: "   "}},
			{"interval zero", PlantInput{Name: "x", WateringInterval: model.IntPtr(0)}},
			{"interval too large", PlantInput{Name: "x", FertilizingInterval: model.IntPtr(366)}},
			{"bad pot id", PlantInput{Name: "x", PotID: "pot-1"}},
		}
		for _, tt := range tests {
			_, err := e.svc.CreatePlant(e.ctx, tt.in)
			assert.ErrorIs(t, err, model.ErrValidation, tt.name)
		}
	})

	t.Run("unknown pot", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		_, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "x", PotID: "9b2f6f0e-8d6a-4c57-9a43-0e5b7c7a1d11"})
		require.ErrorIs(t, err, model.ErrNotFound)
		plants, err := e.svc.ListPlants(e.ctx, storage.PlantFilter{})
		require.NoError(t, err)
		assert.Empty(t, plants, "rolled back")
	})
}

func TestUpdatePlant(t *testing.T) {
	t.Parallel()

	t.Run("override reschedules", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.seed(t, model.IntPtr(3), nil)
		p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Pilea"})
		require.NoError(t, err)

		events, unsubscribe := e.bus.Subscribe(8, "reminder.")
		defer unsubscribe()

		_, err = e.svc.UpdatePlant(e.ctx, p.ID, PlantPatch{WateringInterval: model.IntPtr(10)})
		require.NoError(t, err)
		r, ok := e.reminderFor(t, p.ID, model.ReminderWatering)
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 25, 9, 0, 0, 0, time.UTC), r.NextDue)

		select {
		case ev := <-events:
			assert.Equal(t, eventbus.ReminderUpdated, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("no reminder event")
		}
	})

	t.Run("clearing the last interval deletes the reminder", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.seed(t, nil, nil)
		p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Pilea", WateringInterval: model.IntPtr(4)})
		require.NoError(t, err)
		_, ok := e.reminderFor(t, p.ID, model.ReminderWatering)
		require.True(t, ok)

		got, err := e.svc.UpdatePlant(e.ctx, p.ID, PlantPatch{ClearWateringInterval: true})
		require.NoError(t, err)
		assert.Nil(t, got.WateringInterval)
		_, ok = e.reminderFor(t, p.ID, model.ReminderWatering)
		assert.False(t, ok)
	})

	t.Run("set and clear conflict", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		_, err := e.svc.UpdatePlant(e.ctx, "x", PlantPatch{WateringInterval: model.IntPtr(3), ClearWateringInterval: true})
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		blank := " "
		_, err := e.svc.UpdatePlant(e.ctx, "x", PlantPatch{Name: &blank})
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("missing plant", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		name := "y"
		_, err := e.svc.UpdatePlant(e.ctx, "missing", PlantPatch{Name: &name})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("pot assign and unassign", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		pot, err := e.svc.CreatePot(e.ctx, PotInput{Name: "Terracotta", DiameterCM: 14})
		require.NoError(t, err)
		p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Aloe"})
		require.NoError(t, err)

		p, err = e.svc.UpdatePlant(e.ctx, p.ID, PlantPatch{PotID: &pot.ID})
		require.NoError(t, err)
		assert.Equal(t, pot.ID, p.PotID)

		avail, err := e.svc.ListPots(e.ctx, true)
		require.NoError(t, err)
		assert.Empty(t, avail)

		none := ""
		p, err = e.svc.UpdatePlant(e.ctx, p.ID, PlantPatch{PotID: &none})
		require.NoError(t, err)
		assert.Empty(t, p.PotID)
	})
}

func TestGetAndDeletePlant(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.seed(t, model.IntPtr(7), model.IntPtr(30))
	pot, err := e.svc.CreatePot(e.ctx, PotInput{Name: "Blue"})
	require.NoError(t, err)
	p, err := e.svc.CreatePlant(e.ctx, PlantInput{Name: "Calathea", PotID: pot.ID})
	require.NoError(t, err)

	watered := time.Date(2024, 1, 14, 8, 0, 0, 0, time.UTC)
	_, err = e.svc.LogCare(e.ctx, CareInput{PlantID: p.ID, Type: model.CareWatered, EventDate: &watered})
	require.NoError(t, err)

	d, err := e.svc.GetPlant(e.ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, d.Pot)
	assert.Equal(t, "Blue", d.Pot.Name)
	require.NotNil(t, d.LastWatered)
	assert.Equal(t, watered, *d.LastWatered)
	assert.Nil(t, d.LastFertilized)
	assert.Nil(t, d.LastRepotted)

	require.NoError(t, e.svc.DeletePlant(e.ctx, p.ID))
	_, err = e.svc.GetPlant(e.ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	for _, typ := range model.ReminderTypes {
		_, ok := e.reminderFor(t, p.ID, typ)
		assert.False(t, ok, typ)
	}
	assert.ErrorIs(t, e.svc.DeletePlant(e.ctx, p.ID), model.ErrNotFound)
}

func TestListPlants(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	for _, in := range []PlantInput{
		{Name: "Ficus", Species: "F. lyrata"},
		{Name: "Aloe", Species: "A. vera"},
		{Name: "Monstera", Species: "M. deliciosa"},
	} {
		_, err := e.svc.CreatePlant(e.ctx, in)
		require.NoError(t, err)
	}

	names := func(ps []model.Plant) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	got, err := e.svc.ListPlants(e.ctx, storage.PlantFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Aloe", "Ficus", "Monstera"}, names(got))

	got, err = e.svc.ListPlants(e.ctx, storage.PlantFilter{Sort: storage.SortByName, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Monstera", "Ficus", "Aloe"}, names(got))

	got, err = e.svc.ListPlants(e.ctx, storage.PlantFilter{Search: "VERA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Aloe"}, names(got))

	_, err = e.svc.ListPlants(e.ctx, storage.PlantFilter{Sort: "height"})
	assert.ErrorIs(t, err, model.ErrValidation)
}
