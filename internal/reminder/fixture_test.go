package reminder

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kratzbaum/internal/eventbus"
	"kratzbaum/internal/model"
	"kratzbaum/internal/notifier"
	"kratzbaum/internal/storage"
	logx "kratzbaum/pkg/logx"
)

type fixture struct {
	t   *testing.T
	ctx context.Context
	st  *storage.SQLStore
	bus eventbus.Bus
	now time.Time
	d   Deps
	rec *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := storage.Open(context.Background(), storage.Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "reminders.db"),
	}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	f := &fixture{
		t:   t,
		ctx: context.Background(),
		st:  st,
		bus: eventbus.New(),
		now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	f.d = Deps{Store: st, Clock: ClockFunc(func() time.Time { return f.now }), Bus: f.bus}
	f.rec = NewReconciler(f.d)
	return f
}

func (f *fixture) settings(water, fert *int, at string) {
	f.t.Helper()
	require.NoError(f.t, f.st.PutSettings(f.ctx, model.Settings{
		DefaultWateringInterval:    water,
		DefaultFertilizingInterval: fert,
		PreferredReminderTime:      model.MustTimeOfDay(at),
		UpdatedAt:                  f.now,
	}))
}

func (f *fixture) plant(id string, created time.Time, water *int) model.Plant {
	f.t.Helper()
	p := model.Plant{ID: id, Name: "Plant " + id, WateringInterval: water, CreatedAt: created, UpdatedAt: created}
	require.NoError(f.t, f.st.InsertPlant(f.ctx, p))
	return p
}

func (f *fixture) care(id, plantID string, typ model.CareType, at time.Time) {
	f.t.Helper()
	require.NoError(f.t, f.st.InsertCareEvent(f.ctx, model.CareEvent{
		ID: id, PlantID: plantID, Type: typ, EventDate: at, CreatedAt: at,
	}))
}

func (f *fixture) reminder(plantID string, typ model.ReminderType) model.Reminder {
	f.t.Helper()
	r, err := f.st.GetReminderFor(f.ctx, plantID, typ)
	require.NoError(f.t, err)
	return r
}

func (f *fixture) subscribe(id, channel, endpoint string) {
	f.t.Helper()
	require.NoError(f.t, f.st.InsertSubscription(f.ctx, model.Subscription{
		ID: id, Channel: channel, Endpoint: endpoint, CreatedAt: f.now,
	}))
}

type delivery struct {
	target model.Subscription
	msg    notifier.Message
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []delivery
	fail  bool
}

func (r *recordingDispatcher) Deliver(_ context.Context, target model.Subscription, msg notifier.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, delivery{target: target, msg: msg})
	return !r.fail
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}
