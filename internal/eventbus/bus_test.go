package eventbus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kratzbaum/internal/metrics"
)

func recv(t *testing.T, ch <-chan Event) (Event, bool) {
	t.Helper()
	select {
	case e, ok := <-ch:
		return e, ok
	case <-time.After(100 * time.Millisecond):
		return Event{}, false
	}
}

func TestBus_PrefixFilter(t *testing.T) {
	b := New()
	all, unsubAll := b.Subscribe(4)
	defer unsubAll()
	rem, unsubRem := b.Subscribe(4, "reminder.")
	defer unsubRem()

	b.Publish(Event{Type: SweepCompleted})
	b.Publish(Event{Type: ReminderNotified, Data: "r1"})

	e, ok := recv(t, all)
	require.True(t, ok)
	assert.Equal(t, SweepCompleted, e.Type)
	assert.False(t, e.Time.IsZero())

	e, ok = recv(t, rem)
	require.True(t, ok)
	assert.Equal(t, ReminderNotified, e.Type)
	assert.Equal(t, "r1", e.Data)

	_, ok = recv(t, rem)
	assert.False(t, ok)
}

func TestBus_DropsWhenFull(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()
	dropped := metrics.EventsDropped.WithLabelValues("bustest")
	before := testutil.ToFloat64(dropped)

	b.Publish(Event{Type: "bustest.a"})
	b.Publish(Event{Type: "bustest.b"})

	e, ok := recv(t, ch)
	require.True(t, ok)
	assert.Equal(t, "bustest.a", e.Type)
	assert.Equal(t, before+1, testutil.ToFloat64(dropped))
}

func TestTopic(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{ReminderNotified, "reminder"},
		{SweepCompleted, "sweep"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.want, Topic(tt.typ))
		})
	}
}

func TestBus_UnsubscribeCloses(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
	assert.NotPanics(t, func() { b.Publish(Event{Type: "after"}) })
}

func TestNop(t *testing.T) {
	b := Nop()
	ch, unsub := b.Subscribe(1)
	b.Publish(Event{Type: "x"})
	unsub()
	_, ok := <-ch
	assert.False(t, ok)
}
