package eventbus

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kratzbaum/internal/metrics"
)

// Event carries a reminder, sweep, notifier or config change to whoever
// listens. Publish never blocks; a subscriber whose buffer is full misses
// the event and the drop is counted per topic.
type Event struct {
	Type string
	Time time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	// Subscribe receives every event whose Type starts with one of prefixes.
	// No prefixes means every event.
	Subscribe(buffer int, prefixes ...string) (ch <-chan Event, unsubscribe func())
}

const defaultBuffer = 8

// New returns an in-memory fanout bus. It owns no goroutines.
func New() Bus {
	b := &fanout{}
	b.listeners.Store(&[]*listener{})
	return b
}

// Nop discards everything. Subscriptions never fire.
func Nop() Bus { return nopBus{} }

// Topic is the part of an event type before its first dot.
func Topic(typ string) string {
	topic, _, _ := strings.Cut(typ, ".")
	return topic
}

type listener struct {
	mu       sync.Mutex
	ch       chan Event
	closed   bool
	prefixes []string
}

func (l *listener) matches(typ string) bool {
	if len(l.prefixes) == 0 {
		return true
	}
	for _, p := range l.prefixes {
		if strings.HasPrefix(typ, p) {
			return true
		}
	}
	return false
}

// offer hands e to the listener without waiting. It reports false when the
// buffer is full.
func (l *listener) offer(e Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return true
	}
	select {
	case l.ch <- e:
		return true
	default:
		return false
	}
}

func (l *listener) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
}

// fanout keeps an immutable listener slice that is swapped on every
// subscribe and unsubscribe, so Publish reads it without locking.
type fanout struct {
	writeMu   sync.Mutex
	listeners atomic.Pointer[[]*listener]
}

func (b *fanout) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	for _, l := range *b.listeners.Load() {
		if l.matches(e.Type) && !l.offer(e) {
			metrics.EventsDropped.WithLabelValues(Topic(e.Type)).Inc()
		}
	}
}

func (b *fanout) Subscribe(buffer int, prefixes ...string) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	l := &listener{ch: make(chan Event, buffer), prefixes: prefixes}

	b.writeMu.Lock()
	cur := *b.listeners.Load()
	next := make([]*listener, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, l)
	b.listeners.Store(&next)
	b.writeMu.Unlock()

	return l.ch, func() { b.remove(l) }
}

func (b *fanout) remove(l *listener) {
	b.writeMu.Lock()
	cur := *b.listeners.Load()
	next := make([]*listener, 0, len(cur))
	for _, x := range cur {
		if x != l {
			next = append(next, x)
		}
	}
	b.listeners.Store(&next)
	b.writeMu.Unlock()
	l.close()
}

type nopBus struct{}

func (nopBus) Publish(Event) {}

func (nopBus) Subscribe(int, ...string) (<-chan Event, func()) {
	ch := make(chan Event)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}
