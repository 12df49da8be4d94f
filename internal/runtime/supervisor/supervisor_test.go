package supervisor

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func statsFor(t *testing.T, snap Snapshot, name string) Stats {
	t.Helper()
	for _, st := range snap.Goroutines {
		if st.Name == name {
			return st
		}
	}
	t.Fatalf("no stats for %q in %+v", name, snap.Goroutines)
	return Stats{}
}

func TestGoRecordsFirstError(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	boom := errors.New("boom")
	s.Go("sweep", func(context.Context) error { return boom })
	s.Go("quiet", func(context.Context) error { return nil })

	err := s.Wait(waitCtx(t))
	if !errors.Is(err, boom) {
		t.Fatalf("Wait = %v, want boom", err)
	}
	snap := s.Snapshot()
	if !strings.Contains(snap.FirstError, "sweep: boom") {
		t.Fatalf("FirstError = %q", snap.FirstError)
	}
	if st := statsFor(t, snap, "sweep"); st.Started != 1 || st.Active != 0 || st.LastErr == "" {
		t.Fatalf("sweep stats = %+v", st)
	}
	if st := statsFor(t, snap, "quiet"); st.LastErr != "" {
		t.Fatalf("quiet stats = %+v", st)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithCancelOnError(true))
	s.Go("broken", func(context.Context) error { panic("pot cracked") })
	s.Go("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := s.Wait(waitCtx(t))
	if err == nil || !strings.Contains(err.Error(), "pot cracked") {
		t.Fatalf("Wait = %v, want panic error", err)
	}
	if st := statsFor(t, s.Snapshot(), "broken"); st.Panics != 1 {
		t.Fatalf("panics = %d, want 1", st.Panics)
	}
	if s.Context().Err() == nil {
		t.Fatal("cancel-on-error did not cancel the shared context")
	}
}

func TestGoRestartUntilSuccess(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var calls atomic.Int32
	s.GoRestart("watch", func(context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("watcher broke")
		}
		return nil
	}, time.Millisecond, 5*time.Millisecond)

	if err := s.Wait(waitCtx(t)); err == nil {
		t.Fatal("first failure should be reported")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
	if st := statsFor(t, s.Snapshot(), "watch"); st.Restarts != 2 {
		t.Fatalf("restarts = %d, want 2", st.Restarts)
	}
}

func TestStopCancelsRestartLoop(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	started := make(chan struct{})
	s.GoRestart("watchdog", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, time.Millisecond, time.Millisecond)

	<-started
	if err := s.Stop(waitCtx(t)); err != nil {
		t.Fatalf("Stop = %v", err)
	}
	if st := statsFor(t, s.Snapshot(), "watchdog.restart"); st.Active != 0 {
		t.Fatalf("restart loop still active: %+v", st)
	}
}
