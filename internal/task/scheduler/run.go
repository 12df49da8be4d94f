package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"kratzbaum/internal/eventbus"
	"kratzbaum/internal/metrics"
	logx "kratzbaum/pkg/logx"
)

// RunEvent is published on eventbus.JobFinished after every run.
type RunEvent struct {
	Name   string
	Result string
	Took   time.Duration
	Err    string
}

func (s *Service) fire(base context.Context, d scheduleDef) {
	if base == nil {
		base = context.Background()
	}
	if !d.state.running.CompareAndSwap(false, true) {
		d.state.mu.Lock()
		d.state.skipped++
		d.state.mu.Unlock()
		metrics.JobRunsTotal.WithLabelValues(d.name, ResultSkipped).Inc()
		s.log.Debug("job skipped, previous run in flight", logx.String("name", d.name))
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer d.state.running.Store(false)
		s.execute(base, d)
	}()
}

func (s *Service) execute(base context.Context, d scheduleDef) {
	ctx := base
	cancel := context.CancelFunc(func() {})
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(base, d.timeout)
	}
	defer cancel()

	start := time.Now()
	err := safeRun(ctx, d.job)
	took := time.Since(start)

	res := ResultOK
	var pe *panicError
	switch {
	case err == nil:
	case errors.As(err, &pe):
		res = ResultPanic
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil && base.Err() == nil:
		res = ResultTimeout
	default:
		res = ResultError
	}

	d.state.mu.Lock()
	d.state.runs++
	d.state.lastRun = start
	d.state.lastTook = took
	d.state.lastRes = res
	d.state.lastErr = ""
	if err != nil {
		d.state.lastErr = err.Error()
	}
	d.state.mu.Unlock()

	metrics.JobRunsTotal.WithLabelValues(d.name, res).Inc()
	ev := RunEvent{Name: d.name, Result: res, Took: took}
	if err != nil {
		ev.Err = err.Error()
		fields := []logx.Field{logx.String("name", d.name), logx.String("result", res), logx.Duration("took", took), logx.Err(err)}
		if pe != nil {
			fields = append(fields, logx.Stack(pe.stack))
		}
		s.log.Warn("job failed", fields...)
	} else {
		s.log.Debug("job finished", logx.String("name", d.name), logx.Duration("took", took))
	}
	s.bus.Publish(eventbus.Event{Type: eventbus.JobFinished, Time: time.Now(), Data: ev})
}

type panicError struct {
	value any
	stack string
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: string(debug.Stack())}
		}
	}()
	return job(ctx)
}
