// Package pool runs independent tasks on a bounded set of goroutines with a
// deadline per task.
package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/semdiff/internal/errors"
	"github.com/rohankatakam/semdiff/internal/logging"
)

// DefaultTimeout bounds a single task when no timeout is configured
const DefaultTimeout = 120 * time.Second

// Task is one unit of work identified by a path
type Task[T any] struct {
	Path  string
	Input T
}

// Worker processes one task. It should return promptly once ctx is done.
type Worker[T, R any] func(ctx context.Context, task Task[T]) (R, error)

// Outcome classifies how a task ended
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeError   Outcome = "error"
	OutcomeTimeout Outcome = "timeout"
	OutcomePanic   Outcome = "panic"
)

// Result is the outcome of one task. Exactly one of Value or Err is meaningful.
type Result[R any] struct {
	Path    string
	Value   R
	Err     error
	Outcome Outcome
	Elapsed time.Duration
}

// Observer is notified as tasks start and finish. Calls may come from
// several goroutines at once.
type Observer interface {
	TaskStarted(path string)
	TaskFinished(path string, outcome Outcome, elapsed time.Duration)
}

type options struct {
	maxConcurrency int
	timeout        time.Duration
	observer       Observer
}

// Option configures RunAll
type Option func(*options)

// WithMaxConcurrency caps the number of tasks in flight. Values below one
// fall back to the number of CPUs.
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// WithTimeout sets the per-task deadline
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithObserver attaches an observer
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// RunAll runs every task and returns exactly one result per task, in
// completion order. Tasks are drawn in input order and a finished slot is
// refilled immediately. A task that outlives its deadline is abandoned with
// its context cancelled and reported as a timeout; a panicking task is
// reported as an error. Neither affects the other tasks.
func RunAll[T, R any](ctx context.Context, tasks []Task[T], worker Worker[T, R], opts ...Option) []Result[R] {
	o := options{
		maxConcurrency: runtime.NumCPU(),
		timeout:        DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	logging.Debug("running tasks", "tasks", len(tasks), "max_concurrency", o.maxConcurrency, "timeout", o.timeout)

	var (
		mu      sync.Mutex
		results = make([]Result[R], 0, len(tasks))
	)

	g := new(errgroup.Group)
	g.SetLimit(o.maxConcurrency)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if o.observer != nil {
				o.observer.TaskStarted(task.Path)
			}

			res := runOne(ctx, task, worker, o.timeout)

			if o.observer != nil {
				o.observer.TaskFinished(task.Path, res.Outcome, res.Elapsed)
			}
			if res.Err != nil {
				logging.Warn("task failed", "path", task.Path, "outcome", res.Outcome, "error", res.Err)
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

type completion[R any] struct {
	value    R
	err      error
	panicked bool
}

// runOne races the worker against the deadline
func runOne[T, R any](parent context.Context, task Task[T], worker Worker[T, R], timeout time.Duration) Result[R] {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	// buffered so an abandoned worker can still finish and exit
	done := make(chan completion[R], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion[R]{
					err:      errors.WorkerErrorf("worker panicked on %s: %v", task.Path, r),
					panicked: true,
				}
			}
		}()
		v, err := worker(ctx, task)
		done <- completion[R]{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	res := Result[R]{Path: task.Path}
	select {
	case c := <-done:
		res.Value, res.Err = c.value, c.err
		switch {
		case c.panicked:
			res.Outcome = OutcomePanic
		case c.err != nil:
			res.Outcome = OutcomeError
		default:
			res.Outcome = OutcomeOK
		}
	case <-timer.C:
		res.Err = errors.TimeoutError(task.Path, timeout)
		res.Outcome = OutcomeTimeout
	case <-parent.Done():
		res.Err = errors.WorkerError(fmt.Errorf("cancelled: %w", parent.Err()), task.Path)
		res.Outcome = OutcomeError
	}
	res.Elapsed = time.Since(start)
	return res
}
