// Package tasks runs delayed work that belongs to a dismissible owner, such
// as a modal dialog. Dismissing the owner cancels its pending work, and a
// cancelled task never applies its result.
package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/metrics"
)

// ErrCancelled is reported by tasks whose scope was cancelled before they committed.
var ErrCancelled = errors.New("task cancelled")

// Func performs the work of a task after its delay. The returned commit, if
// any, is applied only when the task has not been cancelled in the meantime.
type Func func(ctx context.Context) (commit func(), err error)

// Scope owns a set of running tasks.
type Scope struct {
	name string

	mu    sync.Mutex
	tasks map[*Task]struct{}
	wg    sync.WaitGroup
}

// NewScope returns an empty scope.
func NewScope(name string) *Scope {
	return &Scope{name: name, tasks: make(map[*Task]struct{})}
}

// Name identifies the scope in logs and metrics.
func (s *Scope) Name() string {
	return s.name
}

// Task is a handle to one scheduled unit of work.
type Task struct {
	scope     *Scope
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled bool
	err       error
}

// Go schedules fn to run after delay. The task keeps ctx's values but not its
// cancellation, so it outlives the request that scheduled it.
func (s *Scope) Go(ctx context.Context, delay time.Duration, fn Func) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &Task{scope: s, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.tasks[t] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(taskCtx, t, delay, fn)
	return t
}

func (s *Scope) run(ctx context.Context, t *Task, delay time.Duration, fn Func) {
	defer s.wg.Done()
	defer close(t.done)
	defer t.cancel()

	ctx, span := logging.StartSpan(ctx, s.name)
	defer span.End()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.settle(t, nil, ErrCancelled)
			return
		case <-timer.C:
		}
	}

	commit, err := fn(ctx)
	if err != nil {
		span.Fail(err)
	}
	s.settle(t, commit, err)
}

// settle records the outcome and applies commit while holding the scope lock,
// so Cancel either happens entirely before or entirely after it.
func (s *Scope) settle(t *Task, commit func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, t)
	switch {
	case t.cancelled:
		t.err = ErrCancelled
		metrics.TasksCancelled.WithLabelValues(s.name).Inc()
		return
	case err != nil:
		t.err = err
		return
	}
	if commit != nil {
		commit()
	}
}

// Cancel cancels every pending task of the scope. It must not be called
// while holding a lock that a commit acquires.
func (s *Scope) Cancel(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tasks)
	for t := range s.tasks {
		t.cancelled = true
		t.cancel()
		delete(s.tasks, t)
	}
	if n > 0 {
		logging.FromContext(ctx).Info("cancelled pending tasks", slog.String("scope", s.name), slog.Int("count", n))
	}
	return n
}

// Pending reports how many tasks have neither committed nor been cancelled.
func (s *Scope) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Wait blocks until every task started so far has returned.
func (s *Scope) Wait() {
	s.wg.Wait()
}

// Done is closed once the task has settled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles and returns nil, ErrCancelled, or the
// error returned by its Func.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	return t.err
}
