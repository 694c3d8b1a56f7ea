// Package loop provides the single-threaded scheduler screen controllers run on.
//
// Every function posted to a Loop runs on the loop goroutine, one at a time and to
// completion, so state owned by the loop is never touched concurrently. Blocking work
// is started with Go, which runs it on its own goroutine and posts the completion back.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.New("loop closed")

// Loop is a cooperative event loop.
type Loop struct {
	log *zap.Logger

	mu      sync.Mutex
	queue   []func()
	pending int           // queued tasks plus in-flight async calls
	idle    chan struct{} // closed whenever pending is zero
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// New starts a loop goroutine.
func New(log *zap.Logger) *Loop {
	idle := make(chan struct{})
	close(idle)

	l := &Loop{
		log:  log,
		idle: idle,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post queues fn to run on the loop. It reports false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.addPendingLocked(1)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return. It returns ErrClosed if the loop
// is closed before fn runs.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		// the loop goroutine has exited; fn either ran to completion or was dropped
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until no task is queued and no async call is in flight.
// Timers do not keep the loop busy.
func (l *Loop) Wait(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop. Queued tasks and the completions of in-flight calls are dropped.
// It is safe to call Close from a task running on the loop.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.queue = nil
	if l.pending > 0 {
		l.pending = 0
		close(l.idle)
	}
	l.mu.Unlock()

	close(l.stop)
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Go runs work on a new goroutine and posts done(result, err) back onto the loop.
// The call counts as pending until its completion has been queued.
func Go[T any](l *Loop, ctx context.Context, work func(context.Context) (T, error), done func(T, error)) {
	if !l.begin() {
		return
	}

	go func() {
		v, err := call(ctx, work)
		l.Post(func() { done(v, err) })
		l.end()
	}()
}

func call[T any](ctx context.Context, work func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("async call panicked: %v", r)
		}
	}()
	return work(ctx)
}

// Timer is a cancellable task scheduled with AfterFunc.
type Timer struct {
	t       *time.Timer
	stopped atomic.Bool
}

// AfterFunc schedules fn to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if tm.stopped.Load() {
				return
			}
			fn()
		})
	})
	return tm
}

// Stop cancels the timer. fn will not run after Stop returns, even if the timer has
// already fired and its task is queued. Stop on a nil Timer is a no-op.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.stopped.Store(true)
	t.t.Stop()
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		select {
		case <-l.stop:
			return
		case <-l.wake:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.exec(fn)
			l.end()
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("panic recovered in loop task", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

func (l *Loop) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.addPendingLocked(1)
	return true
}

func (l *Loop) end() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		l.addPendingLocked(-1)
	}
}

func (l *Loop) addPendingLocked(n int) {
	if l.pending == 0 && n > 0 {
		l.idle = make(chan struct{})
	}
	l.pending += n
	if l.pending == 0 {
		close(l.idle)
	}
}
