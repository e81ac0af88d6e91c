package predict

import (
	"context"
	"errors"
	"sync"

	"github.com/matzehuels/nextstep/pkg/observability"
)

// ErrBusy is returned by synchronous runs while a run is in flight.
var ErrBusy = errors.New("run already in flight")

// Runner runs a function at most once at a time. A trigger that arrives
// during a run is deferred: when the run finishes exactly one more run
// starts, however many triggers arrived meanwhile.
type Runner struct {
	name string
	fn   func(context.Context)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	idle    *sync.Cond
	running bool
	pending bool
	closed  bool
}

// NewRunner creates a runner for fn. The name labels metrics.
func NewRunner(name string, fn func(context.Context)) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{name: name, fn: fn, ctx: ctx, cancel: cancel}
	r.idle = sync.NewCond(&r.mu)
	return r
}

// Trigger starts a run in the background, or defers one if a run is in
// flight. It never blocks. Triggers after Close are ignored.
func (r *Runner) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.running {
		if !r.pending {
			r.pending = true
			observability.Reconcile().OnRerunQueued(r.ctx, r.name)
		}
		return
	}
	r.running = true
	r.wg.Add(1)
	go r.loop()
}

// Exclusive runs fn in the calling goroutine under the runner's guard. It
// returns ErrBusy without calling fn if a run is in flight. Triggers that
// arrive while fn runs are deferred as usual.
func (r *Runner) Exclusive(ctx context.Context, fn func(context.Context)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return context.Canceled
	}
	if r.running {
		r.mu.Unlock()
		return ErrBusy
	}
	r.running = true
	r.wg.Add(1)
	r.mu.Unlock()

	ctx, stop := mergeCancel(ctx, r.ctx)
	fn(ctx)
	stop()

	r.mu.Lock()
	if r.pending && !r.closed {
		r.pending = false
		r.mu.Unlock()
		go r.loop()
		return nil
	}
	r.finish()
	r.mu.Unlock()
	return nil
}

// Busy reports whether a run is in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Wait blocks until no run is in flight and none is pending.
func (r *Runner) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.running {
		r.idle.Wait()
	}
}

// Close cancels the context of the in-flight run, drops any pending run and
// waits for the in-flight run to return.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.pending = false
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) loop() {
	for {
		r.fn(r.ctx)

		r.mu.Lock()
		if r.pending && !r.closed {
			r.pending = false
			r.mu.Unlock()
			continue
		}
		r.finish()
		r.mu.Unlock()
		return
	}
}

// finish marks the runner idle. Callers hold r.mu.
func (r *Runner) finish() {
	r.running = false
	r.idle.Broadcast()
	r.wg.Done()
}

// mergeCancel returns a context derived from ctx that is also cancelled
// when other is.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
