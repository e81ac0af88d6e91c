package predict

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nextstep/pkg/graph"
	pkgio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/observability"
)

// DefaultTimeout bounds a single predictor call.
const DefaultTimeout = 15 * time.Second

// Outcome reports one reconciliation cycle.
type Outcome struct {
	Matrix    string
	Evicted   []string         // Preview ids removed before the fetch
	Proposals int              // Proposals received, before filtering
	Filtered  int              // Proposals dropped by thresholds
	Merged    []string         // New preview ids
	Skipped   []graph.Proposal // Proposals whose predecessor was gone
	Analytics map[string]json.RawMessage
	Sent      []byte // Graph document sent; nil when previews are hidden
	Err       error  // Fetch or decode failure; nothing was merged
	Duration  time.Duration
}

// Reconciler keeps a graph's preview nodes in step with its confirmed nodes.
//
// Every confirmed change to the graph triggers a cycle: evict all previews,
// serialize the confirmed graph, ask the predictor, merge its proposals as
// new previews. At most one cycle runs at a time; triggers during a cycle
// collapse into one follow-up cycle.
type Reconciler struct {
	g         *graph.Graph
	predictor Predictor
	logger    *log.Logger
	timeout   time.Duration
	runner    *Runner
	unsub     func()
	marshal   func(any) ([]byte, error)

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Outcome)
	order  []int
	last   Outcome
}

// Option configures a [Reconciler].
type Option func(*Reconciler)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithTimeout bounds each predictor call.
func WithTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewReconciler attaches a reconciler to g. It does not run a cycle until
// triggered, either explicitly or by a confirmed change to g.
func NewReconciler(g *graph.Graph, p Predictor, opts ...Option) *Reconciler {
	r := &Reconciler{
		g:         g,
		predictor: p,
		logger:    log.New(io.Discard),
		timeout:   DefaultTimeout,
		marshal:   json.Marshal,
		subs:      make(map[int]func(Outcome)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.runner = NewRunner("reconcile", func(ctx context.Context) { r.cycle(ctx) })
	r.unsub = g.Subscribe(func(ev graph.Event) {
		if ev.Kind.ConfirmedChange() {
			r.runner.Trigger()
		}
	})
	return r
}

// Graph returns the reconciled graph.
func (r *Reconciler) Graph() *graph.Graph { return r.g }

// Trigger requests a cycle without waiting for it.
func (r *Reconciler) Trigger() { r.runner.Trigger() }

// Reconcile runs a cycle in the calling goroutine and returns its outcome.
// It returns [ErrBusy] if a cycle is in flight.
func (r *Reconciler) Reconcile(ctx context.Context) (Outcome, error) {
	var out Outcome
	err := r.runner.Exclusive(ctx, func(ctx context.Context) { out = r.cycle(ctx) })
	return out, err
}

// Busy reports whether a cycle is in flight.
func (r *Reconciler) Busy() bool { return r.runner.Busy() }

// Wait blocks until no cycle is in flight or pending.
func (r *Reconciler) Wait() { r.runner.Wait() }

// Last returns the outcome of the most recent cycle.
func (r *Reconciler) Last() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Close detaches from the graph, cancels the in-flight predictor call and
// waits for the cycle to end.
func (r *Reconciler) Close() {
	r.unsub()
	r.runner.Close()
}

// Subscribe registers fn for every cycle outcome. Observers run in the
// goroutine that ran the cycle, in registration order.
func (r *Reconciler) Subscribe(fn func(Outcome)) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.order = append(r.order, id)
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
		})
	}
}

func (r *Reconciler) cycle(ctx context.Context) Outcome {
	start := time.Now()
	settings := r.g.Settings()
	out := Outcome{Matrix: settings.Matrix}
	out.Evicted = r.g.EvictPreviews()

	if !settings.ShowPreview {
		out.Duration = time.Since(start)
		r.publish(out)
		return out
	}

	hooks := observability.Reconcile()
	snap := r.g.Snapshot()
	hooks.OnCycleStart(ctx, settings.Matrix, len(snap.Nodes))

	doc, err := r.marshal(pkgio.Encode(snap, pkgio.Options{}))
	if err != nil {
		return r.fail(ctx, out, start, "encode graph failed", err)
	}
	out.Sent = doc

	resp, err := r.fetch(ctx, doc, settings.Matrix)
	if err != nil {
		return r.fail(ctx, out, start, "prediction failed", err)
	}

	kept := Filter(resp.Proposals, settings)
	res := r.g.MergePreviews(kept, resp.DeletedKeys)

	out.Proposals = len(resp.Proposals)
	out.Filtered = len(resp.Proposals) - len(kept)
	out.Merged = res.Added
	out.Skipped = res.Skipped
	out.Analytics = resp.Analytics
	out.Duration = time.Since(start)

	r.logger.Debug("merged previews", "matrix", settings.Matrix, "count", len(res.Added),
		"skipped", len(res.Skipped), "filtered", out.Filtered, "took", out.Duration)
	hooks.OnCycleComplete(ctx, settings.Matrix, len(res.Added), out.Duration, nil)
	r.publish(out)
	return out
}

// fail ends a cycle that merged nothing.
func (r *Reconciler) fail(ctx context.Context, out Outcome, start time.Time, msg string, err error) Outcome {
	out.Err = err
	out.Duration = time.Since(start)
	r.logger.Warn(msg, "matrix", out.Matrix, "err", err)
	observability.Reconcile().OnCycleComplete(ctx, out.Matrix, 0, out.Duration, err)
	r.publish(out)
	return out
}

func (r *Reconciler) fetch(ctx context.Context, doc []byte, matrix string) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.predictor.Predict(ctx, Request{Graph: doc, Matrix: matrix})
}

func (r *Reconciler) publish(out Outcome) {
	r.mu.Lock()
	r.last = out
	fns := make([]func(Outcome), 0, len(r.order))
	live := r.order[:0]
	for _, id := range r.order {
		if fn, ok := r.subs[id]; ok {
			fns = append(fns, fn)
			live = append(live, id)
		}
	}
	r.order = live
	r.mu.Unlock()

	for _, fn := range fns {
		fn(out)
	}
}
