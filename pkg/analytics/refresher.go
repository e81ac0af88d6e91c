package analytics

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nextstep/pkg/cache"
	"github.com/matzehuels/nextstep/pkg/integrations/backend"
	"github.com/matzehuels/nextstep/pkg/observability"
	"github.com/matzehuels/nextstep/pkg/predict"
)

// Source computes analytics for the graph last sent to the backend.
// [*backend.Client] implements it.
type Source interface {
	Variants(ctx context.Context) (backend.Variants, error)
	Metrics(ctx context.Context) (backend.Metrics, error)
	Fitness(ctx context.Context) (backend.Fitness, error)
}

// Report is the latest analytics state. Fields keep their previous value
// when a refresh fails; the failure is in the matching error field.
type Report struct {
	Matrix   string
	Variants backend.Variants
	Metrics  backend.Metrics
	Fitness  *float64 // Nil until a fitness run succeeds

	StatsErr   error
	FitnessErr error
	Updated    time.Time
}

type target struct {
	matrix string
	hash   string
}

// Refresher refreshes a [Report] from a [Source].
type Refresher struct {
	src    Source
	logger *log.Logger

	cache cache.Cache
	keys  cache.Keyer
	ttl   time.Duration

	stats   *predict.Runner
	fitness *predict.Runner

	mu     sync.Mutex
	target target
	report Report
	subs   map[int]func(Report)
	nextID int
}

// Option configures a [Refresher].
type Option func(*Refresher)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Refresher) { r.logger = l }
}

// WithCache caches results per matrix and graph for ttl. A nil keyer uses
// the default layout.
func WithCache(c cache.Cache, keys cache.Keyer, ttl time.Duration) Option {
	return func(r *Refresher) {
		if keys == nil {
			keys = cache.NewDefaultKeyer()
		}
		r.cache, r.keys, r.ttl = c, keys, ttl
	}
}

// NewRefresher creates a refresher over src. Call Close when done.
func NewRefresher(src Source, opts ...Option) *Refresher {
	r := &Refresher{
		src:    src,
		logger: log.New(io.Discard),
		cache:  cache.NewNullCache(),
		keys:   cache.NewDefaultKeyer(),
		subs:   make(map[int]func(Report)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stats = predict.NewRunner("stats", r.refreshStats)
	r.fitness = predict.NewRunner("fitness", r.refreshFitness)
	return r
}

// Refresh records the graph document just predicted with matrix and
// triggers both loops.
func (r *Refresher) Refresh(matrix string, graphDoc []byte) {
	r.setTarget(matrix, graphDoc)
	r.stats.Trigger()
	r.fitness.Trigger()
}

// RefreshStats is Refresh without the fitness loop.
func (r *Refresher) RefreshStats(matrix string, graphDoc []byte) {
	r.setTarget(matrix, graphDoc)
	r.stats.Trigger()
}

func (r *Refresher) setTarget(matrix string, graphDoc []byte) {
	t := target{matrix: matrix}
	if len(graphDoc) > 0 {
		t.hash = cache.Hash(graphDoc)
	}
	r.mu.Lock()
	r.target = t
	r.mu.Unlock()
}

// Report returns the latest report.
func (r *Refresher) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}

// Wait blocks until both loops are idle.
func (r *Refresher) Wait() {
	r.stats.Wait()
	r.fitness.Wait()
}

// Close cancels running refreshes and waits for them.
func (r *Refresher) Close() {
	r.stats.Close()
	r.fitness.Close()
}

// Subscribe registers fn to receive every updated report.
func (r *Refresher) Subscribe(fn func(Report)) (cancel func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Refresher) currentTarget() target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

func (r *Refresher) refreshStats(ctx context.Context) {
	t := r.currentTarget()
	start := time.Now()

	variants, err := cached(ctx, r, "variants", t, r.src.Variants)
	var metrics backend.Metrics
	if err == nil {
		metrics, err = cached(ctx, r, "metrics", t, r.src.Metrics)
	}
	observability.Reconcile().OnAnalyticsComplete(ctx, "stats", time.Since(start), err)

	r.update(func(rep *Report) {
		rep.Matrix = t.matrix
		rep.StatsErr = err
		if err != nil {
			r.logger.Warn("analytics refresh failed", "matrix", t.matrix, "err", err)
			return
		}
		rep.Variants, rep.Metrics = variants, metrics
		r.logger.Debug("analytics refreshed", "matrix", t.matrix, "variants", len(variants.Variants),
			"covered", variants.Covered())
	})
}

func (r *Refresher) refreshFitness(ctx context.Context) {
	t := r.currentTarget()
	start := time.Now()

	f, err := cached(ctx, r, "fitness", t, r.src.Fitness)
	observability.Reconcile().OnAnalyticsComplete(ctx, "fitness", time.Since(start), err)

	r.update(func(rep *Report) {
		rep.FitnessErr = err
		if err != nil {
			r.logger.Warn("fitness refresh failed", "matrix", t.matrix, "err", err)
			return
		}
		v := f.Fitness
		rep.Fitness = &v
	})
}

func (r *Refresher) update(fn func(*Report)) {
	r.mu.Lock()
	fn(&r.report)
	r.report.Updated = time.Now()
	rep := r.report
	subs := make([]func(Report), 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		s(rep)
	}
}

// cached answers fetch from the cache when the target graph is known.
// Failures are never cached.
func cached[T any](ctx context.Context, r *Refresher, kind string, t target, fetch func(context.Context) (T, error)) (T, error) {
	hooks := observability.Cache()
	key := ""
	if t.hash != "" {
		key = r.keys.AnalyticsKey(kind, t.matrix, t.hash)
		if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			var v T
			if json.Unmarshal(data, &v) == nil {
				hooks.OnCacheHit(ctx, kind)
				return v, nil
			}
			_ = r.cache.Delete(ctx, key)
		}
		hooks.OnCacheMiss(ctx, kind)
	}

	v, err := fetch(ctx)
	if err != nil || key == "" {
		return v, err
	}
	if data, err := json.Marshal(v); err == nil {
		if r.cache.Set(ctx, key, data, r.ttl) == nil {
			hooks.OnCacheSet(ctx, kind, len(data))
		}
	}
	return v, nil
}
