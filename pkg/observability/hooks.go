// Package observability provides hooks for metrics about reconciliation
// cycles, cache use and backend calls.
//
// Libraries call the registered hooks; main registers an implementation at
// startup. The defaults are no-ops, so nothing here depends on a metrics
// backend. See the prom subpackage for a Prometheus implementation.
//
//	func main() {
//	    prom.New().Register() // installs every hook
//	    // ... run application
//	}
//
// Instrumented code:
//
//	observability.Reconcile().OnCycleStart(ctx, matrix, nodeCount)
//	// ... evict, fetch, merge ...
//	observability.Reconcile().OnCycleComplete(ctx, matrix, merged, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Reconcile Hooks
// =============================================================================

// ReconcileHooks receives events from preview reconciliation and analytics
// refreshes.
type ReconcileHooks interface {
	// OnCycleStart records the start of a cycle for a graph of nodeCount
	// confirmed nodes.
	OnCycleStart(ctx context.Context, matrix string, nodeCount int)

	// OnCycleComplete records the end of a cycle and how many previews it
	// merged.
	OnCycleComplete(ctx context.Context, matrix string, merged int, duration time.Duration, err error)

	// OnRerunQueued records a trigger that arrived while a run was in
	// flight and was deferred.
	OnRerunQueued(ctx context.Context, runner string)

	// OnAnalyticsComplete records one analytics refresh (variants, metrics,
	// fitness).
	OnAnalyticsComplete(ctx context.Context, kind string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from backend HTTP calls.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a call that produced no response (network failure,
	// timeout, open circuit).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopReconcileHooks is a no-op implementation of ReconcileHooks.
type NoopReconcileHooks struct{}

func (NoopReconcileHooks) OnCycleStart(context.Context, string, int) {}
func (NoopReconcileHooks) OnCycleComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopReconcileHooks) OnRerunQueued(context.Context, string)                                {}
func (NoopReconcileHooks) OnAnalyticsComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	reconcileHooks ReconcileHooks = NoopReconcileHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetReconcileHooks registers reconcile hooks. Nil is ignored.
func SetReconcileHooks(h ReconcileHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		reconcileHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Reconcile returns the registered reconcile hooks.
func Reconcile() ReconcileHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return reconcileHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	reconcileHooks = NoopReconcileHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
