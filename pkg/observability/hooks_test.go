package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopReconcileHooks{}
	r.OnCycleStart(ctx, "Simple IOR Choice", 3)
	r.OnCycleComplete(ctx, "Simple IOR Choice", 2, time.Second, nil)
	r.OnRerunQueued(ctx, "reconcile")
	r.OnAnalyticsComplete(ctx, "fitness", time.Second, errors.New("boom"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "prediction")
	c.OnCacheMiss(ctx, "prediction")
	c.OnCacheSet(ctx, "prediction", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "localhost:5000", "/api/predictOutcome")
	h.OnResponse(ctx, "POST", "localhost:5000", "/api/predictOutcome", 200, time.Second)
	h.OnError(ctx, "POST", "localhost:5000", "/api/predictOutcome", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Reconcile().(NoopReconcileHooks); !ok {
		t.Error("Reconcile() default is not NoopReconcileHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() default is not NoopCacheHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() default is not NoopHTTPHooks")
	}

	rh := &countingReconcile{}
	SetReconcileHooks(rh)
	if Reconcile() != rh {
		t.Error("SetReconcileHooks did not register hooks")
	}
	SetReconcileHooks(nil)
	if Reconcile() != rh {
		t.Error("SetReconcileHooks(nil) replaced registered hooks")
	}

	ch := &countingCache{}
	SetCacheHooks(ch)
	if Cache() != ch {
		t.Error("SetCacheHooks did not register hooks")
	}

	hh := NoopHTTPHooks{}
	SetHTTPHooks(hh)

	Reconcile().OnCycleStart(context.Background(), "m", 1)
	if rh.starts != 1 {
		t.Errorf("starts = %d, want 1", rh.starts)
	}

	Reset()
	if _, ok := Reconcile().(NoopReconcileHooks); !ok {
		t.Error("Reset() did not restore reconcile hooks")
	}
}

type countingReconcile struct {
	NoopReconcileHooks
	starts int
}

func (c *countingReconcile) OnCycleStart(context.Context, string, int) { c.starts++ }

type countingCache struct{ NoopCacheHooks }
