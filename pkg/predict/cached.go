package predict

import (
	"context"
	"time"

	"github.com/matzehuels/nextstep/pkg/cache"
	"github.com/matzehuels/nextstep/pkg/observability"
)

// CachedPredictor answers repeated requests for the same graph and matrix
// from a cache. Failed predictions are never cached.
type CachedPredictor struct {
	inner Predictor
	cache cache.Cache
	keys  cache.Keyer
	ttl   time.Duration
}

// NewCachedPredictor wraps inner. A nil keyer uses the default layout.
func NewCachedPredictor(inner Predictor, c cache.Cache, keys cache.Keyer, ttl time.Duration) *CachedPredictor {
	if keys == nil {
		keys = cache.NewDefaultKeyer()
	}
	return &CachedPredictor{inner: inner, cache: c, keys: keys, ttl: ttl}
}

func (p *CachedPredictor) Predict(ctx context.Context, req Request) (Response, error) {
	hooks := observability.Cache()
	key := p.keys.PredictionKey(req.Matrix, cache.Hash(req.Graph))

	if data, ok, err := p.cache.Get(ctx, key); err == nil && ok {
		if resp, err := DecodeResponse(data); err == nil {
			hooks.OnCacheHit(ctx, "prediction")
			return resp, nil
		}
		_ = p.cache.Delete(ctx, key)
	}
	hooks.OnCacheMiss(ctx, "prediction")

	resp, err := p.inner.Predict(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if data, err := EncodeResponse(resp); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err == nil {
			hooks.OnCacheSet(ctx, "prediction", len(data))
		}
	}
	return resp, nil
}

var _ Predictor = (*CachedPredictor)(nil)
