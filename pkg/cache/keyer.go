package cache

// Keyer builds cache keys.
type Keyer interface {
	// PredictionKey addresses the predictor's answer for a serialized graph
	// under a matrix.
	PredictionKey(matrix, graphHash string) string

	// AnalyticsKey addresses one analytics result (variants, metrics,
	// fitness) for a matrix and graph.
	AnalyticsKey(kind, matrix, graphHash string) string
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard key layout.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) PredictionKey(matrix, graphHash string) string {
	return hashKey("prediction", matrix, graphHash)
}

func (DefaultKeyer) AnalyticsKey(kind, matrix, graphHash string) string {
	return hashKey("analytics:"+kind, matrix, graphHash)
}

// ScopedKeyer prefixes every key of an inner keyer. The backend keeps custom
// matrices per session, so keys are scoped by session id.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default layout when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) PredictionKey(matrix, graphHash string) string {
	return k.prefix + k.inner.PredictionKey(matrix, graphHash)
}

func (k *ScopedKeyer) AnalyticsKey(kind, matrix, graphHash string) string {
	return k.prefix + k.inner.AnalyticsKey(kind, matrix, graphHash)
}
