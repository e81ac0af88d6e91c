package integrations

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig configures the circuit breaker in front of a backend.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Probes allowed while half-open
	Interval         time.Duration // Closed-state window after which counts reset
	Timeout          time.Duration // Open-state duration before probing
	FailureThreshold float64       // Failure ratio that opens the circuit
	MinRequests      uint32        // Requests needed before the ratio counts
}

// DefaultBreakerConfig returns the breaker settings used for the backend.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func newBreaker(cfg BreakerConfig, logger *log.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from, "to", to)
		},
		// Only transport failures and 5xx count against the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrNetwork)
		},
	})
}
