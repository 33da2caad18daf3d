package sentiment

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"gwi.com/diary-notes/internal/metrics"
)

// Oracle is the scoring capability wrapped by BreakerOracle.
type Oracle interface {
	Score(ctx context.Context, text string) (float64, error)
}

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "sentiment",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerOracle stops calling a failing oracle until the breaker half-opens.
// Errors from the wrapped oracle are returned as is; while open, calls fail
// with gobreaker.ErrOpenState.
type BreakerOracle struct {
	next Oracle
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerOracle(next Oracle, cfg BreakerConfig, logger *zap.Logger) *BreakerOracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("component", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerStateChanges.WithLabelValues(name, to.String()).Inc()
		},
	})
	return &BreakerOracle{next: next, cb: cb}
}

func (o *BreakerOracle) Score(ctx context.Context, text string) (float64, error) {
	res, err := o.cb.Execute(func() (interface{}, error) {
		return o.next.Score(ctx, text)
	})
	if err != nil {
		return 0, err
	}
	return res.(float64), nil
}

func (o *BreakerOracle) State() gobreaker.State {
	return o.cb.State()
}

func observe(provider string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SentimentDuration.WithLabelValues(provider, status).Observe(time.Since(start).Seconds())
}
