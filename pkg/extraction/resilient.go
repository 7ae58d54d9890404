package extraction

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/snf-admission-engine/internal/domain"
)

// ResilientExtractor wraps a feature extractor with a circuit breaker so a
// degraded extraction service fails fast instead of stalling intake.
type ResilientExtractor struct {
	inner   domain.FeatureExtractor
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewResilientExtractor creates a circuit-breaker-protected extractor.
func NewResilientExtractor(inner domain.FeatureExtractor, logger *logrus.Logger) *ResilientExtractor {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "FeatureExtraction",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientExtractor{
		inner:   inner,
		breaker: breaker,
		log:     logger,
	}
}

// ExtractFeatures runs the wrapped extractor through the circuit breaker.
func (r *ResilientExtractor) ExtractFeatures(ctx context.Context, referralText string) (*domain.ClinicalFeatures, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.inner.ExtractFeatures(ctx, referralText)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("extraction service unavailable: %w", err)
		}
		return nil, err
	}

	return result.(*domain.ClinicalFeatures), nil
}

// State exposes the current breaker state for health reporting.
func (r *ResilientExtractor) State() gobreaker.State {
	return r.breaker.State()
}
