package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreakerConfig holds configuration for the store circuit breaker
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration for the store breaker
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "document-store",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      10,
	}
}

// CircuitBreakerStore fails fast with ErrUnavailable while the backend is
// unhealthy. Not-found and already-exists outcomes count as successes.
type CircuitBreakerStore struct {
	inner DocumentStore
	cb    *gobreaker.CircuitBreaker
}

// NewCircuitBreakerStore wraps inner with a circuit breaker.
func NewCircuitBreakerStore(inner DocumentStore, config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isExpected,
	})
	return &CircuitBreakerStore{inner: inner, cb: cb}
}

// State exposes the breaker state for readiness reporting.
func (c *CircuitBreakerStore) State() gobreaker.State {
	return c.cb.State()
}

func (c *CircuitBreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	out, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, err
}

func (c *CircuitBreakerStore) Get(ctx context.Context, path string) (Document, error) {
	out, err := c.execute(func() (interface{}, error) {
		return c.inner.Get(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return out.(Document), nil
}

func (c *CircuitBreakerStore) Set(ctx context.Context, path string, doc Document, opts ...SetOption) error {
	_, err := c.execute(func() (interface{}, error) {
		return nil, c.inner.Set(ctx, path, doc, opts...)
	})
	return err
}

func (c *CircuitBreakerStore) Create(ctx context.Context, path string, doc Document) error {
	_, err := c.execute(func() (interface{}, error) {
		return nil, c.inner.Create(ctx, path, doc)
	})
	return err
}

func (c *CircuitBreakerStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	_, err := c.execute(func() (interface{}, error) {
		return nil, c.inner.Update(ctx, path, fields)
	})
	return err
}

func (c *CircuitBreakerStore) Delete(ctx context.Context, path string) error {
	_, err := c.execute(func() (interface{}, error) {
		return nil, c.inner.Delete(ctx, path)
	})
	return err
}

func (c *CircuitBreakerStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	out, err := c.execute(func() (interface{}, error) {
		return c.inner.Query(ctx, collection, q)
	})
	if err != nil {
		return nil, err
	}
	docs, _ := out.([]Document)
	return docs, nil
}

func (c *CircuitBreakerStore) HealthCheck(ctx context.Context) error {
	if c.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	}
	return c.inner.HealthCheck(ctx)
}
