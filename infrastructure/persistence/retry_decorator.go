package persistence

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryConfig configures retry behavior for store operations.
type RetryConfig struct {
	MaxRetries   uint64
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
}

// DefaultRetryConfig returns sensible defaults for retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// RetryStore retries transient failures with exponential backoff. Create is
// not retried: a timed-out create may have landed, and repeating it would
// turn that success into ErrAlreadyExists.
type RetryStore struct {
	inner  DocumentStore
	config RetryConfig
	logger *zap.Logger
}

// NewRetryStore wraps inner with retries.
func NewRetryStore(inner DocumentStore, config RetryConfig, logger *zap.Logger) *RetryStore {
	return &RetryStore{inner: inner, config: config, logger: logger}
}

func (r *RetryStore) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.InitialDelay
	b.MaxInterval = r.config.MaxDelay
	b.Multiplier = r.config.Multiplier
	b.RandomizationFactor = r.config.Jitter
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, r.config.MaxRetries), ctx)
}

func (r *RetryStore) execute(ctx context.Context, op, path string, fn func() error) error {
	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := fn()
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, r.policy(ctx), func(err error, wait time.Duration) {
		r.logger.Warn("retrying store operation",
			zap.String("operation", op),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
}

func (r *RetryStore) Get(ctx context.Context, path string) (Document, error) {
	var doc Document
	err := r.execute(ctx, "Get", path, func() error {
		var err error
		doc, err = r.inner.Get(ctx, path)
		return err
	})
	return doc, err
}

func (r *RetryStore) Set(ctx context.Context, path string, doc Document, opts ...SetOption) error {
	return r.execute(ctx, "Set", path, func() error {
		return r.inner.Set(ctx, path, doc, opts...)
	})
}

func (r *RetryStore) Create(ctx context.Context, path string, doc Document) error {
	return r.inner.Create(ctx, path, doc)
}

func (r *RetryStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	return r.execute(ctx, "Update", path, func() error {
		return r.inner.Update(ctx, path, fields)
	})
}

func (r *RetryStore) Delete(ctx context.Context, path string) error {
	return r.execute(ctx, "Delete", path, func() error {
		return r.inner.Delete(ctx, path)
	})
}

func (r *RetryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	var docs []Document
	err := r.execute(ctx, "Query", collection, func() error {
		var err error
		docs, err = r.inner.Query(ctx, collection, q)
		return err
	})
	return docs, err
}

func (r *RetryStore) HealthCheck(ctx context.Context) error {
	return r.inner.HealthCheck(ctx)
}
