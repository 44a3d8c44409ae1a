package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
)

// InstrumentedStore records metrics and spans for every store call.
type InstrumentedStore struct {
	inner   persistence.DocumentStore
	metrics *Collector
}

// NewInstrumentedStore wraps inner with metrics and tracing.
func NewInstrumentedStore(inner persistence.DocumentStore, metrics *Collector) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: metrics}
}

func (s *InstrumentedStore) observe(ctx context.Context, op, path string, fn func(context.Context) error) error {
	collection := collectionLabel(path)
	ctx, span := StartSpan(ctx, "store."+op,
		attribute.String("store.operation", op),
		attribute.String("store.collection", collection),
	)
	start := time.Now()
	err := fn(ctx)
	s.metrics.RecordStoreOperation(op, collection, outcome(err), time.Since(start))

	if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, persistence.ErrAlreadyExists) {
		EndSpan(span, nil)
	} else {
		EndSpan(span, err)
	}
	return err
}

func (s *InstrumentedStore) Get(ctx context.Context, path string) (persistence.Document, error) {
	var doc persistence.Document
	err := s.observe(ctx, "get", path, func(ctx context.Context) error {
		var err error
		doc, err = s.inner.Get(ctx, path)
		return err
	})
	return doc, err
}

func (s *InstrumentedStore) Set(ctx context.Context, path string, doc persistence.Document, opts ...persistence.SetOption) error {
	return s.observe(ctx, "set", path, func(ctx context.Context) error {
		return s.inner.Set(ctx, path, doc, opts...)
	})
}

func (s *InstrumentedStore) Create(ctx context.Context, path string, doc persistence.Document) error {
	return s.observe(ctx, "create", path, func(ctx context.Context) error {
		return s.inner.Create(ctx, path, doc)
	})
}

func (s *InstrumentedStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	return s.observe(ctx, "update", path, func(ctx context.Context) error {
		return s.inner.Update(ctx, path, fields)
	})
}

func (s *InstrumentedStore) Delete(ctx context.Context, path string) error {
	return s.observe(ctx, "delete", path, func(ctx context.Context) error {
		return s.inner.Delete(ctx, path)
	})
}

func (s *InstrumentedStore) Query(ctx context.Context, collection string, q persistence.Query) ([]persistence.Document, error) {
	var docs []persistence.Document
	err := s.observe(ctx, "query", collection+"/", func(ctx context.Context) error {
		var err error
		docs, err = s.inner.Query(ctx, collection, q)
		return err
	})
	return docs, err
}

func (s *InstrumentedStore) HealthCheck(ctx context.Context) error {
	return s.inner.HealthCheck(ctx)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, persistence.ErrNotFound):
		return "not_found"
	case errors.Is(err, persistence.ErrAlreadyExists):
		return "exists"
	case errors.Is(err, persistence.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// collectionLabel reduces a document path to its collection name so label
// cardinality stays independent of user and document IDs.
func collectionLabel(path string) string {
	collection, _ := persistence.Split(path)
	if i := strings.LastIndex(collection, "/"); i >= 0 {
		collection = collection[i+1:]
	}
	if collection == "" {
		return "root"
	}
	return collection
}
