// Package persistence provides a hierarchical document store abstraction and
// its implementations. Documents are addressed by slash-separated paths such as
// users/{uid}/workspaces/{wid}; a collection is a path with an odd number of
// segments and each document directly under it is one of its members.
//
// Every implementation gives per-document atomicity only. Nothing here spans
// more than one document.
package persistence

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Create when the document exists.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrUnavailable marks transient backend failures: throttling, outages, an open breaker.
	ErrUnavailable = errors.New("document store unavailable")
)

// Document is a stored record. Values are JSON-compatible.
type Document map[string]interface{}

// Direction is a query sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Filter is an equality filter on a top-level field.
type Filter struct {
	Field string
	Value interface{}
}

// Query selects documents of one collection.
type Query struct {
	Filters   []Filter
	OrderBy   string
	Direction Direction
	Limit     int
}

type setOptions struct {
	merge bool
}

// SetOption configures Set.
type SetOption func(*setOptions)

// Merge makes Set upsert the given top-level fields instead of replacing the document.
func Merge() SetOption {
	return func(o *setOptions) { o.merge = true }
}

func applySetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DocumentStore abstracts the backing database.
type DocumentStore interface {
	// Get returns ErrNotFound when the document is absent.
	Get(ctx context.Context, path string) (Document, error)
	// Set replaces the document, or with Merge upserts its top-level fields.
	Set(ctx context.Context, path string, doc Document, opts ...SetOption) error
	// Create writes the document only if absent, else ErrAlreadyExists.
	Create(ctx context.Context, path string, doc Document) error
	// Update sets fields on an existing document. Keys may be dotted paths
	// into nested maps. Returns ErrNotFound when the document is absent.
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	Delete(ctx context.Context, path string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	HealthCheck(ctx context.Context) error
}

// Join builds a store path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split separates a document path into its collection and document ID.
func Split(path string) (collection, id string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// isExpected reports errors that describe document state, not backend health.
func isExpected(err error) bool {
	return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, context.Canceled)
}
