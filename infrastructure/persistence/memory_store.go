package persistence

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// MemoryStore is an in-process DocumentStore for local runs and tests.
// Faults can be injected per operation or per operation and path.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]Document
	logger *zap.Logger

	faultMu    sync.RWMutex
	opErrors   map[string]error
	pathErrors map[string]error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		docs:       make(map[string]Document),
		logger:     logger,
		opErrors:   make(map[string]error),
		pathErrors: make(map[string]error),
	}
}

// SetError makes every call of op (Get, Set, Create, Update, Delete, Query) fail with err.
// A nil err clears the fault.
func (s *MemoryStore) SetError(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if err == nil {
		delete(s.opErrors, op)
		return
	}
	s.opErrors[op] = err
}

// SetPathError makes op fail with err for one document path only.
func (s *MemoryStore) SetPathError(op, path string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	key := op + " " + path
	if err == nil {
		delete(s.pathErrors, key)
		return
	}
	s.pathErrors[key] = err
}

func (s *MemoryStore) fault(op, path string) error {
	s.faultMu.RLock()
	defer s.faultMu.RUnlock()
	if err, ok := s.pathErrors[op+" "+path]; ok {
		return err
	}
	return s.opErrors[op]
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Get returns a copy of the document at path.
func (s *MemoryStore) Get(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.fault("Get", path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	doc, ok := s.docs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(doc)
}

// Set replaces or merges the document at path.
func (s *MemoryStore) Set(ctx context.Context, path string, doc Document, opts ...SetOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fault("Set", path); err != nil {
		return err
	}

	stored, err := copyDocument(doc)
	if err != nil {
		return fmt.Errorf("memory store set %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if applySetOptions(opts).merge {
		if existing, ok := s.docs[path]; ok {
			for k, v := range stored {
				existing[k] = v
			}
			return nil
		}
	}
	s.docs[path] = stored
	s.logger.Debug("stored document", zap.String("path", path))
	return nil
}

// Create writes the document only if it does not exist.
func (s *MemoryStore) Create(ctx context.Context, path string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fault("Create", path); err != nil {
		return err
	}

	stored, err := copyDocument(doc)
	if err != nil {
		return fmt.Errorf("memory store create %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; ok {
		return ErrAlreadyExists
	}
	s.docs[path] = stored
	return nil
}

// Update applies dotted-path field assignments to an existing document.
func (s *MemoryStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fault("Update", path); err != nil {
		return err
	}

	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		pv, err := plain(v)
		if err != nil {
			return fmt.Errorf("memory store update %s.%s: %w", path, k, err)
		}
		values[k] = pv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		return ErrNotFound
	}
	for k, v := range values {
		setField(doc, k, v)
	}
	return nil
}

// Delete removes the document. Deleting an absent document is not an error.
func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fault("Delete", path); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.docs, path)
	s.mu.Unlock()
	return nil
}

// Query returns the direct members of collection matching q.
func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.fault("Query", collection); err != nil {
		return nil, err
	}

	prefix := collection + "/"
	var out []Document

	s.mu.RLock()
	for path, doc := range s.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		if !matches(doc, q.Filters) {
			continue
		}
		c, err := copyDocument(doc)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		out = append(out, c)
	}
	s.mu.RUnlock()

	sortDocuments(out, q.OrderBy, q.Direction)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// HealthCheck always succeeds unless a Get fault is injected.
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return s.fault("Get", "")
}
