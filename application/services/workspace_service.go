package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/application/ports"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/events"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/workspace"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/observability"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

// List ordering keys
const (
	OrderByLastAccessed = "lastAccessedAt"
	OrderByCreated      = "createdAt"
	OrderByName         = "name"

	DefaultListLimit = 20
	MaxListLimit     = 100
)

// CreateWorkspaceInput carries the caller's choices for a new workspace.
// A template, when given, supplies everything but the name.
type CreateWorkspaceInput struct {
	Name        *string             `json:"name" validate:"omitempty,max=200"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	Color       *string             `json:"color" validate:"omitempty,max=32"`
	Template    *workspace.Template `json:"template"`
}

// ListOptions selects a page of workspaces
type ListOptions struct {
	Limit   int
	OrderBy string
}

// WorkspaceService is the workspace registry: workspace documents plus the
// per-user active pointer.
type WorkspaceService struct {
	repo      ports.WorkspaceRepository
	publisher ports.EventPublisher
	metrics   *observability.Collector
	verify    config.VerificationConfig
	clock     func() time.Time
	logger    *zap.Logger
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(
	repo ports.WorkspaceRepository,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	verify config.VerificationConfig,
	logger *zap.Logger,
) *WorkspaceService {
	if verify.Attempts < 1 {
		verify.Attempts = 1
	}
	return &WorkspaceService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		verify:    verify,
		clock:     time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source.
func (s *WorkspaceService) WithClock(clock func() time.Time) *WorkspaceService {
	s.clock = clock
	return s
}

// Create stores a new workspace, confirms it can be read back and then makes
// it the active one. A failure after the first write removes the document.
func (s *WorkspaceService) Create(ctx context.Context, userID string, input CreateWorkspaceInput) (_ *workspace.Workspace, err error) {
	ctx, span := observability.StartSpan(ctx, "WorkspaceService.Create", attribute.String("user.id", userID))
	defer func() { observability.EndSpan(span, err) }()

	now := s.clock()
	w, err := workspace.New(uuid.NewString(), workspace.NewParams{
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		Template:    input.Template,
	}, now)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.repo.Save(ctx, userID, w); err != nil {
		return nil, storeError(err, "create workspace", "workspace")
	}

	verified, attempts, err := s.readBack(ctx, userID, w.ID)
	if err != nil {
		s.logger.Error("Workspace creation could not be verified",
			zap.String("userID", userID),
			zap.String("workspaceID", w.ID),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		s.rollbackCreate(ctx, userID, w.ID)
		return nil, err
	}

	if err := s.repo.SetActivePointer(ctx, userID, workspace.ActivePointer{
		CurrentWorkspaceID: w.ID,
		UpdatedAt:          w.UpdatedAt,
	}); err != nil {
		s.rollbackCreate(ctx, userID, w.ID)
		return nil, storeError(err, "set active workspace", "workspace")
	}

	s.metrics.RecordWorkspaceCreated(attempts - 1)
	s.publish(ctx, events.NewWorkspaceCreated(userID, w.ID, w.Name, input.Template != nil, now))

	s.logger.Info("Workspace created",
		zap.String("userID", userID),
		zap.String("workspaceID", w.ID),
		zap.Bool("fromTemplate", input.Template != nil),
		zap.Int("verifyAttempts", attempts),
	)
	return verified, nil
}

// rollbackCreate removes a workspace whose creation failed part way. The
// pointer is only written last, so it never names the removed document.
func (s *WorkspaceService) rollbackCreate(ctx context.Context, userID, id string) {
	if err := s.repo.Delete(context.WithoutCancel(ctx), userID, id); err != nil {
		s.logger.Error("Failed to roll back partial workspace creation",
			zap.String("userID", userID),
			zap.String("workspaceID", id),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("Rolled back partial workspace creation",
		zap.String("userID", userID),
		zap.String("workspaceID", id),
	)
}

// readBack polls for the new document with a fixed interval.
func (s *WorkspaceService) readBack(ctx context.Context, userID, id string) (*workspace.Workspace, int, error) {
	attempts := 0
	operation := func() (*workspace.Workspace, error) {
		attempts++
		w, err := s.repo.GetByID(ctx, userID, id)
		if err == nil {
			return w, nil
		}
		if errors.Is(err, persistence.ErrNotFound) || persistence.IsTransient(err) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.verify.Interval), uint64(s.verify.Attempts-1)),
		ctx,
	)
	w, err := backoff.RetryWithData(operation, policy)
	switch {
	case err == nil:
		return w, attempts, nil
	case ctx.Err() != nil:
		return nil, attempts, ctx.Err()
	case errors.Is(err, persistence.ErrNotFound), persistence.IsTransient(err):
		return nil, attempts, apperrors.NewPersistenceVerificationError("workspace", attempts).WithCause(err)
	default:
		return nil, attempts, storeError(err, "verify workspace", "workspace")
	}
}

// Update applies a whitelisted patch. lastAccessedAt is left alone.
func (s *WorkspaceService) Update(ctx context.Context, userID, id string, patch workspace.Patch) (_ *workspace.Workspace, err error) {
	ctx, span := observability.StartSpan(ctx, "WorkspaceService.Update", attribute.String("workspace.id", id))
	defer func() { observability.EndSpan(span, err) }()

	fields, err := patch.Fields(s.clock().UnixMilli())
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.repo.Update(ctx, userID, id, fields); err != nil {
		return nil, storeError(err, "update workspace", "workspace")
	}

	w, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, storeError(err, "get workspace", "workspace")
	}

	s.logger.Debug("Workspace updated",
		zap.String("userID", userID),
		zap.String("workspaceID", id),
		zap.Int("fields", len(fields)),
	)
	return w, nil
}

// List returns the user's workspaces. When the store is unavailable it
// degrades to an empty list instead of failing.
func (s *WorkspaceService) List(ctx context.Context, userID string, opts ListOptions) ([]*workspace.Workspace, error) {
	query, err := listQuery(opts)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.List(ctx, userID, query)
	if err != nil {
		if persistence.IsTransient(err) {
			s.logger.Warn("Store unavailable, returning empty workspace list",
				zap.String("userID", userID),
				zap.Error(err),
			)
			return []*workspace.Workspace{}, nil
		}
		return nil, storeError(err, "list workspaces", "workspace")
	}
	return list, nil
}

func listQuery(opts ListOptions) (ports.ListQuery, error) {
	limit := opts.Limit
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	q := ports.ListQuery{Limit: limit}
	switch opts.OrderBy {
	case "", OrderByLastAccessed:
		q.OrderBy, q.Descending = OrderByLastAccessed, true
	case OrderByCreated:
		q.OrderBy, q.Descending = OrderByCreated, true
	case OrderByName:
		q.OrderBy = OrderByName
	default:
		return ports.ListQuery{}, apperrors.NewValidationError(
			fmt.Sprintf("orderBy must be one of: %s, %s, %s", OrderByLastAccessed, OrderByCreated, OrderByName))
	}
	return q, nil
}

// GetByID returns the workspace and marks it accessed.
func (s *WorkspaceService) GetByID(ctx context.Context, userID, id string) (*workspace.Workspace, error) {
	w, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, storeError(err, "get workspace", "workspace")
	}

	now := s.clock().UnixMilli()
	if err := s.repo.Update(ctx, userID, id, map[string]interface{}{"lastAccessedAt": now}); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, storeError(err, "get workspace", "workspace")
		}
		s.logger.Warn("Failed to record workspace access",
			zap.String("userID", userID),
			zap.String("workspaceID", id),
			zap.Error(err),
		)
		return w, nil
	}
	w.LastAccessedAt = now
	return w, nil
}

// Exists reports whether the user owns a workspace with this ID. It has no side effects.
func (s *WorkspaceService) Exists(ctx context.Context, userID, id string) (bool, error) {
	_, err := s.repo.GetByID(ctx, userID, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, persistence.ErrNotFound):
		return false, nil
	default:
		return false, storeError(err, "get workspace", "workspace")
	}
}

// Require returns a not-found error unless the workspace exists.
func (s *WorkspaceService) Require(ctx context.Context, userID, id string) error {
	ok, err := s.Exists(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFoundError("workspace")
	}
	return nil
}

// Touch bumps lastAccessedAt. Failures are logged, never returned.
func (s *WorkspaceService) Touch(ctx context.Context, userID, id string) {
	err := s.repo.Update(ctx, userID, id, map[string]interface{}{"lastAccessedAt": s.clock().UnixMilli()})
	if err != nil {
		s.logger.Warn("Failed to touch workspace",
			zap.String("userID", userID),
			zap.String("workspaceID", id),
			zap.Error(err),
		)
	}
}

// Delete removes the workspace and clears the active pointer if it pointed here.
func (s *WorkspaceService) Delete(ctx context.Context, userID, id string) (err error) {
	ctx, span := observability.StartSpan(ctx, "WorkspaceService.Delete", attribute.String("workspace.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.Require(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return storeError(err, "delete workspace", "workspace")
	}

	wasActive := false
	pointer, err := s.repo.GetActivePointer(ctx, userID)
	switch {
	case err == nil && pointer.CurrentWorkspaceID == id:
		wasActive = true
		if err := s.repo.ClearActivePointer(ctx, userID, s.clock().UnixMilli()); err != nil {
			// GetActive treats the dangling pointer as unset
			s.logger.Warn("Failed to clear active workspace pointer",
				zap.String("userID", userID),
				zap.String("workspaceID", id),
				zap.Error(err),
			)
		}
	case err != nil && !errors.Is(err, persistence.ErrNotFound):
		s.logger.Warn("Failed to read active workspace pointer",
			zap.String("userID", userID),
			zap.Error(err),
		)
	}

	s.publish(ctx, events.NewWorkspaceDeleted(userID, id, wasActive, s.clock()))
	s.logger.Info("Workspace deleted",
		zap.String("userID", userID),
		zap.String("workspaceID", id),
		zap.Bool("wasActive", wasActive),
	)
	return nil
}

// SetActive points the user's active pointer at an existing workspace.
func (s *WorkspaceService) SetActive(ctx context.Context, userID, id string) error {
	if err := s.Require(ctx, userID, id); err != nil {
		return err
	}
	err := s.repo.SetActivePointer(ctx, userID, workspace.ActivePointer{
		CurrentWorkspaceID: id,
		UpdatedAt:          s.clock().UnixMilli(),
	})
	return storeError(err, "set active workspace", "workspace")
}

// GetActive resolves the active pointer. It returns nil when the pointer is
// unset or names a workspace that no longer exists.
func (s *WorkspaceService) GetActive(ctx context.Context, userID string) (*workspace.Workspace, error) {
	pointer, err := s.repo.GetActivePointer(ctx, userID)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "get active workspace", "active workspace")
	}
	if pointer.CurrentWorkspaceID == "" {
		return nil, nil
	}

	w, err := s.GetByID(ctx, userID, pointer.CurrentWorkspaceID)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	return w, err
}

func (s *WorkspaceService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}
