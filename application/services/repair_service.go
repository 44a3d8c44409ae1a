package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/application/ports"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/canvas"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/events"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/observability"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
)

// WorkspaceToucher records that a workspace was accessed.
type WorkspaceToucher interface {
	Touch(ctx context.Context, userID, workspaceID string)
}

// RepairError is a node the repair pass could not check or create.
type RepairError struct {
	NodeID string `json:"nodeId"`
	Error  string `json:"error"`
}

// RepairReport describes one repair pass. TotalFrontendNodes counts the IDs
// as sent, before duplicates are removed.
type RepairReport struct {
	TotalFrontendNodes int           `json:"totalFrontendNodes"`
	ExistingNodes      []string      `json:"existingNodes"`
	MissingNodes       []string      `json:"missingNodes"`
	CreatedNodes       []string      `json:"createdNodes"`
	Errors             []RepairError `json:"errors"`
}

type nodeState int

const (
	nodeUnknown nodeState = iota
	nodeExists
	nodeMissing
)

// RepairService makes every node ID a client holds resolve to a stored node.
// It only ever adds placeholders; existing nodes are never modified.
type RepairService struct {
	repo        ports.CanvasRepository
	workspaces  WorkspaceToucher
	publisher   ports.EventPublisher
	metrics     *observability.Collector
	concurrency config.ConcurrencyConfig
	clock       func() time.Time
	logger      *zap.Logger
}

// NewRepairService creates a new repair service
func NewRepairService(
	repo ports.CanvasRepository,
	workspaces WorkspaceToucher,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	concurrency config.ConcurrencyConfig,
	logger *zap.Logger,
) *RepairService {
	return &RepairService{
		repo:        repo,
		workspaces:  workspaces,
		publisher:   publisher,
		metrics:     metrics,
		concurrency: concurrency,
		clock:       time.Now,
		logger:      logger,
	}
}

// WithClock replaces the time source.
func (s *RepairService) WithClock(clock func() time.Time) *RepairService {
	s.clock = clock
	return s
}

// Repair creates a typed placeholder for every ID in frontendNodeIDs that has
// no stored node. Per-node failures are reported, not returned.
func (s *RepairService) Repair(ctx context.Context, userID, workspaceID string, frontendNodeIDs []string) (_ *RepairReport, err error) {
	ctx, span := observability.StartSpan(ctx, "RepairService.Repair",
		attribute.String("workspace.id", workspaceID),
		attribute.Int("repair.input", len(frontendNodeIDs)),
	)
	defer func() { observability.EndSpan(span, err) }()

	report := &RepairReport{
		TotalFrontendNodes: len(frontendNodeIDs),
		ExistingNodes:      []string{},
		MissingNodes:       []string{},
		CreatedNodes:       []string{},
		Errors:             []RepairError{},
	}

	ids := dedupe(frontendNodeIDs)
	if len(ids) == 0 {
		return report, nil
	}

	states := make([]nodeState, len(ids))
	checkErrs := make([]error, len(ids))
	err = fanOut(ctx, s.concurrency.MaxInFlight, len(ids), func(ctx context.Context, i int) {
		_, err := s.repo.GetNode(ctx, userID, workspaceID, ids[i])
		switch {
		case err == nil:
			states[i] = nodeExists
		case errors.Is(err, persistence.ErrNotFound):
			states[i] = nodeMissing
		default:
			checkErrs[i] = err
		}
	})
	if err != nil {
		return nil, err
	}

	var missing []string
	for i, id := range ids {
		switch states[i] {
		case nodeExists:
			report.ExistingNodes = append(report.ExistingNodes, id)
		case nodeMissing:
			missing = append(missing, id)
		default:
			report.Errors = append(report.Errors, RepairError{NodeID: id, Error: itemError(checkErrs[i])})
		}
	}
	report.MissingNodes = append(report.MissingNodes, missing...)

	now := s.clock().UnixMilli()
	created := make([]bool, len(missing))
	createErrs := make([]error, len(missing))
	err = fanOut(ctx, s.concurrency.MaxInFlight, len(missing), func(ctx context.Context, i int) {
		err := s.repo.CreateNode(ctx, userID, workspaceID, canvas.NewPlaceholder(missing[i], now))
		switch {
		case err == nil:
			created[i] = true
		case errors.Is(err, persistence.ErrAlreadyExists):
			// created by someone else since the existence check
		default:
			createErrs[i] = err
		}
	})
	if err != nil {
		return nil, err
	}

	for i, id := range missing {
		if created[i] {
			report.CreatedNodes = append(report.CreatedNodes, id)
		} else if createErrs[i] != nil {
			report.Errors = append(report.Errors, RepairError{NodeID: id, Error: itemError(createErrs[i])})
		}
	}

	if len(report.CreatedNodes) > 0 {
		s.workspaces.Touch(ctx, userID, workspaceID)
		s.publish(ctx, events.NewCanvasRepaired(userID, workspaceID, report.CreatedNodes, len(report.Errors), s.clock()))
	}

	s.metrics.RecordRepair(len(report.CreatedNodes), len(report.Errors))
	s.logger.Info("Consistency repair completed",
		zap.String("userID", userID),
		zap.String("workspaceID", workspaceID),
		zap.Int("total", report.TotalFrontendNodes),
		zap.Int("existing", len(report.ExistingNodes)),
		zap.Int("missing", len(report.MissingNodes)),
		zap.Int("created", len(report.CreatedNodes)),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

func (s *RepairService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err),
		)
	}
}

// dedupe drops repeated and empty IDs, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
