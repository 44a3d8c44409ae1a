package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/domain/events"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence/repositories"
)

const testUser = "user-1"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

type fixture struct {
	store      *persistence.MemoryStore
	clock      *testClock
	publisher  *recordingPublisher
	workspaces *WorkspaceService
	canvas     *CanvasService
	repair     *RepairService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()

	store := persistence.NewMemoryStore(logger)
	clock := &testClock{now: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)}
	publisher := &recordingPublisher{}
	concurrency := config.ConcurrencyConfig{MaxInFlight: 4}

	workspaceRepo := repositories.NewWorkspaceRepository(store, logger)
	canvasRepo := repositories.NewCanvasRepository(store, logger)

	workspaces := NewWorkspaceService(workspaceRepo, publisher, nil,
		config.VerificationConfig{Attempts: 3, Interval: time.Millisecond}, logger).WithClock(clock.Now)

	return &fixture{
		store:      store,
		clock:      clock,
		publisher:  publisher,
		workspaces: workspaces,
		canvas:     NewCanvasService(canvasRepo, nil, concurrency, logger).WithClock(clock.Now),
		repair:     NewRepairService(canvasRepo, workspaces, publisher, nil, concurrency, logger).WithClock(clock.Now),
	}
}

func strPtr(s string) *string { return &s }

func nodePath(workspaceID, nodeID string) string {
	return persistence.Join("users", testUser, "workspaces", workspaceID, "canvas_nodes", nodeID)
}
