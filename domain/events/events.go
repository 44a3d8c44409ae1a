package events

import "time"

// DomainEvent is something that already happened to a workspace.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetUserID() string
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	UserID      string    `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetUserID() string       { return e.UserID }

const (
	TypeWorkspaceCreated = "workspace.created"
	TypeWorkspaceDeleted = "workspace.deleted"
	TypeCanvasRepaired   = "canvas.repaired"
)

// WorkspaceCreated is raised after a new workspace is verified readable
type WorkspaceCreated struct {
	BaseEvent
	Name         string `json:"name"`
	FromTemplate bool   `json:"from_template"`
}

// NewWorkspaceCreated creates a WorkspaceCreated event
func NewWorkspaceCreated(userID, workspaceID, name string, fromTemplate bool, at time.Time) WorkspaceCreated {
	return WorkspaceCreated{
		BaseEvent: BaseEvent{
			AggregateID: workspaceID,
			EventType:   TypeWorkspaceCreated,
			UserID:      userID,
			Timestamp:   at,
		},
		Name:         name,
		FromTemplate: fromTemplate,
	}
}

// WorkspaceDeleted is raised after a workspace is removed
type WorkspaceDeleted struct {
	BaseEvent
	WasActive bool `json:"was_active"`
}

// NewWorkspaceDeleted creates a WorkspaceDeleted event
func NewWorkspaceDeleted(userID, workspaceID string, wasActive bool, at time.Time) WorkspaceDeleted {
	return WorkspaceDeleted{
		BaseEvent: BaseEvent{
			AggregateID: workspaceID,
			EventType:   TypeWorkspaceDeleted,
			UserID:      userID,
			Timestamp:   at,
		},
		WasActive: wasActive,
	}
}

// CanvasRepaired is raised when a repair pass created placeholders
type CanvasRepaired struct {
	BaseEvent
	CreatedNodeIDs []string `json:"created_node_ids"`
	FailedCount    int      `json:"failed_count"`
}

// NewCanvasRepaired creates a CanvasRepaired event
func NewCanvasRepaired(userID, workspaceID string, created []string, failed int, at time.Time) CanvasRepaired {
	return CanvasRepaired{
		BaseEvent: BaseEvent{
			AggregateID: workspaceID,
			EventType:   TypeCanvasRepaired,
			UserID:      userID,
			Timestamp:   at,
		},
		CreatedNodeIDs: created,
		FailedCount:    failed,
	}
}
