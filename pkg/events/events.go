// Package events defines event types and structures for run lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the channel all run lifecycle events are published on.
const Topic = "simgate.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Run lifecycle events.
	RunQueuedEvent    EventType = "run.queued"
	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunFailedEvent    EventType = "run.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		Metadata:  make(map[string]any),
	}
}

// RunQueued is published when a run has been accepted and persisted as
// pending.
type RunQueued struct {
	BaseEvent

	NodeType string         `json:"node_type"`
	Inputs   map[string]any `json:"inputs,omitempty"`
}

func (r RunQueued) GetType() EventType {
	return RunQueuedEvent
}

// RunStarted is published when a worker claims a run and begins executing
// it.
type RunStarted struct {
	BaseEvent

	NodeType string `json:"node_type"`
}

func (r RunStarted) GetType() EventType {
	return RunStartedEvent
}

// RunCompleted is published when a run finishes and its outputs validate.
type RunCompleted struct {
	BaseEvent

	NodeType string         `json:"node_type"`
	Outputs  map[string]any `json:"outputs,omitempty"`
	Duration time.Duration  `json:"duration"`
}

func (r RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

// RunFailed is published when a run ends in an error, whether from input
// validation, the engine process, or output validation.
type RunFailed struct {
	BaseEvent

	NodeType string        `json:"node_type"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (r RunFailed) GetType() EventType {
	return RunFailedEvent
}
