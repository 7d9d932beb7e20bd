package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskwire/taskwire/internal/domain"
)

// Kind is the closed set of task event variants. Adding a variant
// requires extending WireName and Action, so an unhandled kind is a
// compile-time hole rather than a runtime surprise.
type Kind int

const (
	KindCreated Kind = iota
	KindUpdated
	KindAssigned
	KindStatusChanged
)

// WireName returns the event name sent to clients.
func (k Kind) WireName() string {
	switch k {
	case KindCreated:
		return "taskCreated"
	case KindUpdated:
		return "taskUpdated"
	case KindAssigned:
		return "taskAssigned"
	case KindStatusChanged:
		return "taskStatusUpdated"
	}
	return "unknown"
}

// Action returns the audit-log action for mutation kinds. StatusChanged
// is a derived signal emitted alongside an update and has no action of
// its own.
func (k Kind) Action() string {
	switch k {
	case KindCreated:
		return "TASK_CREATED"
	case KindUpdated:
		return "TASK_UPDATED"
	case KindAssigned:
		return "TASK_ASSIGNED"
	case KindStatusChanged:
		return ""
	}
	return ""
}

// Envelope is the wire frame pushed to connections: a named event plus
// its JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// TaskPayload carries a full task snapshot with a human-readable message.
type TaskPayload struct {
	TaskID  uuid.UUID    `json:"taskId"`
	Task    *domain.Task `json:"task"`
	Message string       `json:"message"`
	Actor   string       `json:"actor,omitempty"` // email of the user who triggered the event
}

// StatusPayload is the lightweight global signal emitted on every
// update, decoupled from the full task payload so dashboards can track
// status without joining task rooms.
type StatusPayload struct {
	TaskID    uuid.UUID         `json:"taskId"`
	Status    domain.TaskStatus `json:"status"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func marshalEnvelope(kind Kind, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("events.marshalEnvelope: %w", err)
	}

	frame, err := json.Marshal(Envelope{Event: kind.WireName(), Data: raw})
	if err != nil {
		return nil, fmt.Errorf("events.marshalEnvelope: %w", err)
	}

	return frame, nil
}
