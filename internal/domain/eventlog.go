package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventLogRecord is one append-only audit entry. Records are written once
// per committed task mutation and never updated or deleted.
type EventLogRecord struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"` // "TASK_CREATED", "TASK_UPDATED", "TASK_ASSIGNED"
	ActorID   string    `json:"actorId"`
	SubjectID string    `json:"subjectId"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

type EventLogRepository interface {
	Append(ctx context.Context, rec *EventLogRecord) error
	List(ctx context.Context, limit, offset int) ([]*EventLogRecord, error)
	ListByActor(ctx context.Context, actorID string) ([]*EventLogRecord, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*EventLogRecord, error)
}
