package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskwire/taskwire/internal/domain"
)

// EventLogRepo is the append-only audit store. Records are inserted once
// and only ever read back, newest first.
type EventLogRepo struct {
	pool *pgxpool.Pool
}

func NewEventLogRepo(pool *pgxpool.Pool) *EventLogRepo {
	return &EventLogRepo{pool: pool}
}

func (r *EventLogRepo) Append(ctx context.Context, rec *domain.EventLogRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO event_logs (id, action, actor_id, subject_id, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Action, rec.ActorID, rec.SubjectID, rec.Detail, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("eventLogRepo.Append: %w", err)
	}

	return nil
}

func (r *EventLogRepo) List(ctx context.Context, limit, offset int) ([]*domain.EventLogRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, action, actor_id, subject_id, detail, created_at
		 FROM event_logs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("eventLogRepo.List: %w", err)
	}
	defer rows.Close()

	return scanEventLogs(rows, "eventLogRepo.List")
}

func (r *EventLogRepo) ListByActor(ctx context.Context, actorID string) ([]*domain.EventLogRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, action, actor_id, subject_id, detail, created_at
		 FROM event_logs WHERE actor_id = $1
		 ORDER BY created_at DESC`,
		actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("eventLogRepo.ListByActor: %w", err)
	}
	defer rows.Close()

	return scanEventLogs(rows, "eventLogRepo.ListByActor")
}

func (r *EventLogRepo) ListBySubject(ctx context.Context, subjectID string) ([]*domain.EventLogRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, action, actor_id, subject_id, detail, created_at
		 FROM event_logs WHERE subject_id = $1
		 ORDER BY created_at DESC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("eventLogRepo.ListBySubject: %w", err)
	}
	defer rows.Close()

	return scanEventLogs(rows, "eventLogRepo.ListBySubject")
}

func scanEventLogs(rows pgx.Rows, caller string) ([]*domain.EventLogRecord, error) {
	var records []*domain.EventLogRecord
	for rows.Next() {
		var rec domain.EventLogRecord
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.ActorID, &rec.SubjectID, &rec.Detail, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return records, nil
}
