package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskwire/taskwire/internal/domain"
)

type Store struct {
	pool      *pgxpool.Pool
	tasks     *TaskRepo
	users     *UserRepo
	eventLogs *EventLogRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:      pool,
		tasks:     NewTaskRepo(pool),
		users:     NewUserRepo(pool),
		eventLogs: NewEventLogRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tasks() domain.TaskRepository         { return s.tasks }
func (s *Store) Users() domain.UserRepository         { return s.users }
func (s *Store) EventLogs() domain.EventLogRepository { return s.eventLogs }
