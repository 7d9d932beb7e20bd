package v1

import (
	"context"

	"github.com/taskwire/taskwire/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Tasks() domain.TaskRepository
	Users() domain.UserRepository
	EventLogs() domain.EventLogRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// TaskNotifier abstracts the event coordinator for handler testing.
// *events.Coordinator satisfies this interface. Handlers invoke it only
// after the store write has committed.
type TaskNotifier interface {
	NotifyCreated(ctx context.Context, task *domain.Task, actor *domain.User)
	NotifyUpdated(ctx context.Context, task *domain.Task, actor *domain.User)
	NotifyAssigned(ctx context.Context, task *domain.Task, assignee, actor *domain.User)
}
