package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskwire/taskwire/internal/domain"
	"github.com/taskwire/taskwire/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject user/role into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, domain.RoleUser)
	return ctx
}

func adminCtx(userID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, domain.RoleAdmin)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	tasks     domain.TaskRepository
	users     domain.UserRepository
	eventLogs domain.EventLogRepository
}

func (m *mockDataStore) Tasks() domain.TaskRepository         { return m.tasks }
func (m *mockDataStore) Users() domain.UserRepository         { return m.users }
func (m *mockDataStore) EventLogs() domain.EventLogRepository { return m.eventLogs }

// userLookup builds a mockUserRepo that resolves the given users by id.
func userLookup(users ...*domain.User) *mockUserRepo {
	return &mockUserRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			for _, u := range users {
				if u.ID == id {
					return u, nil
				}
			}
			return nil, domain.ErrNotFound
		},
	}
}

// ---------------------------------------------------------------------------
// Mock TaskRepository
// ---------------------------------------------------------------------------

type mockTaskRepo struct {
	createFunc         func(ctx context.Context, t *domain.Task) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	listFunc           func(ctx context.Context) ([]*domain.Task, error)
	listByStatusFunc   func(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)
	listByAssigneeFunc func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	updateFunc         func(ctx context.Context, t *domain.Task) error
	deleteFunc         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	return m.createFunc(ctx, t)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTaskRepo) List(ctx context.Context) ([]*domain.Task, error) {
	return m.listFunc(ctx)
}

func (m *mockTaskRepo) ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	return m.listByStatusFunc(ctx, status)
}

func (m *mockTaskRepo) ListByAssignee(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return m.listByAssigneeFunc(ctx, userID)
}

func (m *mockTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc     func(ctx context.Context, u *domain.User) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	listFunc       func(ctx context.Context) ([]*domain.User, error)
	updateFunc     func(ctx context.Context, u *domain.User) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}

// ---------------------------------------------------------------------------
// Mock EventLogRepository
// ---------------------------------------------------------------------------

type mockEventLogRepo struct {
	appendFunc        func(ctx context.Context, rec *domain.EventLogRecord) error
	listFunc          func(ctx context.Context, limit, offset int) ([]*domain.EventLogRecord, error)
	listByActorFunc   func(ctx context.Context, actorID string) ([]*domain.EventLogRecord, error)
	listBySubjectFunc func(ctx context.Context, subjectID string) ([]*domain.EventLogRecord, error)
}

func (m *mockEventLogRepo) Append(ctx context.Context, rec *domain.EventLogRecord) error {
	return m.appendFunc(ctx, rec)
}

func (m *mockEventLogRepo) List(ctx context.Context, limit, offset int) ([]*domain.EventLogRecord, error) {
	return m.listFunc(ctx, limit, offset)
}

func (m *mockEventLogRepo) ListByActor(ctx context.Context, actorID string) ([]*domain.EventLogRecord, error) {
	return m.listByActorFunc(ctx, actorID)
}

func (m *mockEventLogRepo) ListBySubject(ctx context.Context, subjectID string) ([]*domain.EventLogRecord, error) {
	return m.listBySubjectFunc(ctx, subjectID)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFunc        func(ctx context.Context, email, password string) (string, string, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Mock TaskNotifier
// ---------------------------------------------------------------------------

type notifierCall struct {
	kind     string // "created", "updated", "assigned"
	task     *domain.Task
	assignee *domain.User
	actor    *domain.User
}

type mockNotifier struct {
	calls []notifierCall
}

func (m *mockNotifier) NotifyCreated(_ context.Context, task *domain.Task, actor *domain.User) {
	m.calls = append(m.calls, notifierCall{kind: "created", task: task, actor: actor})
}

func (m *mockNotifier) NotifyUpdated(_ context.Context, task *domain.Task, actor *domain.User) {
	m.calls = append(m.calls, notifierCall{kind: "updated", task: task, actor: actor})
}

func (m *mockNotifier) NotifyAssigned(_ context.Context, task *domain.Task, assignee, actor *domain.User) {
	m.calls = append(m.calls, notifierCall{kind: "assigned", task: task, assignee: assignee, actor: actor})
}
