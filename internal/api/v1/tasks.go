package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/taskwire/taskwire/internal/domain"
	"github.com/taskwire/taskwire/internal/server/middleware"
)

type CreateTaskInput struct {
	Body struct {
		Title        string     `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Description  string     `json:"description,omitempty" doc:"Task description"`
		Status       string     `json:"status,omitempty" doc:"Initial status (default pending)"`
		AssignedToID *uuid.UUID `json:"assignedToId,omitempty" doc:"Optional initial assignee"`
	}
}

type CreateTaskOutput struct {
	Body *domain.Task
}

type ListTasksInput struct {
	Status string `query:"status" doc:"Filter by status"`
}

type ListTasksOutput struct {
	Body []*domain.Task
}

type GetTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type GetTaskOutput struct {
	Body *domain.Task
}

type UpdateTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		Title       string `json:"title,omitempty" maxLength:"500" doc:"Task title"`
		Description string `json:"description,omitempty" doc:"Task description"`
		Status      string `json:"status,omitempty" doc:"Task status"`
	}
}

type UpdateTaskOutput struct {
	Body *domain.Task
}

type UpdateTaskStatusInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		Status string `json:"status" minLength:"1" doc:"Target status"`
	}
}

type UpdateTaskStatusOutput struct {
	Body *domain.Task
}

type AssignTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		UserID uuid.UUID `json:"userId" doc:"New assignee's user ID"`
	}
}

type AssignTaskOutput struct {
	Body *domain.Task
}

type DeleteTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

// currentUser resolves the authenticated caller to a full user record.
// The notifier needs the actor's email for event messages, not just the
// id the token carries.
func currentUser(ctx context.Context, store DataStore) (*domain.User, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing identity")
	}

	user, err := store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, huma.Error401Unauthorized("unknown user")
	}

	return user, nil
}

// adminActor resolves the caller and rejects non-admins. Creating,
// assigning and deleting tasks are admin operations; field and status
// updates stay open to any authenticated user.
func adminActor(ctx context.Context, store DataStore) (*domain.User, error) {
	actor, err := currentUser(ctx, store)
	if err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleAdmin {
		return nil, huma.Error403Forbidden("admin role required")
	}

	return actor, nil
}

func RegisterTaskRoutes(api huma.API, store DataStore, notifier TaskNotifier) {
	huma.Register(api, huma.Operation{
		OperationID: "create-task",
		Method:      http.MethodPost,
		Path:        "/tasks",
		Summary:     "Create a new task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateTaskInput) (*CreateTaskOutput, error) {
		actor, err := adminActor(ctx, store)
		if err != nil {
			return nil, err
		}

		status := domain.TaskStatusPending
		if input.Body.Status != "" {
			status = domain.TaskStatus(input.Body.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("unknown task status: " + input.Body.Status)
			}
		}

		now := time.Now()
		t := &domain.Task{
			ID:          uuid.New(),
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if input.Body.AssignedToID != nil {
			assignee, lookupErr := store.Users().GetByID(ctx, *input.Body.AssignedToID)
			if lookupErr != nil {
				if errors.Is(lookupErr, domain.ErrNotFound) {
					return nil, huma.Error404NotFound("assignee not found")
				}
				return nil, huma.Error500InternalServerError("failed to look up assignee", lookupErr)
			}
			t.AssignedTo = &assignee.ID
			t.AssignedToEmail = assignee.Email
		}

		if err := store.Tasks().Create(ctx, t); err != nil {
			return nil, huma.Error500InternalServerError("failed to create task", err)
		}

		notifier.NotifyCreated(ctx, t, actor)

		return &CreateTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
		actor, err := currentUser(ctx, store)
		if err != nil {
			return nil, err
		}

		var tasks []*domain.Task

		// Non-admins only see tasks assigned to them.
		if actor.Role == domain.RoleAdmin {
			if input.Status != "" {
				status := domain.TaskStatus(input.Status)
				tasks, err = store.Tasks().ListByStatus(ctx, status)
			} else {
				tasks, err = store.Tasks().List(ctx)
			}
		} else {
			tasks, err = store.Tasks().ListByAssignee(ctx, actor.ID)
			if err == nil && input.Status != "" {
				status := domain.TaskStatus(input.Status)
				filtered := tasks[:0]
				for _, t := range tasks {
					if t.Status == status {
						filtered = append(filtered, t)
					}
				}
				tasks = filtered
			}
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tasks", err)
		}

		return &ListTasksOutput{Body: tasks}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task by ID",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*GetTaskOutput, error) {
		t, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		return &GetTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*UpdateTaskOutput, error) {
		actor, err := currentUser(ctx, store)
		if err != nil {
			return nil, err
		}

		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Description != "" {
			existing.Description = input.Body.Description
		}
		if input.Body.Status != "" {
			status := domain.TaskStatus(input.Body.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("unknown task status: " + input.Body.Status)
			}
			existing.Status = status
		}
		existing.UpdatedAt = time.Now()

		if err := store.Tasks().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update task", err)
		}

		notifier.NotifyUpdated(ctx, existing, actor)

		return &UpdateTaskOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-status",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}/status",
		Summary:     "Change task status",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskStatusInput) (*UpdateTaskStatusOutput, error) {
		actor, err := currentUser(ctx, store)
		if err != nil {
			return nil, err
		}

		target := domain.TaskStatus(input.Body.Status)
		if !target.Valid() {
			return nil, huma.Error400BadRequest("unknown task status: " + input.Body.Status)
		}

		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		existing.Status = target
		existing.UpdatedAt = time.Now()

		if err := store.Tasks().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update task status", err)
		}

		notifier.NotifyUpdated(ctx, existing, actor)

		return &UpdateTaskStatusOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/assign",
		Summary:     "Assign a task to a user",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *AssignTaskInput) (*AssignTaskOutput, error) {
		actor, err := adminActor(ctx, store)
		if err != nil {
			return nil, err
		}

		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		assignee, err := store.Users().GetByID(ctx, input.Body.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("assignee not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up assignee", err)
		}

		existing.AssignedTo = &assignee.ID
		existing.AssignedToEmail = assignee.Email
		existing.UpdatedAt = time.Now()

		if err := store.Tasks().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to assign task", err)
		}

		notifier.NotifyAssigned(ctx, existing, assignee, actor)

		return &AssignTaskOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*struct{}, error) {
		if _, err := adminActor(ctx, store); err != nil {
			return nil, err
		}

		if err := store.Tasks().Delete(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete task", err)
		}

		return nil, nil
	})
}
