package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taskwire/taskwire/internal/auth"
	"github.com/taskwire/taskwire/internal/domain"
)

type ListUsersOutput struct {
	Body []*domain.User
}

type GetMeOutput struct {
	Body *domain.User
}

type UpdateMeInput struct {
	Body struct {
		Email    string `json:"email,omitempty" maxLength:"255" doc:"New email"`
		Name     string `json:"name,omitempty" maxLength:"255" doc:"New display name"`
		Password string `json:"password,omitempty" maxLength:"128" doc:"New password"` //nolint:gosec // G117: profile update DTO
	}
}

type UpdateMeOutput struct {
	Body *domain.User
}

func RegisterUserRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users (assignment picker)",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
		users, err := store.Users().List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list users", err)
		}

		for _, u := range users {
			u.PasswordHash = ""
		}

		return &ListUsersOutput{Body: users}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Get the authenticated user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *struct{}) (*GetMeOutput, error) {
		user, err := currentUser(ctx, store)
		if err != nil {
			return nil, err
		}

		user.PasswordHash = ""

		return &GetMeOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-me",
		Method:      http.MethodPatch,
		Path:        "/users/me",
		Summary:     "Update the authenticated user's profile",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UpdateMeInput) (*UpdateMeOutput, error) {
		user, err := currentUser(ctx, store)
		if err != nil {
			return nil, err
		}

		if input.Body.Email != "" && input.Body.Email != user.Email {
			existing, lookupErr := store.Users().GetByEmail(ctx, input.Body.Email)
			if lookupErr == nil && existing != nil && existing.ID != user.ID {
				return nil, huma.Error409Conflict("email already in use")
			}
			if lookupErr != nil && !errors.Is(lookupErr, domain.ErrNotFound) {
				return nil, huma.Error500InternalServerError("failed to check email", lookupErr)
			}
			user.Email = input.Body.Email
		}
		if input.Body.Name != "" {
			user.Name = input.Body.Name
		}
		if input.Body.Password != "" {
			if len(input.Body.Password) < 8 {
				return nil, huma.Error400BadRequest("password must be at least 8 characters")
			}
			hash, hashErr := auth.HashPassword(input.Body.Password)
			if hashErr != nil {
				return nil, huma.Error500InternalServerError("failed to hash password", hashErr)
			}
			user.PasswordHash = hash
		}
		user.UpdatedAt = time.Now()

		if err := store.Users().Update(ctx, user); err != nil {
			return nil, huma.Error500InternalServerError("failed to update profile", err)
		}

		user.PasswordHash = ""

		return &UpdateMeOutput{Body: user}, nil
	})
}
