package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/taskwire/taskwire/internal/api/v1"
	"github.com/taskwire/taskwire/internal/auth"
	"github.com/taskwire/taskwire/internal/domain"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		_, api := humatest.New(t)
		svc := &mockAuthService{
			registerFunc: func(_ context.Context, email, password, name string) (*domain.User, error) {
				assert.Equal(t, "new@example.com", email)
				assert.Equal(t, "password123", password)
				assert.Equal(t, "New User", name)
				return &domain.User{ID: userID, Email: email, Name: name, Role: domain.RoleUser, PasswordHash: "secret"}, nil
			},
			loginFunc: func(_ context.Context, _, _ string) (string, string, error) {
				return "access-token", "refresh-token", nil
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/register", map[string]any{
			"email":    "new@example.com",
			"password": "password123",
			"name":     "New User",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			User         *domain.User `json:"user"`
			AccessToken  string       `json:"access_token"`
			RefreshToken string       `json:"refresh_token"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, userID, body.User.ID)
		assert.Equal(t, "access-token", body.AccessToken)
		assert.Equal(t, "refresh-token", body.RefreshToken)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockAuthService{
			registerFunc: func(_ context.Context, _, _, _ string) (*domain.User, error) {
				return nil, auth.ErrUserAlreadyExists
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/register", map[string]any{
			"email":    "dup@example.com",
			"password": "password123",
			"name":     "Dup",
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("short_password_rejected", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuthRoutes(api, &mockAuthService{})

		resp := api.Post("/auth/register", map[string]any{
			"email":    "new@example.com",
			"password": "short",
			"name":     "New User",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockAuthService{
			loginFunc: func(_ context.Context, email, password string) (string, string, error) {
				assert.Equal(t, "u@example.com", email)
				assert.Equal(t, "pw", password)
				return "access-token", "refresh-token", nil
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/login", map[string]any{
			"email":    "u@example.com",
			"password": "pw",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "access-token", body["access_token"])
		assert.Equal(t, "refresh-token", body["refresh_token"])
	})

	t.Run("invalid_credentials", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockAuthService{
			loginFunc: func(_ context.Context, _, _ string) (string, string, error) {
				return "", "", auth.ErrInvalidCredentials
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/login", map[string]any{
			"email":    "u@example.com",
			"password": "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("service_error", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockAuthService{
			loginFunc: func(_ context.Context, _, _ string) (string, string, error) {
				return "", "", errors.New("db down")
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/login", map[string]any{
			"email":    "u@example.com",
			"password": "pw",
		})

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockAuthService{
			refreshTokenFunc: func(_ context.Context, refreshToken string) (string, error) {
				assert.Equal(t, "valid-refresh", refreshToken)
				return "new-access", nil
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/refresh", map[string]any{
			"refresh_token": "valid-refresh",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "new-access", body["access_token"])
	})

	t.Run("invalid_token", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockAuthService{
			refreshTokenFunc: func(_ context.Context, _ string) (string, error) {
				return "", auth.ErrInvalidToken
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/refresh", map[string]any{
			"refresh_token": "expired",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
