package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/taskwire/taskwire/internal/api/v1"
	"github.com/taskwire/taskwire/internal/api/ws"
	"github.com/taskwire/taskwire/internal/events"
	"github.com/taskwire/taskwire/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc v1.AuthService) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, coordinator *events.Coordinator) {
	v1.RegisterTaskRoutes(api, store, coordinator)
	v1.RegisterUserRoutes(api, store)
}

func registerAdminRoutes(api huma.API, store *postgres.Store) {
	v1.RegisterEventLogRoutes(api, store)
}

func registerWSRoutes(r chi.Router, gateway *ws.Gateway) {
	r.Get("/events", gateway.ServeEvents)
}
