package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taskwire/taskwire/internal/domain"
	"github.com/taskwire/taskwire/internal/server/middleware"
)

type ListEventLogsInput struct {
	ActorID   string `query:"actor_id" doc:"Filter by acting user id"`
	SubjectID string `query:"subject_id" doc:"Filter by affected task id"`
	Limit     int    `query:"limit" minimum:"1" maximum:"500" default:"100" doc:"Page size"`
	Offset    int    `query:"offset" minimum:"0" default:"0" doc:"Page offset"`
}

type ListEventLogsOutput struct {
	Body []*domain.EventLogRecord
}

func RegisterEventLogRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-event-logs",
		Method:      http.MethodGet,
		Path:        "/event-logs",
		Summary:     "List audit records (admin only)",
		Tags:        []string{"EventLogs"},
	}, func(ctx context.Context, input *ListEventLogsInput) (*ListEventLogsOutput, error) {
		role, ok := middleware.RoleFromContext(ctx)
		if !ok || role != domain.RoleAdmin {
			return nil, huma.Error403Forbidden("admin role required")
		}

		var (
			records []*domain.EventLogRecord
			err     error
		)
		switch {
		case input.ActorID != "":
			records, err = store.EventLogs().ListByActor(ctx, input.ActorID)
		case input.SubjectID != "":
			records, err = store.EventLogs().ListBySubject(ctx, input.SubjectID)
		default:
			records, err = store.EventLogs().List(ctx, input.Limit, input.Offset)
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list event logs", err)
		}

		return &ListEventLogsOutput{Body: records}, nil
	})
}
