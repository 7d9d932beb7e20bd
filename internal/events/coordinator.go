package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/taskwire/taskwire/internal/domain"
	"github.com/taskwire/taskwire/internal/hub"
)

// Broadcaster fans a frame out to room members. *hub.Hub satisfies it.
type Broadcaster interface {
	Broadcast(rooms []string, payload []byte)
	BroadcastAll(payload []byte)
}

// AssigneeNotifier pings the assignee out-of-band (e.g. Slack) when a
// task lands on them. Best-effort.
type AssigneeNotifier interface {
	TaskAssigned(ctx context.Context, task *domain.Task, assignee *domain.User) error
}

// Coordinator owns the policy for which rooms and messages a task
// mutation produces. Callers invoke it only after the store write has
// committed; every Notify* issues the broadcast and exactly one audit
// append before returning. Broadcast and audit are deliberately not
// transactional: a failed append is logged and the event still goes out.
type Coordinator struct {
	hub      Broadcaster
	logs     domain.EventLogRepository
	relay    *Relay           // nil in single-instance deployments
	notifier AssigneeNotifier // nil when Slack is not configured
}

func NewCoordinator(b Broadcaster, logs domain.EventLogRepository, relay *Relay, notifier AssigneeNotifier) *Coordinator {
	return &Coordinator{hub: b, logs: logs, relay: relay, notifier: notifier}
}

// NotifyCreated announces a new task to every connection. Admin-room
// members are covered by the global fan-out; the assignee, if the task
// was created already assigned, additionally gets an "assigned to you"
// variant in their user room.
func (c *Coordinator) NotifyCreated(ctx context.Context, task *domain.Task, actor *domain.User) {
	frame, err := marshalEnvelope(KindCreated, TaskPayload{
		TaskID:  task.ID,
		Task:    task,
		Message: fmt.Sprintf("New task %q has been created", task.Title),
		Actor:   actor.Email,
	})
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID.String()).Msg("events: marshal created")
		return
	}
	c.fanoutAll(ctx, frame)

	if task.AssignedTo != nil {
		c.fanoutAssigneeVariant(ctx, task, *task.AssignedTo, KindCreated,
			fmt.Sprintf("Task %q has been assigned to you", task.Title), actor.Email)
	}

	c.appendLog(ctx, KindCreated, actor.ID.String(), task.ID,
		fmt.Sprintf("Task %s created by user %s", task.ID, actor.ID))
}

// NotifyUpdated announces a field change to the task room, the admin
// room and, when the task is assigned, the assignee's user room. A
// lightweight status signal additionally goes to every connection.
func (c *Coordinator) NotifyUpdated(ctx context.Context, task *domain.Task, actor *domain.User) {
	frame, err := marshalEnvelope(KindUpdated, TaskPayload{
		TaskID:  task.ID,
		Task:    task,
		Message: fmt.Sprintf("Task %q has been updated", task.Title),
		Actor:   actor.Email,
	})
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID.String()).Msg("events: marshal updated")
		return
	}
	c.fanout(ctx, []string{hub.TaskRoom(task.ID), hub.AdminRoom}, frame)

	if task.AssignedTo != nil {
		c.fanoutAssigneeVariant(ctx, task, *task.AssignedTo, KindUpdated,
			fmt.Sprintf("Task %q assigned to you has been updated", task.Title), actor.Email)
	}

	statusFrame, err := marshalEnvelope(KindStatusChanged, StatusPayload{
		TaskID:    task.ID,
		Status:    task.Status,
		UpdatedAt: task.UpdatedAt,
	})
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID.String()).Msg("events: marshal status signal")
	} else {
		c.fanoutAll(ctx, statusFrame)
	}

	c.appendLog(ctx, KindUpdated, actor.ID.String(), task.ID,
		fmt.Sprintf("Task %s updated by user %s", task.ID, actor.ID))
}

// NotifyAssigned announces a (re)assignment to the new assignee's user
// room, the task room and the admin room; each message names the new
// assignee's email. The audit record's actor is the user who performed
// the assignment, not the assignee.
func (c *Coordinator) NotifyAssigned(ctx context.Context, task *domain.Task, assignee, actor *domain.User) {
	frame, err := marshalEnvelope(KindAssigned, TaskPayload{
		TaskID:  task.ID,
		Task:    task,
		Message: fmt.Sprintf("Task %q has been assigned to %s", task.Title, assignee.Email),
		Actor:   actor.Email,
	})
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID.String()).Msg("events: marshal assigned")
		return
	}
	c.fanout(ctx, []string{hub.UserRoom(assignee.ID), hub.TaskRoom(task.ID), hub.AdminRoom}, frame)

	if c.notifier != nil {
		if err := c.notifier.TaskAssigned(ctx, task, assignee); err != nil {
			log.Warn().Err(err).Str("task_id", task.ID.String()).Msg("events: assignee notification failed")
		}
	}

	c.appendLog(ctx, KindAssigned, actor.ID.String(), task.ID,
		fmt.Sprintf("Task %s assigned to user %s", task.ID, assignee.ID))
}

func (c *Coordinator) fanoutAssigneeVariant(ctx context.Context, task *domain.Task, assignee uuid.UUID, kind Kind, message, actorEmail string) {
	frame, err := marshalEnvelope(kind, TaskPayload{
		TaskID:  task.ID,
		Task:    task,
		Message: message,
		Actor:   actorEmail,
	})
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID.String()).Msg("events: marshal assignee variant")
		return
	}
	c.fanout(ctx, []string{hub.UserRoom(assignee)}, frame)
}

func (c *Coordinator) fanout(ctx context.Context, rooms []string, frame []byte) {
	c.hub.Broadcast(rooms, frame)
	if c.relay != nil {
		c.relay.PublishRooms(ctx, rooms, frame)
	}
}

func (c *Coordinator) fanoutAll(ctx context.Context, frame []byte) {
	c.hub.BroadcastAll(frame)
	if c.relay != nil {
		c.relay.PublishAll(ctx, frame)
	}
}

// appendLog writes the audit record for a mutation. Failure never
// propagates: the task write already committed and the event is already
// on the wire.
func (c *Coordinator) appendLog(ctx context.Context, kind Kind, actorID string, subjectID uuid.UUID, detail string) {
	rec := &domain.EventLogRecord{
		ID:        uuid.New(),
		Action:    kind.Action(),
		ActorID:   actorID,
		SubjectID: subjectID.String(),
		Detail:    detail,
		CreatedAt: time.Now(),
	}

	if err := c.logs.Append(ctx, rec); err != nil {
		log.Warn().Err(err).
			Str("action", rec.Action).
			Str("subject_id", rec.SubjectID).
			Msg("events: audit append failed")
	}
}
