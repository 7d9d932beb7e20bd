package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/taskwire/taskwire/internal/domain"
)

// SlackAPI abstracts the subset of the Slack client used by SlackNotifier.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackNotifier posts a one-line message to a configured channel when a
// task is assigned. It is strictly best-effort: the coordinator logs and
// ignores failures.
type SlackNotifier struct {
	api     SlackAPI
	channel string
}

func NewSlackNotifier(api SlackAPI, channel string) *SlackNotifier {
	return &SlackNotifier{api: api, channel: channel}
}

// TaskAssigned announces an assignment in the configured channel.
func (n *SlackNotifier) TaskAssigned(ctx context.Context, task *domain.Task, assignee *domain.User) error {
	text := fmt.Sprintf("Task %q assigned to %s", task.Title, assignee.Email)

	_, _, err := n.api.PostMessageContext(ctx, n.channel, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify.SlackNotifier.TaskAssigned: %w", err)
	}

	return nil
}
