package publish

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Slack posts a one-line summary to a channel.
type Slack struct {
	client  *slack.Client
	channel string
}

// NewSlack creates a Slack publisher. apiURL is optional and overrides the
// Web API base URL.
func NewSlack(token, channel, apiURL string) *Slack {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Slack{client: slack.New(token, opts...), channel: channel}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Publish(ctx context.Context, n Notice) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(Message(n), false))
	if err != nil {
		return fmt.Errorf("post to %s: %w", s.channel, err)
	}
	return nil
}
