package relay

import (
	"context"

	"github.com/kindredapp/kindred/internal/models"
	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"
)

// slackPoster abstracts the Slack API method we use, enabling test mocks.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackChannel relays messages as Slack DMs or channel posts. The address
// is a Slack channel or user ID.
type SlackChannel struct {
	client slackPoster
	logger *zap.Logger
}

// NewSlackChannel creates a Slack channel from a bot token.
func NewSlackChannel(botToken string, logger *zap.Logger) *SlackChannel {
	return &SlackChannel{client: slackapi.New(botToken), logger: logger}
}

// Name implements Channel.
func (c *SlackChannel) Name() string { return models.ChannelSlack }

// Relay implements Channel.
func (c *SlackChannel) Relay(ctx context.Context, address, text string) bool {
	_, _, err := c.client.PostMessageContext(ctx, address,
		slackapi.MsgOptionText(text, false))
	if err != nil {
		c.logger.Warn("slack relay failed",
			zap.String("channel", address),
			zap.Error(err))
		return false
	}
	return true
}
