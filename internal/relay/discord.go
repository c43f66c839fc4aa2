package relay

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/kindredapp/kindred/internal/models"
	"go.uber.org/zap"
)

// discordSession abstracts the discordgo methods we use, enabling test mocks.
type discordSession interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordChannel relays messages as Discord DMs. The address is a Discord
// user ID.
type DiscordChannel struct {
	session discordSession
	logger  *zap.Logger
}

// NewDiscordChannel creates a Discord channel from a bot token.
func NewDiscordChannel(botToken string, logger *zap.Logger) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("relay: discord session: %w", err)
	}
	return &DiscordChannel{session: session, logger: logger}, nil
}

// Name implements Channel.
func (c *DiscordChannel) Name() string { return models.ChannelDiscord }

// Relay implements Channel. Opens (or reuses) the DM channel with the user,
// then sends.
func (c *DiscordChannel) Relay(ctx context.Context, address, text string) bool {
	dm, err := c.session.UserChannelCreate(address, discordgo.WithContext(ctx))
	if err != nil {
		c.logger.Warn("discord dm channel failed",
			zap.String("user", address),
			zap.Error(err))
		return false
	}
	if _, err := c.session.ChannelMessageSend(dm.ID, text, discordgo.WithContext(ctx)); err != nil {
		c.logger.Warn("discord relay failed",
			zap.String("user", address),
			zap.Error(err))
		return false
	}
	return true
}
