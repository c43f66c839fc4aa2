package relay

import (
	"context"
	"strings"

	"github.com/kindredapp/kindred/internal/models"
	twilio "github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// messageCreator abstracts the one Twilio API method we use, enabling test
// mocks.
type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// WhatsAppChannel relays messages over WhatsApp via the Twilio API.
type WhatsAppChannel struct {
	api    messageCreator
	from   string
	logger *zap.Logger
}

// NewWhatsAppChannel creates a WhatsApp channel with Twilio credentials.
// from is the sending number in "whatsapp:+E164" form.
func NewWhatsAppChannel(accountSID, authToken, from string, logger *zap.Logger) *WhatsAppChannel {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &WhatsAppChannel{api: client.Api, from: from, logger: logger}
}

// Name implements Channel.
func (c *WhatsAppChannel) Name() string { return models.ChannelWhatsApp }

// Relay implements Channel. Addresses may be given with or without the
// "whatsapp:" scheme.
func (c *WhatsAppChannel) Relay(ctx context.Context, address, text string) bool {
	to := address
	if !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(text)

	if _, err := c.api.CreateMessage(params); err != nil {
		c.logger.Warn("whatsapp relay failed",
			zap.String("to", to),
			zap.Error(err))
		return false
	}
	return true
}
