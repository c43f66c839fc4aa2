// Package relay mirrors persona messages to out-of-band channels (WhatsApp,
// Slack, Discord). Delivery failure is an expected outcome, so Relay reports
// a boolean instead of an error.
package relay

import "context"

// Channel delivers text to an external address. Implementations log their
// own failures; callers only see success or not.
type Channel interface {
	// Name returns the channel identifier personas reference in their
	// delivery settings, e.g. "whatsapp".
	Name() string

	// Relay sends text to address. False means the message did not go out;
	// the in-app copy stands either way.
	Relay(ctx context.Context, address, text string) bool
}

// Registry holds the configured channels keyed by name.
type Registry struct {
	channels map[string]Channel
}

// NewRegistry builds a registry from the given channels.
func NewRegistry(channels ...Channel) *Registry {
	r := &Registry{channels: make(map[string]Channel, len(channels))}
	for _, ch := range channels {
		r.channels[ch.Name()] = ch
	}
	return r
}

// Get returns the named channel, or nil if it is not configured.
func (r *Registry) Get(name string) Channel {
	if r == nil {
		return nil
	}
	return r.channels[name]
}

// Names lists the configured channel names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	return names
}
