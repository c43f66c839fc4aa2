package relay

import (
	"context"
	"sync"
)

// MockChannel implements Channel for testing. It records every relay and
// answers with the configured result.
type MockChannel struct {
	mu      sync.Mutex
	name    string
	Succeed bool
	relayed []RelayedMessage
}

// RelayedMessage records one Relay call.
type RelayedMessage struct {
	Address string
	Text    string
}

// NewMockChannel creates a mock channel with the given name that reports
// success on every relay.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name, Succeed: true}
}

// Name implements Channel.
func (m *MockChannel) Name() string { return m.name }

// Relay implements Channel.
func (m *MockChannel) Relay(ctx context.Context, address, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayed = append(m.relayed, RelayedMessage{Address: address, Text: text})
	return m.Succeed
}

// Relayed returns a copy of all recorded relays.
func (m *MockChannel) Relayed() []RelayedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RelayedMessage, len(m.relayed))
	copy(out, m.relayed)
	return out
}
