package generate

import (
	"context"
	"sync"

	"github.com/kindredapp/kindred/internal/models"
)

// MockGenerator implements Generator for testing. Each method returns the
// configured value or error; calls are counted.
type MockGenerator struct {
	mu sync.Mutex

	Text      string
	TextErr   error
	ReplyText string
	ReplyErr  error
	Voice     *VoiceRef
	VoiceErr  error

	// FailFor causes ProactiveMessage to return TextErr only for the given
	// persona IDs, succeeding for everyone else.
	FailFor map[uint]bool

	ProactiveCalls []uint
	ReplyCalls     []uint
	VoiceCalls     []uint
}

// NewMockGenerator returns a mock producing text for every persona.
func NewMockGenerator(text string) *MockGenerator {
	return &MockGenerator{Text: text, ReplyText: text}
}

// ProactiveMessage returns the configured text or error.
func (m *MockGenerator) ProactiveMessage(ctx context.Context, persona *models.Persona, history []models.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProactiveCalls = append(m.ProactiveCalls, persona.ID)
	if m.FailFor != nil {
		if m.FailFor[persona.ID] {
			return "", m.TextErr
		}
		return m.Text, nil
	}
	if m.TextErr != nil {
		return "", m.TextErr
	}
	return m.Text, nil
}

// Reply returns the configured reply text or error.
func (m *MockGenerator) Reply(ctx context.Context, persona *models.Persona, history []models.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplyCalls = append(m.ReplyCalls, persona.ID)
	if m.ReplyErr != nil {
		return "", m.ReplyErr
	}
	return m.ReplyText, nil
}

// SynthesizeVoice returns the configured voice ref or error.
func (m *MockGenerator) SynthesizeVoice(ctx context.Context, text string, persona *models.Persona) (*VoiceRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VoiceCalls = append(m.VoiceCalls, persona.ID)
	if m.VoiceErr != nil {
		return nil, m.VoiceErr
	}
	return m.Voice, nil
}
