// Package generate defines the content-generation capability: proactive
// message text, reactive replies, and optional voice renderings for a
// persona.
package generate

import (
	"context"
	"errors"

	"github.com/kindredapp/kindred/internal/models"
)

// Failure kinds the dispatch loop distinguishes. Anything else coming out
// of a generator is treated as an ordinary per-persona failure.
var (
	// ErrUnavailable means the backing model could not be reached.
	ErrUnavailable = errors.New("generate: backend unavailable")
	// ErrQuotaExceeded means the backing model rate-limited us.
	ErrQuotaExceeded = errors.New("generate: backend quota exceeded")
)

// VoiceRef points at a synthesized audio rendering of a message.
type VoiceRef struct {
	URL          string
	DurationSecs int
}

// Generator produces message content for a persona. Implementations must
// honor ctx cancellation on every call.
type Generator interface {
	// ProactiveMessage produces an unprompted message in the persona's
	// voice, conditioned on recent conversation history.
	ProactiveMessage(ctx context.Context, persona *models.Persona, history []models.Message) (string, error)

	// Reply produces a response to the conversation, whose history ends
	// with a user message.
	Reply(ctx context.Context, persona *models.Persona, history []models.Message) (string, error)

	// SynthesizeVoice renders text as audio. Best-effort: a nil VoiceRef
	// with a nil error means the capability is not configured.
	SynthesizeVoice(ctx context.Context, text string, persona *models.Persona) (*VoiceRef, error)
}

// Retryable reports whether the dispatch loop should degrade to the
// template fallback rather than failing the persona.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrQuotaExceeded)
}
