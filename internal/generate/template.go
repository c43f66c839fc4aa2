package generate

import (
	"strings"

	"github.com/kindredapp/kindred/internal/models"
)

// Canned proactive openers. {topic} is replaced with one of the persona's
// interest tags.
var fallbackTemplates = []string{
	"Hey! I was just thinking about {topic} and wanted to check in. How have you been?",
	"I came across something about {topic} today and it made me think of our chats. What's new with you?",
	"Quick hello! Anything interesting happening with {topic} on your end lately?",
	"Hi! I've been curious about {topic} all day. How's your week going?",
}

const fallbackNoTopic = "Hey! Just checking in - how have you been lately?"

// FallbackText produces a deterministic template-based proactive message
// from the persona's interest tags, used when the generation backend is
// unreachable or rate-limited. The same persona always yields the same
// text, so a flapping backend cannot produce duplicate-looking spam with
// varying phrasing.
func FallbackText(persona *models.Persona) string {
	tags := persona.InterestTags()
	if len(tags) == 0 {
		return fallbackNoTopic
	}
	template := fallbackTemplates[int(persona.ID)%len(fallbackTemplates)]
	topic := tags[int(persona.ID)%len(tags)]
	return strings.ReplaceAll(template, "{topic}", topic)
}
