package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kindredapp/kindred/internal/models"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// historyWindow caps how much conversation history is sent to the model.
const historyWindow = 20

// speechWordsPerSecond approximates TTS speaking rate for the duration
// estimate stored on voice messages.
const speechWordsPerSecond = 2.5

// OpenAIGenerator implements Generator against the OpenAI API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	voiceModel  string
	voice       string
	maxTokens   int
	temperature float64
	mediaDir    string
	baseURL     string
	logger      *zap.Logger
}

// OpenAIOpts holds construction parameters for OpenAIGenerator.
type OpenAIOpts struct {
	APIKey      string
	Model       string
	VoiceModel  string
	Voice       string
	MaxTokens   int
	Temperature float64
	MediaDir    string // voice synthesis disabled when empty
	BaseURL     string // public prefix for media URLs
}

// NewOpenAIGenerator creates a generator backed by the OpenAI API.
func NewOpenAIGenerator(opts OpenAIOpts, logger *zap.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:      openai.NewClient(opts.APIKey),
		model:       opts.Model,
		voiceModel:  opts.VoiceModel,
		voice:       opts.Voice,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		mediaDir:    opts.MediaDir,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		logger:      logger,
	}
}

// ProactiveMessage produces an unprompted check-in message in the persona's
// voice.
func (g *OpenAIGenerator) ProactiveMessage(ctx context.Context, persona *models.Persona, history []models.Message) (string, error) {
	msgs := g.chatHistory(persona, history)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		Content: "Write a short, natural message reaching out to the user unprompted, " +
			"as this persona would. Reference shared history or interests if any. " +
			"Do not mention being an AI or that this message is scheduled.",
	})
	return g.complete(ctx, persona, msgs)
}

// Reply produces a response to a conversation whose history ends with a
// user message.
func (g *OpenAIGenerator) Reply(ctx context.Context, persona *models.Persona, history []models.Message) (string, error) {
	return g.complete(ctx, persona, g.chatHistory(persona, history))
}

func (g *OpenAIGenerator) complete(ctx context.Context, persona *models.Persona, msgs []openai.ChatCompletionMessage) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    msgs,
		MaxTokens:   g.maxTokens,
		Temperature: float32(g.temperature),
	})
	if err != nil {
		return "", classifyError(persona, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion for persona %d", ErrUnavailable, persona.ID)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: blank completion for persona %d", ErrUnavailable, persona.ID)
	}
	return text, nil
}

// SynthesizeVoice renders text to an mp3 under the media directory and
// returns its public URL. Returns (nil, nil) when voice is not configured.
func (g *OpenAIGenerator) SynthesizeVoice(ctx context.Context, text string, persona *models.Persona) (*VoiceRef, error) {
	if g.mediaDir == "" {
		return nil, nil
	}

	resp, err := g.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(g.voiceModel),
		Input: text,
		Voice: openai.SpeechVoice(g.voice),
	})
	if err != nil {
		return nil, classifyError(persona, err)
	}
	defer resp.Close()

	if err := os.MkdirAll(g.mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("generate: media dir: %w", err)
	}
	name := uuid.NewString() + ".mp3"
	path := filepath.Join(g.mediaDir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("generate: create audio file: %w", err)
	}
	if _, err := io.Copy(f, resp); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("generate: write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("generate: close audio file: %w", err)
	}

	g.logger.Debug("voice synthesized",
		zap.Uint("persona", persona.ID),
		zap.String("file", name))

	return &VoiceRef{
		URL:          g.baseURL + "/media/" + name,
		DurationSecs: estimateDuration(text),
	}, nil
}

// chatHistory builds the system prompt plus a bounded window of prior
// messages.
func (g *OpenAIGenerator) chatHistory(persona *models.Persona, history []models.Message) []openai.ChatCompletionMessage {
	msgs := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: PersonaPrompt(persona),
	}}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.IsFromPersona {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return msgs
}

// classifyError maps OpenAI API failures onto the generator error taxonomy.
func classifyError(persona *models.Persona, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return fmt.Errorf("%w: persona %d: %v", ErrQuotaExceeded, persona.ID, err)
	}
	return fmt.Errorf("%w: persona %d: %v", ErrUnavailable, persona.ID, err)
}

// estimateDuration approximates spoken length from word count. The speech
// API returns raw audio with no duration metadata; this only feeds a UI
// hint.
func estimateDuration(text string) int {
	words := len(strings.Fields(text))
	secs := int(float64(words)/speechWordsPerSecond + 0.5)
	if secs < 1 {
		secs = 1
	}
	return secs
}
