package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient implements ProviderClient for the Google Gemini API via the
// genai SDK. One client serves the whole "gemini" family; the model name is
// supplied per call.
type GeminiClient struct {
	client *genai.Client
	log    *zap.Logger
}

// NewGeminiClient creates a Gemini client. Construction fails when the SDK
// cannot build a client (bad key material, environment problems); the
// Gateway maps that to a fatal envelope for the requesting call.
func NewGeminiClient(ctx context.Context, apiKey string, log *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{client: client, log: log}, nil
}

// Generate sends the conversation to the given model. The first system
// message becomes the system instruction; assistant messages map to the
// model role. MAX_TOKENS and SAFETY finish reasons classify to token_limit
// and safety respectively; everything else that fails is transient.
func (c *GeminiClient) Generate(ctx context.Context, model string, messages []Message) Envelope {
	var system string
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			if system == "" {
				system = msg.Content
			}
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return Failure(ErrorTypeTransient, fmt.Sprintf("gemini request failed: %v", err))
	}

	if len(resp.Candidates) > 0 {
		switch resp.Candidates[0].FinishReason {
		case genai.FinishReasonMaxTokens:
			return Failure(ErrorTypeTokenLimit, fmt.Sprintf("response from model %s was truncated at the max token limit", model))
		case genai.FinishReasonSafety:
			return Failure(ErrorTypeSafety, fmt.Sprintf("response from model %s was blocked by safety settings", model))
		}
	}

	text := resp.Text()
	if text == "" {
		return Failure(ErrorTypeTransient, "no completion returned")
	}

	c.log.Debug("gemini completion", zap.String("model", model), zap.Int("chars", len(text)))
	return Success(strings.TrimSpace(text))
}
