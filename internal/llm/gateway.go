package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Provider identifies a model provider family.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// ProviderFor maps a model identifier to its provider family by substring,
// matching how call sites name models ("gpt-5", "gemini-2.5-pro").
// Returns false for an unrecognized family.
func ProviderFor(model string) (Provider, bool) {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "gpt"):
		return ProviderOpenAI, true
	case strings.Contains(lower, "gemini"):
		return ProviderGemini, true
	default:
		return "", false
	}
}

// Credentials holds the per-provider API keys and endpoint overrides the
// Gateway uses when it first constructs a provider client.
type Credentials struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string // empty means the public endpoint
	GeminiAPIKey  string
	Timeout       time.Duration
}

// Gateway issues single requests to named models. Provider clients are
// constructed lazily on first use per family and cached for the process
// lifetime. All failures, including missing credentials for a newly
// requested provider, surface as error envelopes -- a missing key is fatal
// for that call only, never for the process.
type Gateway struct {
	creds Credentials
	log   *zap.Logger

	mu      sync.Mutex
	clients map[Provider]ProviderClient
}

// NewGateway creates a gateway with the given credentials.
func NewGateway(creds Credentials, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		creds:   creds,
		log:     log,
		clients: make(map[Provider]ProviderClient),
	}
}

// Call sends one request to the named model and returns an envelope.
// Never returns a Go error for ordinary provider failures.
func (g *Gateway) Call(ctx context.Context, messages []Message, model string) Envelope {
	provider, ok := ProviderFor(model)
	if !ok {
		return Failure(ErrorTypeFatal, fmt.Sprintf("model provider for %q not recognized", model))
	}

	client, err := g.clientFor(ctx, provider)
	if err != nil {
		return Failure(ErrorTypeFatal, err.Error())
	}

	return client.Generate(ctx, model, messages)
}

// clientFor returns the cached client for a provider, constructing it on
// first use. Construction errors are returned to the caller and mapped to
// fatal envelopes; the failed construction is not cached, so a later call
// after credentials are fixed can succeed.
func (g *Gateway) clientFor(ctx context.Context, provider Provider) (ProviderClient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if client, ok := g.clients[provider]; ok {
		return client, nil
	}

	var client ProviderClient
	switch provider {
	case ProviderOpenAI:
		if g.creds.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("cannot use OpenAI model: OPENAI_API_KEY is not set")
		}
		cfg := DefaultOpenAIConfig(g.creds.OpenAIAPIKey)
		if g.creds.OpenAIBaseURL != "" {
			cfg.BaseURL = g.creds.OpenAIBaseURL
		}
		if g.creds.Timeout > 0 {
			cfg.Timeout = g.creds.Timeout
		}
		client = NewOpenAIClientWithConfig(cfg, g.log)

	case ProviderGemini:
		if g.creds.GeminiAPIKey == "" {
			return nil, fmt.Errorf("cannot use Gemini model: GEMINI_API_KEY is not set")
		}
		gc, err := NewGeminiClient(ctx, g.creds.GeminiAPIKey, g.log)
		if err != nil {
			return nil, err
		}
		client = gc

	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	g.clients[provider] = client
	g.log.Info("provider client initialized", zap.String("provider", string(provider)))
	return client, nil
}
