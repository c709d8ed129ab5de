package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Timeout: 10 * time.Minute, // large-context models need extended timeouts
	}
}

// OpenAIClient implements ProviderClient for the OpenAI chat completions API.
// The model name is supplied per call; one client serves the whole "gpt"
// family.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	log         *zap.Logger
	mu          sync.Mutex
	lastRequest time.Time
}

// NewOpenAIClient creates an OpenAI client with default config.
func NewOpenAIClient(apiKey string, log *zap.Logger) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey), log)
}

// NewOpenAIClientWithConfig creates an OpenAI client with custom config.
func NewOpenAIClientWithConfig(cfg OpenAIConfig, log *zap.Logger) *OpenAIClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate sends the conversation to the given model and classifies the
// outcome. Transport failures and API errors are transient; a truncated
// response is token_limit; a content-filter refusal is safety.
func (c *OpenAIClient) Generate(ctx context.Context, model string, messages []Message) Envelope {
	if c.apiKey == "" {
		return Failure(ErrorTypeFatal, "OpenAI API key not configured")
	}

	// Space out requests to stay under the provider rate limit.
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	reqBody := openAIRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   8192,
		Temperature: 0.2,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Failure(ErrorTypeTransient, fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return Failure(ErrorTypeTransient, fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Failure(ErrorTypeTransient, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(ErrorTypeTransient, fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		return Failure(ErrorTypeTransient, fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var oaResp openAIResponse
	if err := json.Unmarshal(body, &oaResp); err != nil {
		return Failure(ErrorTypeTransient, fmt.Sprintf("failed to parse response: %v", err))
	}

	if oaResp.Error != nil {
		return Failure(ErrorTypeTransient, fmt.Sprintf("API error: %s", oaResp.Error.Message))
	}
	if len(oaResp.Choices) == 0 {
		return Failure(ErrorTypeTransient, "no completion returned")
	}

	choice := oaResp.Choices[0]
	c.log.Debug("openai completion",
		zap.String("model", model),
		zap.String("finish_reason", choice.FinishReason),
		zap.Int("total_tokens", oaResp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)))

	switch choice.FinishReason {
	case "length":
		return Failure(ErrorTypeTokenLimit, fmt.Sprintf("response from model %s was truncated at the max token limit", model))
	case "content_filter":
		return Failure(ErrorTypeSafety, fmt.Sprintf("response from model %s was withheld by content filtering", model))
	}

	return Success(strings.TrimSpace(choice.Message.Content))
}
