package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway returns one envelope per call, in order.
type scriptedGateway struct {
	responses []Envelope
	calls     []string
}

func (g *scriptedGateway) Call(_ context.Context, _ []Message, model string) Envelope {
	g.calls = append(g.calls, model)
	if len(g.calls) > len(g.responses) {
		return Failure(ErrorTypeFatal, "script exhausted")
	}
	return g.responses[len(g.calls)-1]
}

func TestDispatcher_PrimarySuccessNeverFallsBack(t *testing.T) {
	gateway := &scriptedGateway{responses: []Envelope{Success("fine")}}
	d := NewDispatcher(gateway, nil)

	result := d.CallWithFallback(context.Background(), nil, "gpt-5", "gemini-2.5-pro")

	require.True(t, result.OK())
	assert.Equal(t, "fine", result.Content)
	assert.Equal(t, []string{"gpt-5"}, gateway.calls)
}

func TestDispatcher_FatalErrorNeverRetried(t *testing.T) {
	gateway := &scriptedGateway{responses: []Envelope{
		Failure(ErrorTypeFatal, "no such model"),
	}}
	d := NewDispatcher(gateway, nil)

	result := d.CallWithFallback(context.Background(), nil, "gpt-5", "gemini-2.5-pro")

	assert.False(t, result.OK())
	assert.Equal(t, ErrorTypeFatal, result.ErrorType)
	assert.Len(t, gateway.calls, 1)
}

func TestDispatcher_TransientTriggersExactlyOneFallback(t *testing.T) {
	for _, errType := range []ErrorType{ErrorTypeTransient, ErrorTypeTokenLimit, ErrorTypeSafety} {
		t.Run(string(errType), func(t *testing.T) {
			gateway := &scriptedGateway{responses: []Envelope{
				Failure(errType, "primary down"),
				Success("fallback answer"),
			}}
			d := NewDispatcher(gateway, nil)

			result := d.CallWithFallback(context.Background(), nil, "gpt-5", "gemini-2.5-pro")

			require.True(t, result.OK())
			assert.Equal(t, "fallback answer", result.Content)
			assert.Equal(t, []string{"gpt-5", "gemini-2.5-pro"}, gateway.calls)
		})
	}
}

func TestDispatcher_FallbackFailureReturnedVerbatim(t *testing.T) {
	gateway := &scriptedGateway{responses: []Envelope{
		Failure(ErrorTypeTransient, "primary down"),
		Failure(ErrorTypeTransient, "fallback down too"),
	}}
	d := NewDispatcher(gateway, nil)

	result := d.CallWithFallback(context.Background(), nil, "gpt-5", "gemini-2.5-pro")

	assert.False(t, result.OK())
	assert.Equal(t, "fallback down too", result.ErrorMessage)
	// Non-recursive: no third call even though the fallback also failed.
	assert.Len(t, gateway.calls, 2)
}

func TestDispatcher_NoFallbackReturnsOriginalError(t *testing.T) {
	gateway := &scriptedGateway{responses: []Envelope{
		Failure(ErrorTypeTransient, "primary down"),
	}}
	d := NewDispatcher(gateway, nil)

	result := d.CallWithFallback(context.Background(), nil, "gpt-5", "")

	assert.False(t, result.OK())
	assert.Equal(t, "primary down", result.ErrorMessage)
	assert.Len(t, gateway.calls, 1)
}

func TestProviderFor(t *testing.T) {
	cases := []struct {
		model    string
		provider Provider
		known    bool
	}{
		{"gpt-5", ProviderOpenAI, true},
		{"gpt-5-mini", ProviderOpenAI, true},
		{"gemini-2.5-pro", ProviderGemini, true},
		{"GEMINI-2.5-FLASH", ProviderGemini, true},
		{"claude-opus", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		provider, known := ProviderFor(tc.model)
		assert.Equal(t, tc.known, known, tc.model)
		assert.Equal(t, tc.provider, provider, tc.model)
	}
}

func TestGateway_UnknownFamilyIsFatal(t *testing.T) {
	gateway := NewGateway(Credentials{}, nil)

	result := gateway.Call(context.Background(), nil, "claude-opus")

	assert.Equal(t, ErrorTypeFatal, result.ErrorType)
}

func TestGateway_MissingCredentialsIsFatalPerCall(t *testing.T) {
	gateway := NewGateway(Credentials{}, nil)

	result := gateway.Call(context.Background(), nil, "gpt-5")

	assert.Equal(t, ErrorTypeFatal, result.ErrorType)
	assert.Contains(t, result.ErrorMessage, "OPENAI_API_KEY")
}
