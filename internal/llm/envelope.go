// Package llm implements the model call layer: per-provider clients, the
// Gateway that routes a model name to a lazily constructed provider client,
// and the Dispatcher that applies the primary/fallback substitution policy.
//
// Every model interaction in the system collapses to one Envelope. No
// component above this package ever sees a provider-specific response
// shape, and ordinary provider failures never surface as Go errors -- only
// as error envelopes with a classified ErrorType.
package llm

import "context"

// Message is a single role-tagged message in a model conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// Roles used in Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Status indicates whether a model call produced content.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorType classifies a failed model call.
type ErrorType string

const (
	// ErrorTypeNone is set on success envelopes.
	ErrorTypeNone ErrorType = ""

	// ErrorTypeTransient covers transport failures, provider API errors,
	// and anything else that a different model might not hit. Eligible
	// for fallback.
	ErrorTypeTransient ErrorType = "transient"

	// ErrorTypeFatal covers structural problems: unrecognized model
	// family, missing credentials, unavailable provider integration.
	// Never retried with a fallback model.
	ErrorTypeFatal ErrorType = "fatal"

	// ErrorTypeTokenLimit means the provider truncated the response at
	// its length cap. Eligible for fallback.
	ErrorTypeTokenLimit ErrorType = "token_limit"

	// ErrorTypeSafety means the provider withheld the response due to
	// content filtering. Eligible for fallback.
	ErrorTypeSafety ErrorType = "safety"
)

// Envelope is the uniform result of one model call.
type Envelope struct {
	Status       Status    `json:"status"`
	Content      string    `json:"content,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ErrorType    ErrorType `json:"error_type,omitempty"`
}

// OK reports whether the envelope carries content.
func (e Envelope) OK() bool {
	return e.Status == StatusSuccess
}

// Success builds a success envelope.
func Success(content string) Envelope {
	return Envelope{Status: StatusSuccess, Content: content}
}

// Failure builds an error envelope with the given classification.
func Failure(errType ErrorType, message string) Envelope {
	return Envelope{Status: StatusError, ErrorMessage: message, ErrorType: errType}
}

// Caller issues one request to a named model. Implemented by Gateway;
// narrow on purpose so the Dispatcher and tests can substitute mocks.
type Caller interface {
	Call(ctx context.Context, messages []Message, model string) Envelope
}

// ProviderClient is one concrete provider integration. Implementations
// classify their own failures into envelopes.
type ProviderClient interface {
	Generate(ctx context.Context, model string, messages []Message) Envelope
}
