// Package agent implements the agent roster: capability-polymorphic units
// that turn a role-specific prompt plus contextual inputs into one model
// response. Free-text agents go through the fallback dispatcher directly;
// agents that must produce structured records go through the output
// guardian.
package agent

import (
	"context"
	"fmt"

	"consilium/internal/llm"
)

// Caller is the dispatcher-shaped dependency shared by all free-text
// agents. Satisfied by *llm.Dispatcher.
type Caller interface {
	CallWithFallback(ctx context.Context, messages []llm.Message, primary, fallback string) llm.Envelope
}

// complete issues one dispatched call and converts an error envelope into a
// Go error, the shape every free-text agent wants.
func complete(ctx context.Context, caller Caller, messages []llm.Message, primary, fallback, who string) (string, error) {
	result := caller.CallWithFallback(ctx, messages, primary, fallback)
	if !result.OK() {
		return "", fmt.Errorf("model call failed for %s: %s", who, result.ErrorMessage)
	}
	return result.Content, nil
}
