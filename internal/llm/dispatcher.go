package llm

import (
	"context"

	"go.uber.org/zap"
)

// Dispatcher wraps a Caller with the primary/fallback substitution policy.
// The policy is two-tier and non-recursive: at most two gateway calls per
// dispatch. Fatal errors are never retried -- they indicate a structural
// problem (bad model name, missing integration) that a fallback model would
// also hit only coincidentally differently.
type Dispatcher struct {
	gateway Caller
	log     *zap.Logger
}

// NewDispatcher creates a dispatcher over the given gateway.
func NewDispatcher(gateway Caller, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{gateway: gateway, log: log}
}

// CallWithFallback calls the primary model. On success or fatal error the
// primary result is returned immediately. On any other failure, if a
// fallback model is supplied, exactly one more call is issued and its
// result returned verbatim -- success or failure, no further cascading.
// With no fallback model the original error envelope is returned.
func (d *Dispatcher) CallWithFallback(ctx context.Context, messages []Message, primary, fallback string) Envelope {
	result := d.gateway.Call(ctx, messages, primary)
	if result.OK() || result.ErrorType == ErrorTypeFatal {
		return result
	}

	if fallback == "" {
		return result
	}

	d.log.Warn("primary model failed, attempting fallback",
		zap.String("primary", primary),
		zap.String("fallback", fallback),
		zap.String("error_type", string(result.ErrorType)),
		zap.String("error", result.ErrorMessage))

	return d.gateway.Call(ctx, messages, fallback)
}
