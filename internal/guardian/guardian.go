// Package guardian converts untrusted free-text model output into
// schema-validated structured data. It is the single choke point between
// "the model answered" and "we have typed data": every structured-output
// call site goes through GetStructured and shares one failure taxonomy.
//
// A dispatcher-level failure (the model never answered) is a plain error.
// A response that parsed but could not be recovered into the target schema
// is an *UnparseableResponseError carrying the raw text for diagnostics.
package guardian

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"consilium/internal/llm"
)

// UnparseableResponseError is raised when a model's output cannot be
// parsed, repaired, or validated into the target schema. RawResponse holds
// the offending text verbatim.
type UnparseableResponseError struct {
	Message     string
	RawResponse string
}

func (e *UnparseableResponseError) Error() string {
	raw := e.RawResponse
	if len(raw) > 100 {
		raw = raw[:100] + "..."
	}
	return fmt.Sprintf("%s. Raw response: %q", e.Message, raw)
}

func unparseable(message, raw string) *UnparseableResponseError {
	return &UnparseableResponseError{Message: message, RawResponse: raw}
}

// Schema is a named, compiled JSON Schema that model output is validated
// against.
type Schema struct {
	Name     string
	compiled *jsonschema.Schema
}

// MustCompileSchema compiles a Draft 2020-12 JSON Schema document, panicking
// on failure. Intended for package-level schema definitions where a compile
// error is a programming bug.
func MustCompileSchema(name, raw string) *Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://consilium.schemas.local/%s.schema.json", name)
	if err := c.AddResource(url, strings.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("guardian: schema %s load failed: %v", name, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("guardian: schema %s compile failed: %v", name, err))
	}
	return &Schema{Name: name, compiled: compiled}
}

// Caller is the dispatcher-shaped dependency the guardian delegates raw
// model calls to.
type Caller interface {
	CallWithFallback(ctx context.Context, messages []llm.Message, primary, fallback string) llm.Envelope
}

// Guardian performs the parse / repair / validate pass over model output.
type Guardian struct {
	caller        Caller
	fallbackModel string // fixed high-capability fallback for structured calls
	log           *zap.Logger
}

// New creates a guardian over the given dispatcher. fallbackModel is used
// for every structured call.
func New(caller Caller, fallbackModel string, log *zap.Logger) *Guardian {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guardian{caller: caller, fallbackModel: fallbackModel, log: log}
}

// GetStructured obtains raw text from the model, recovers a single JSON
// record from it, validates the record against schema, and decodes it into
// out (a pointer to a struct with json tags).
//
// Recovery order: strict parse, then a best-effort repair pass tolerating
// near-miss formatting (code fences, trailing commas, unquoted keys). A
// one-element array wrapping a record is unwrapped; any other array shape
// is unrecoverable.
func (g *Guardian) GetStructured(ctx context.Context, messages []llm.Message, model string, schema *Schema, out any) error {
	result := g.caller.CallWithFallback(ctx, messages, model, g.fallbackModel)
	if !result.OK() {
		// The model never answered; distinct from "answered but not usefully".
		return fmt.Errorf("model call failed for structured output: %s", result.ErrorMessage)
	}

	raw := result.Content

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		repaired := RepairJSON(raw)
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			return unparseable("failed to parse model response as JSON", raw)
		}
		g.log.Debug("structured response recovered via repair pass",
			zap.String("schema", schema.Name), zap.String("model", model))
	}

	if list, ok := parsed.([]any); ok {
		if len(list) > 0 {
			if first, ok := list[0].(map[string]any); ok && len(list) == 1 {
				g.log.Warn("model wrapped a single record in a list, unwrapping",
					zap.String("schema", schema.Name))
				parsed = first
			} else {
				return unparseable("model returned a list that could not be interpreted as a single record", raw)
			}
		} else {
			return unparseable("model returned an empty list instead of a record", raw)
		}
	}

	if err := schema.compiled.Validate(parsed); err != nil {
		return unparseable(fmt.Sprintf("JSON was valid but failed %s schema validation: %v", schema.Name, err), raw)
	}

	// Round-trip through JSON to decode the validated record into out.
	data, err := json.Marshal(parsed)
	if err != nil {
		return unparseable(fmt.Sprintf("failed to re-encode validated record: %v", err), raw)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return unparseable(fmt.Sprintf("failed to decode validated record: %v", err), raw)
	}
	return nil
}
