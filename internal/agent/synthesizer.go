package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"consilium/internal/ledger"
	"consilium/internal/llm"
)

// Synthesizer reads the complete event history of a run and writes the
// single final report.
type Synthesizer struct {
	Model    string
	Fallback string

	caller  Caller
	prompts *Prompts
}

// NewSynthesizer builds the synthesis agent.
func NewSynthesizer(model, fallback string, caller Caller, prompts *Prompts) *Synthesizer {
	return &Synthesizer{Model: model, Fallback: fallback, caller: caller, prompts: prompts}
}

// Execute synthesizes the final report from the full event history. The
// history is embedded into the prompt as indented JSON; if it cannot be
// serialized the run still proceeds with a placeholder rather than dying
// this close to the finish line.
func (s *Synthesizer) Execute(ctx context.Context, objective string, events []ledger.Event) (string, error) {
	history, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		history = []byte(fmt.Sprintf("(event history unavailable: serialization failed: %v)", err))
	}

	prompt := RenderPrompt(s.prompts.Synthesizer, map[string]string{
		"objective": objective,
		"events":    string(history),
	})
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	return complete(ctx, s.caller, messages, s.Model, s.Fallback, "synthesizer")
}
