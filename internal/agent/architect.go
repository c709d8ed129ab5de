package agent

import (
	"context"

	"consilium/internal/llm"
)

// Architect produces one independent free-text analysis of the codebase.
// Persona is the specialist prompt this seat argues from; distinct seats on
// a roster differ by persona and possibly model.
type Architect struct {
	Name     string
	Persona  string
	Model    string
	Fallback string

	caller Caller
}

// NewArchitect builds one roster seat.
func NewArchitect(name, persona, model, fallback string, caller Caller) *Architect {
	return &Architect{Name: name, Persona: persona, Model: model, Fallback: fallback, caller: caller}
}

// Execute analyzes the corpus against the objective and returns the
// analysis as free-form markdown.
func (a *Architect) Execute(ctx context.Context, corpus, objective string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.Persona},
		{Role: llm.RoleUser, Content: RenderPrompt(
			"Project objective:\n{objective}\n\nCodebase:\n---\n{corpus}\n---\n\nProduce your full analysis.",
			map[string]string{"objective": objective, "corpus": corpus})},
	}
	return complete(ctx, a.caller, messages, a.Model, a.Fallback, a.Name)
}
