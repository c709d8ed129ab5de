package agent

import (
	"context"
	"fmt"
	"strings"

	"consilium/internal/guardian"
	"consilium/internal/llm"
)

// StructuredCaller is the guardian-shaped dependency for agents whose
// output must be a validated record. Satisfied by *guardian.Guardian.
type StructuredCaller interface {
	GetStructured(ctx context.Context, messages []llm.Message, model string, schema *guardian.Schema, out any) error
}

// AnalogyAbstraction injects divergent thinking between the initial
// analyses and the debate: cross-domain analogies and formal abstractions
// of the problem.
type AnalogyAbstraction struct {
	Model string

	guard   StructuredCaller
	prompts *Prompts
}

// NewAnalogyAbstraction builds the creative-spark agent.
func NewAnalogyAbstraction(model string, guard StructuredCaller, prompts *Prompts) *AnalogyAbstraction {
	return &AnalogyAbstraction{Model: model, guard: guard, prompts: prompts}
}

// Execute produces the structured creative-spark record for the given
// analyses.
func (a *AnalogyAbstraction) Execute(ctx context.Context, objective string, analyses []string) (AnalogyAbstractions, error) {
	var sb strings.Builder
	for i, analysis := range analyses {
		fmt.Fprintf(&sb, "--- ANALYSIS %d ---\n%s\n\n", i+1, analysis)
	}

	prompt := RenderPrompt(a.prompts.AnalogyAbstraction, map[string]string{
		"objective": objective,
		"analyses":  sb.String(),
	})
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}

	var record AnalogyAbstractions
	if err := a.guard.GetStructured(ctx, messages, a.Model, AnalogyAbstractionsSchema, &record); err != nil {
		return AnalogyAbstractions{}, err
	}
	return record, nil
}
