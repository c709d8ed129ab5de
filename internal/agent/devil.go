package agent

import (
	"context"
	"fmt"
	"strings"

	"consilium/internal/llm"
)

// DevilsAdvocate critiques the full set of analyses against the ground
// truth. It requires the ground-truth reference text: running the red team
// without it would just generate plausible-sounding objections.
type DevilsAdvocate struct {
	Model    string
	Fallback string

	caller  Caller
	prompts *Prompts
}

// NewDevilsAdvocate builds the red-team agent.
func NewDevilsAdvocate(model, fallback string, caller Caller, prompts *Prompts) *DevilsAdvocate {
	return &DevilsAdvocate{Model: model, Fallback: fallback, caller: caller, prompts: prompts}
}

// Execute produces one adversarial critique spanning all analyses.
func (d *DevilsAdvocate) Execute(ctx context.Context, analyses []string, corpus, objective, groundTruth string) (string, error) {
	if strings.TrimSpace(groundTruth) == "" {
		return "", fmt.Errorf("devil's advocate requires ground-truth reference notes")
	}

	var sb strings.Builder
	for i, analysis := range analyses {
		fmt.Fprintf(&sb, "--- ANALYSIS %d ---\n%s\n\n", i+1, analysis)
	}

	prompt := RenderPrompt(d.prompts.DevilsAdvocate, map[string]string{
		"objective":    objective,
		"ground_truth": groundTruth,
		"analyses":     sb.String(),
		"corpus":       corpus,
	})
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	return complete(ctx, d.caller, messages, d.Model, d.Fallback, "devils_advocate")
}
