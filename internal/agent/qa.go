package agent

import (
	"context"
	"strings"

	"consilium/internal/llm"
)

// ApprovalToken is the exact reply the QA agent gives for a passing report.
const ApprovalToken = "APPROVED"

// QA is the quality gate over the synthesized report.
type QA struct {
	Model    string
	Fallback string

	caller  Caller
	prompts *Prompts
}

// NewQA builds the quality-gate agent.
func NewQA(model, fallback string, caller Caller, prompts *Prompts) *QA {
	return &QA{Model: model, Fallback: fallback, caller: caller, prompts: prompts}
}

// Execute reviews the report against the objective. It returns the verbatim
// verdict text; callers test it with Approved.
func (q *QA) Execute(ctx context.Context, objective, report string) (string, error) {
	prompt := RenderPrompt(q.prompts.QAReview, map[string]string{
		"objective": objective,
		"report":    report,
	})
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	return complete(ctx, q.caller, messages, q.Model, q.Fallback, "qa")
}

// Approved reports whether a QA verdict is the approval token.
func Approved(verdict string) bool {
	return strings.TrimSpace(verdict) == ApprovalToken
}
