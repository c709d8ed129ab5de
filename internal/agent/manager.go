package agent

import (
	"context"
	"fmt"
	"strings"

	"consilium/internal/llm"
)

// Mode distinguishes the two analysis flows.
type Mode string

const (
	ModeAudit  Mode = "audit"
	ModeDesign Mode = "design"
)

// ParseMode validates a mode string from the CLI.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAudit:
		return ModeAudit, nil
	case ModeDesign:
		return ModeDesign, nil
	}
	return "", fmt.Errorf("unknown mode %q (want audit or design)", s)
}

// ProjectManager runs the pre-pipeline client interview: clarifying
// questions over the codebase, then an objective statement synthesized from
// the answers.
type ProjectManager struct {
	Model    string
	Fallback string

	caller  Caller
	prompts *Prompts
}

// NewProjectManager builds the interview agent.
func NewProjectManager(model, fallback string, caller Caller, prompts *Prompts) *ProjectManager {
	return &ProjectManager{Model: model, Fallback: fallback, caller: caller, prompts: prompts}
}

// GenerateQuestions produces the mode-specific clarifying questions for the
// codebase.
func (m *ProjectManager) GenerateQuestions(ctx context.Context, corpus string, mode Mode) (string, error) {
	template := m.prompts.PMAuditQuestions
	if mode == ModeDesign {
		template = m.prompts.PMDesignQuestions
	}
	prompt := RenderPrompt(template, map[string]string{"corpus": corpus})
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	return complete(ctx, m.caller, messages, m.Model, m.Fallback, "project_manager")
}

// SynthesizeObjective condenses the interview into a single objective
// statement for the run.
func (m *ProjectManager) SynthesizeObjective(ctx context.Context, questions, answers, corpus string) (string, error) {
	prompt := RenderPrompt(m.prompts.PMSynthObjective, map[string]string{
		"questions": questions,
		"answers":   answers,
		"corpus":    corpus,
	})
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	return complete(ctx, m.caller, messages, m.Model, m.Fallback, "project_manager")
}
