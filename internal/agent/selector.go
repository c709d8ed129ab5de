package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"consilium/internal/llm"
)

const specialistSuffix = "_specialist"

// SpecialistSelector picks the single specialist role best suited to the
// codebase from an injected allow-list.
type SpecialistSelector struct {
	Model    string
	Fallback string

	caller  Caller
	prompts *Prompts
	allowed []string
	log     *zap.Logger
}

// NewSpecialistSelector builds the selector over the given allow-list of
// role names.
func NewSpecialistSelector(model, fallback string, caller Caller, prompts *Prompts, allowed []string, log *zap.Logger) *SpecialistSelector {
	if log == nil {
		log = zap.NewNop()
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return &SpecialistSelector{
		Model:    model,
		Fallback: fallback,
		caller:   caller,
		prompts:  prompts,
		allowed:  sorted,
		log:      log,
	}
}

// NormalizeRole canonicalizes a model-chosen role name: whitespace trimmed,
// lowercased, with the _specialist suffix appended when missing. Models
// frequently answer "security" when the roster key is "security_specialist".
func NormalizeRole(raw string) string {
	role := strings.ToLower(strings.TrimSpace(raw))
	role = strings.Trim(role, "\"'`.")
	if role != "" && !strings.HasSuffix(role, specialistSuffix) {
		role += specialistSuffix
	}
	return role
}

// Execute asks the model to choose a specialist and validates the answer
// against the allow-list. An empty allow-list short-circuits to the default
// role without a model call.
func (s *SpecialistSelector) Execute(ctx context.Context, corpus, objective string) (string, error) {
	if len(s.allowed) == 0 {
		s.log.Warn("no specialists registered, using default role")
		return DefaultSpecialistRole, nil
	}

	prompt := RenderPrompt(s.prompts.SpecialistSelector, map[string]string{
		"objective":          objective,
		"corpus":             corpus,
		"specialist_choices": strings.Join(s.allowed, "\n- "),
	})
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	raw, err := complete(ctx, s.caller, messages, s.Model, s.Fallback, "specialist_selector")
	if err != nil {
		return "", err
	}

	role := NormalizeRole(raw)
	for _, candidate := range s.allowed {
		if role == candidate {
			s.log.Info("specialist selected", zap.String("role", role))
			return role, nil
		}
	}
	return "", fmt.Errorf("selector chose %q, which is not a registered specialist", role)
}
