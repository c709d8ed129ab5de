// Package debate runs the revision round of a multi-agent analysis: every
// roster seat sees its peers' positions (or a shared critique) and produces
// a revised, confidence-scored analysis. Branches run concurrently; the
// round is a barrier.
package debate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"consilium/internal/agent"
	"consilium/internal/guardian"
	"consilium/internal/llm"
)

// Revision is one seat's output from a debate round.
type Revision struct {
	AgentIndex      int
	AnalysisText    string
	ConfidenceScore int
}

// Manager coordinates one revision round over the roster.
type Manager struct {
	architects []*agent.Architect
	guard      agent.StructuredCaller
	prompts    *agent.Prompts
	log        *zap.Logger
}

// NewManager builds a debate manager over the roster seats.
func NewManager(architects []*agent.Architect, guard agent.StructuredCaller, prompts *agent.Prompts, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{architects: architects, guard: guard, prompts: prompts, log: log}
}

// peerCritique assembles the other seats' analyses into a critique block.
// The agent's own analysis is never included: arguing with yourself is not
// a debate.
func peerCritique(idx int, analyses []string) string {
	var sb strings.Builder
	sb.WriteString("Your peers produced the following competing analyses:\n\n")
	for i, analysis := range analyses {
		if i == idx {
			continue
		}
		fmt.Fprintf(&sb, "--- PEER ANALYSIS %d ---\n%s\n\n", i+1, analysis)
	}
	return sb.String()
}

// renderSparks turns the creative-spark record JSON into a prompt section.
// An empty input yields an empty section; a record that fails to parse is
// reported inline rather than aborting the revision.
func renderSparks(sparksJSON string) string {
	if strings.TrimSpace(sparksJSON) == "" {
		return ""
	}
	var sparks agent.AnalogyAbstractions
	if err := json.Unmarshal([]byte(sparksJSON), &sparks); err != nil {
		return fmt.Sprintf("Creative input was generated but could not be read (%v).", err)
	}

	var sb strings.Builder
	sb.WriteString("Consider the following creative input while revising:\n")
	if len(sparks.Analogies) > 0 {
		sb.WriteString("\nAnalogies:\n")
		for _, a := range sparks.Analogies {
			sb.WriteString("- " + a + "\n")
		}
	}
	if len(sparks.Abstractions) > 0 {
		sb.WriteString("\nAbstractions:\n")
		for _, a := range sparks.Abstractions {
			sb.WriteString("- " + a + "\n")
		}
	}
	return sb.String()
}

// RunRevisionForAgent produces the revised analysis for one seat. When
// critiqueOverride is non-empty it replaces the peer-critique block (used
// for the red-team round). A response the guardian cannot recover is
// salvaged as tagged raw text with the minimum confidence score, so a
// single misformatted reply degrades that seat instead of the round.
func (m *Manager) RunRevisionForAgent(ctx context.Context, idx int, allAnalyses []string, objective, critiqueOverride, sparksJSON string) (string, int, error) {
	if idx < 0 || idx >= len(m.architects) || idx >= len(allAnalyses) {
		return "", 0, fmt.Errorf("agent index %d out of range for roster of %d", idx, len(m.architects))
	}
	seat := m.architects[idx]

	critique := critiqueOverride
	if critique == "" {
		critique = peerCritique(idx, allAnalyses)
	}

	prompt := agent.RenderPrompt(m.prompts.ArchitectRevision, map[string]string{
		"original_analysis": allAnalyses[idx],
		"objective":         objective,
		"creative_sparks":   renderSparks(sparksJSON),
		"critique":          critique,
	})
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: seat.Persona},
		{Role: llm.RoleUser, Content: prompt},
	}

	var revision agent.ArchitectRevision
	err := m.guard.GetStructured(ctx, messages, seat.Model, agent.ArchitectRevisionSchema, &revision)
	if err == nil {
		return revision.AnalysisText, revision.ConfidenceScore, nil
	}

	var unparseable *guardian.UnparseableResponseError
	if errors.As(err, &unparseable) {
		m.log.Warn("revision response unparseable, salvaging raw text",
			zap.String("agent", seat.Name), zap.Int("index", idx))
		salvaged := fmt.Sprintf("--- PARSE_ERROR: response did not conform to the revision format ---\n%s",
			unparseable.RawResponse)
		return salvaged, agent.MinConfidenceScore, nil
	}
	return "", 0, fmt.Errorf("revision failed for agent %d: %w", idx, err)
}

// RunDebate runs one revision round across the whole roster concurrently
// and returns the revisions that succeeded, in completion order. A failed
// branch is logged and dropped; the round itself only fails if the context
// is cancelled.
func (m *Manager) RunDebate(ctx context.Context, analyses []string, objective, sparksJSON string) []Revision {
	return m.runRound(ctx, analyses, objective, "", sparksJSON)
}

// RunCritiqueRound is RunDebate with a shared critique replacing the
// peer-critique blocks.
func (m *Manager) RunCritiqueRound(ctx context.Context, analyses []string, objective, critique, sparksJSON string) []Revision {
	return m.runRound(ctx, analyses, objective, critique, sparksJSON)
}

func (m *Manager) runRound(ctx context.Context, analyses []string, objective, critiqueOverride, sparksJSON string) []Revision {
	var (
		mu        sync.Mutex
		revisions []Revision
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(len(m.architects))
	for idx := range m.architects {
		group.Go(func() error {
			text, score, err := m.RunRevisionForAgent(groupCtx, idx, analyses, objective, critiqueOverride, sparksJSON)
			if err != nil {
				m.log.Warn("debate branch failed, dropping seat from round",
					zap.Int("index", idx), zap.Error(err))
				return nil
			}
			mu.Lock()
			revisions = append(revisions, Revision{AgentIndex: idx, AnalysisText: text, ConfidenceScore: score})
			mu.Unlock()
			return nil
		})
	}
	// Branches swallow their own errors, so Wait is just the barrier.
	_ = group.Wait()
	return revisions
}
