package debate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"consilium/internal/agent"
	"consilium/internal/guardian"
	"consilium/internal/llm"
)

func TestMain(m *testing.M) {
	// go.opencensus.io starts a background worker from package init via the
	// google.golang.org/genai dependency chain; it is not a leak in this package.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// ownAnalysisPrefix identifies the seat a revision prompt belongs to: the
// original-analysis block names exactly one analysis, while the peer
// critique names all the others.
const ownAnalysisPrefix = "You previously produced the following analysis:\n---\n"

// fakeGuard scripts one structured result per agent, keyed by the original
// analysis embedded in the prompt, and records every prompt it sees.
type fakeGuard struct {
	mu      sync.Mutex
	results map[string]fakeResult // analysis marker -> result
	prompts []string
}

type fakeResult struct {
	revision agent.ArchitectRevision
	err      error
}

func (f *fakeGuard) GetStructured(_ context.Context, messages []llm.Message, _ string, _ *guardian.Schema, out any) error {
	prompt := messages[len(messages)-1].Content
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	for marker, result := range f.results {
		if strings.Contains(prompt, ownAnalysisPrefix+marker) {
			if result.err != nil {
				return result.err
			}
			data, _ := json.Marshal(result.revision)
			return json.Unmarshal(data, out)
		}
	}
	return fmt.Errorf("no scripted result for prompt")
}

func testRoster(n int) []*agent.Architect {
	seats := make([]*agent.Architect, n)
	for i := range seats {
		seats[i] = agent.NewArchitect(
			fmt.Sprintf("architect_%d", i+1), "persona", "gemini-2.5-pro", "gpt-5", nil)
	}
	return seats
}

func TestRunDebate_AllSeatsRevise(t *testing.T) {
	analyses := []string{"ANALYSIS-ALPHA", "ANALYSIS-BETA", "ANALYSIS-GAMMA"}
	guard := &fakeGuard{results: map[string]fakeResult{
		"ANALYSIS-ALPHA": {revision: agent.ArchitectRevision{AnalysisText: "revised alpha", ConfidenceScore: 8}},
		"ANALYSIS-BETA":  {revision: agent.ArchitectRevision{AnalysisText: "revised beta", ConfidenceScore: 6}},
		"ANALYSIS-GAMMA": {revision: agent.ArchitectRevision{AnalysisText: "revised gamma", ConfidenceScore: 9}},
	}}
	m := NewManager(testRoster(3), guard, agent.DefaultPrompts(), nil)

	revisions := m.RunDebate(context.Background(), analyses, "objective", "")

	require.Len(t, revisions, 3)
	seen := map[int]Revision{}
	for _, rev := range revisions {
		seen[rev.AgentIndex] = rev
		assert.GreaterOrEqual(t, rev.ConfidenceScore, 1)
		assert.LessOrEqual(t, rev.ConfidenceScore, 10)
	}
	assert.Equal(t, "revised alpha", seen[0].AnalysisText)
	assert.Equal(t, "revised beta", seen[1].AnalysisText)
	assert.Equal(t, "revised gamma", seen[2].AnalysisText)
}

func TestRunDebate_PeerCritiqueExcludesOwnAnalysis(t *testing.T) {
	analyses := []string{"ANALYSIS-ALPHA", "ANALYSIS-BETA", "ANALYSIS-GAMMA"}
	guard := &fakeGuard{results: map[string]fakeResult{
		"ANALYSIS-ALPHA": {revision: agent.ArchitectRevision{AnalysisText: "a", ConfidenceScore: 5}},
		"ANALYSIS-BETA":  {revision: agent.ArchitectRevision{AnalysisText: "b", ConfidenceScore: 5}},
		"ANALYSIS-GAMMA": {revision: agent.ArchitectRevision{AnalysisText: "c", ConfidenceScore: 5}},
	}}
	m := NewManager(testRoster(3), guard, agent.DefaultPrompts(), nil)

	m.RunDebate(context.Background(), analyses, "objective", "")

	require.Len(t, guard.prompts, 3)
	for _, prompt := range guard.prompts {
		for i, analysis := range analyses {
			count := strings.Count(prompt, analysis)
			if strings.Contains(prompt, ownAnalysisPrefix+analysis) {
				// The seat's own analysis appears once, as the original,
				// never in the peer-critique block.
				assert.Equal(t, 1, count, "own analysis leaked into critique for seat %d", i)
			} else {
				assert.Equal(t, 1, count, "peer analysis %d missing or duplicated", i)
			}
		}
	}
}

func TestRunDebate_FailedBranchIsDropped(t *testing.T) {
	analyses := []string{"ANALYSIS-ALPHA", "ANALYSIS-BETA", "ANALYSIS-GAMMA"}
	guard := &fakeGuard{results: map[string]fakeResult{
		"ANALYSIS-ALPHA": {revision: agent.ArchitectRevision{AnalysisText: "a", ConfidenceScore: 5}},
		"ANALYSIS-BETA":  {err: fmt.Errorf("model call failed for structured output: provider down")},
		"ANALYSIS-GAMMA": {revision: agent.ArchitectRevision{AnalysisText: "c", ConfidenceScore: 5}},
	}}
	m := NewManager(testRoster(3), guard, agent.DefaultPrompts(), nil)

	revisions := m.RunDebate(context.Background(), analyses, "objective", "")

	require.Len(t, revisions, 2)
	for _, rev := range revisions {
		assert.NotEqual(t, 1, rev.AgentIndex, "the failed seat must not produce a revision")
	}
}

func TestRunRevisionForAgent_SalvagesUnparseableResponse(t *testing.T) {
	raw := "I refuse to answer in JSON but here are my thoughts at length."
	guard := &fakeGuard{results: map[string]fakeResult{
		"ANALYSIS-ALPHA": {err: &guardian.UnparseableResponseError{
			Message:     "failed to parse model response as JSON",
			RawResponse: raw,
		}},
	}}
	m := NewManager(testRoster(1), guard, agent.DefaultPrompts(), nil)

	text, score, err := m.RunRevisionForAgent(context.Background(), 0,
		[]string{"ANALYSIS-ALPHA"}, "objective", "", "")

	require.NoError(t, err)
	assert.Equal(t, 1, score)
	assert.Contains(t, text, "PARSE_ERROR")
	assert.Contains(t, text, raw)
}

func TestRunRevisionForAgent_CritiqueOverrideReplacesPeers(t *testing.T) {
	guard := &fakeGuard{results: map[string]fakeResult{
		"ANALYSIS-ALPHA": {revision: agent.ArchitectRevision{AnalysisText: "a", ConfidenceScore: 5}},
	}}
	m := NewManager(testRoster(2), guard, agent.DefaultPrompts(), nil)

	_, _, err := m.RunRevisionForAgent(context.Background(), 0,
		[]string{"ANALYSIS-ALPHA", "ANALYSIS-BETA"}, "objective", "SHARED-CRITIQUE", "")

	require.NoError(t, err)
	require.Len(t, guard.prompts, 1)
	assert.Contains(t, guard.prompts[0], "SHARED-CRITIQUE")
	assert.NotContains(t, guard.prompts[0], "ANALYSIS-BETA")
}

func TestRunRevisionForAgent_RendersSparks(t *testing.T) {
	guard := &fakeGuard{results: map[string]fakeResult{
		"ANALYSIS-ALPHA": {revision: agent.ArchitectRevision{AnalysisText: "a", ConfidenceScore: 5}},
	}}
	m := NewManager(testRoster(1), guard, agent.DefaultPrompts(), nil)

	sparks := `{"analogies": ["an ant colony"], "abstractions": ["a consensus protocol"]}`
	_, _, err := m.RunRevisionForAgent(context.Background(), 0,
		[]string{"ANALYSIS-ALPHA"}, "objective", "", sparks)

	require.NoError(t, err)
	require.Len(t, guard.prompts, 1)
	assert.Contains(t, guard.prompts[0], "an ant colony")
	assert.Contains(t, guard.prompts[0], "a consensus protocol")
}

func TestRunRevisionForAgent_SparksParseFailureIsInlineNote(t *testing.T) {
	guard := &fakeGuard{results: map[string]fakeResult{
		"ANALYSIS-ALPHA": {revision: agent.ArchitectRevision{AnalysisText: "a", ConfidenceScore: 5}},
	}}
	m := NewManager(testRoster(1), guard, agent.DefaultPrompts(), nil)

	_, _, err := m.RunRevisionForAgent(context.Background(), 0,
		[]string{"ANALYSIS-ALPHA"}, "objective", "", "{not json")

	require.NoError(t, err)
	require.Len(t, guard.prompts, 1)
	assert.Contains(t, guard.prompts[0], "could not be read")
}

func TestRunRevisionForAgent_IndexOutOfRange(t *testing.T) {
	m := NewManager(testRoster(1), &fakeGuard{}, agent.DefaultPrompts(), nil)

	_, _, err := m.RunRevisionForAgent(context.Background(), 3,
		[]string{"only one"}, "objective", "", "")
	require.Error(t, err)
}
