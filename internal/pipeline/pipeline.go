// Package pipeline orchestrates a full analysis run: specialist selection,
// independent analyses, the debate and red-team revision rounds, synthesis,
// and the QA gate. Each stage is a barrier; branch failures degrade the
// roster rather than the run. The pipeline always returns a string: the
// approved report, a draft-plus-feedback composite, or a CRITICAL_FAILURE
// line when the run cannot produce anything.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"consilium/internal/agent"
	"consilium/internal/config"
	"consilium/internal/debate"
	"consilium/internal/ledger"
)

const reportFileName = "final_report.md"

// Pipeline owns the agent roster wiring and the run lifecycle.
type Pipeline struct {
	cfg     *config.Config
	prompts *agent.Prompts
	caller  agent.Caller
	guard   agent.StructuredCaller
	log     *zap.Logger
}

// New builds a pipeline over the shared dispatcher and guardian.
func New(cfg *config.Config, prompts *agent.Prompts, caller agent.Caller, guard agent.StructuredCaller, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, prompts: prompts, caller: caller, guard: guard, log: log}
}

func critical(format string, args ...any) string {
	return "CRITICAL_FAILURE: " + fmt.Sprintf(format, args...)
}

// RunMultiAgentAnalysis runs the audit flow: select specialist, analyze,
// debate, red-team, revise, synthesize, QA.
func (p *Pipeline) RunMultiAgentAnalysis(ctx context.Context, corpus, objective string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline panicked", zap.Any("panic", r))
			result = critical("internal error: %v", r)
		}
	}()
	return p.run(ctx, corpus, objective, false)
}

// RunDesignModeAnalysis runs the design flow: the audit flow plus a
// creative-spark stage between the initial analyses and the debate.
func (p *Pipeline) RunDesignModeAnalysis(ctx context.Context, corpus, objective string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline panicked", zap.Any("panic", r))
			result = critical("internal error: %v", r)
		}
	}()
	return p.run(ctx, corpus, objective, true)
}

func (p *Pipeline) run(ctx context.Context, corpus, objective string, designMode bool) string {
	groundTruth, err := p.readGroundTruth()
	if err != nil {
		return critical("%v", err)
	}

	runID := uuid.NewString()
	log := p.log.With(zap.String("run_id", runID))
	log.Info("starting analysis run", zap.Bool("design_mode", designMode))

	led, err := ledger.New(runID, p.cfg.RunsDir, log)
	if err != nil {
		return critical("could not create reasoning ledger: %v", err)
	}
	defer led.Close()

	// Stage: specialist selection.
	roles := make([]string, 0, len(p.prompts.Specialists))
	for role := range p.prompts.Specialists {
		roles = append(roles, role)
	}
	selector := agent.NewSpecialistSelector(p.cfg.Models.Selector, p.cfg.Models.Fallback, p.caller, p.prompts, roles, log)
	role, err := selector.Execute(ctx, corpus, objective)
	if err != nil {
		return critical("specialist selection failed: %v", err)
	}
	persona, found := p.prompts.SpecialistPrompt(role)
	if !found {
		log.Warn("no prompt for selected specialist, using default persona", zap.String("role", role))
	}

	// Stage: independent initial analyses.
	architects, analyses := p.runInitialAnalyses(ctx, led, persona, corpus, objective, log)
	if len(architects) == 0 {
		return critical("all initial analyses failed")
	}

	// Stage (design mode only): creative sparks.
	sparksJSON := ""
	if designMode {
		sparksJSON = p.runCreativeSparks(ctx, led, objective, analyses, log)
	}

	manager := debate.NewManager(architects, p.guard, p.prompts, log)

	// Stage: peer debate round.
	revisions := manager.RunDebate(ctx, analyses, objective, sparksJSON)
	p.recordRevisions(led, architects, revisions, "debate", log)
	analyses = mergeRevisions(analyses, revisions)

	// Stage: red-team critique.
	devil := agent.NewDevilsAdvocate(p.cfg.Models.DevilsAdvocate, p.cfg.Models.Fallback, p.caller, p.prompts)
	critique, err := devil.Execute(ctx, analyses, corpus, objective, groundTruth)
	if err != nil {
		return critical("devil's advocate critique failed: %v", err)
	}
	p.append(led, ledger.EventDevilsAdvocateCritiqueProduced, "devils_advocate",
		map[string]any{"critique": critique}, log)

	// Stage: final revision round against the critique.
	revisions = manager.RunCritiqueRound(ctx, analyses, objective, critique, sparksJSON)
	p.recordRevisions(led, architects, revisions, "final", log)

	// Stage: synthesis over the full event history.
	events, err := led.ReadEvents()
	if err != nil {
		return critical("could not read reasoning ledger: %v", err)
	}
	synth := agent.NewSynthesizer(p.cfg.Models.Synthesizer, p.cfg.Models.Fallback, p.caller, p.prompts)
	report, err := synth.Execute(ctx, objective, events)
	if err != nil {
		return critical("synthesis failed: %v", err)
	}
	p.append(led, ledger.EventSynthesisComplete, "synthesizer",
		map[string]any{"report": report}, log)

	// Stage: QA gate.
	qa := agent.NewQA(p.cfg.Models.QA, p.cfg.Models.Fallback, p.caller, p.prompts)
	verdict, err := qa.Execute(ctx, objective, report)
	if err != nil {
		log.Warn("qa review failed, returning unreviewed report", zap.Error(err))
		p.writeReport(led, report, log)
		return report
	}
	if agent.Approved(verdict) {
		log.Info("report approved")
		p.writeReport(led, report, log)
		return report
	}

	p.append(led, ledger.EventQAFeedbackProduced, "qa",
		map[string]any{"feedback": verdict}, log)
	composite := fmt.Sprintf(
		"--- DRAFT REPORT (NOT APPROVED BY QA) ---\n\n%s\n\n--- QA FEEDBACK ---\n\n%s\n", report, verdict)
	p.writeReport(led, composite, log)
	return composite
}

// runInitialAnalyses fans the roster out over the corpus and returns the
// seats that produced an analysis, analyses index-aligned with the returned
// roster. Failed seats are dropped for the remainder of the run.
func (p *Pipeline) runInitialAnalyses(ctx context.Context, led *ledger.Ledger, persona, corpus, objective string, log *zap.Logger) ([]*agent.Architect, []string) {
	seats := make([]*agent.Architect, len(p.cfg.Roster))
	for i, seat := range p.cfg.Roster {
		seatPersona := persona
		if seat.Persona != "" {
			seatPersona = seat.Persona
		}
		seats[i] = agent.NewArchitect(seat.Name, seatPersona, p.cfg.SeatModel(seat), p.cfg.Models.Fallback, p.caller)
	}

	results := make([]string, len(seats))
	ok := make([]bool, len(seats))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(len(seats))
	for i, seat := range seats {
		group.Go(func() error {
			analysis, err := seat.Execute(groupCtx, corpus, objective)
			if err != nil {
				log.Warn("initial analysis failed, dropping seat",
					zap.String("agent", seat.Name), zap.Error(err))
				return nil
			}
			mu.Lock()
			results[i], ok[i] = analysis, true
			mu.Unlock()
			p.append(led, ledger.EventInitialAnalysisProduced, seat.Name,
				map[string]any{"analysis": analysis, "model": seat.Model}, log)
			return nil
		})
	}
	_ = group.Wait()

	var (
		kept     []*agent.Architect
		analyses []string
	)
	for i := range seats {
		if ok[i] {
			kept = append(kept, seats[i])
			analyses = append(analyses, results[i])
		}
	}
	return kept, analyses
}

// recordRevisions writes a REVISION_COMPLETE event per surviving branch.
func (p *Pipeline) recordRevisions(led *ledger.Ledger, architects []*agent.Architect, revisions []debate.Revision, round string, log *zap.Logger) {
	for _, rev := range revisions {
		source := fmt.Sprintf("agent_%d", rev.AgentIndex)
		if rev.AgentIndex >= 0 && rev.AgentIndex < len(architects) {
			source = architects[rev.AgentIndex].Name
		}
		p.append(led, ledger.EventRevisionComplete, source, map[string]any{
			"round":            round,
			"analysis":         rev.AnalysisText,
			"confidence_score": rev.ConfidenceScore,
		}, log)
	}
}

// mergeRevisions folds a round's revisions back into the index-aligned
// analysis set; a seat whose branch failed keeps its previous analysis.
func mergeRevisions(analyses []string, revisions []debate.Revision) []string {
	merged := append([]string(nil), analyses...)
	for _, rev := range revisions {
		if rev.AgentIndex >= 0 && rev.AgentIndex < len(merged) {
			merged[rev.AgentIndex] = rev.AnalysisText
		}
	}
	return merged
}

// append writes one ledger event; a write failure is logged, not fatal.
func (p *Pipeline) append(led *ledger.Ledger, eventType, source string, payload map[string]any, log *zap.Logger) {
	if err := led.Append(ledger.NewEvent(led.RunID(), eventType, source, payload)); err != nil {
		log.Error("failed to append ledger event",
			zap.String("event_type", eventType), zap.Error(err))
	}
}

func (p *Pipeline) readGroundTruth() (string, error) {
	data, err := os.ReadFile(p.cfg.GroundTruthPath)
	if err != nil {
		return "", fmt.Errorf("ground-truth reference notes are required at %s: %w", p.cfg.GroundTruthPath, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("ground-truth reference notes at %s are empty", p.cfg.GroundTruthPath)
	}
	return string(data), nil
}

// writeReport stores the final output next to the ledger for the run.
func (p *Pipeline) writeReport(led *ledger.Ledger, report string, log *zap.Logger) {
	path := filepath.Join(filepath.Dir(led.Path()), reportFileName)
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		log.Error("failed to write report file", zap.String("path", path), zap.Error(err))
		return
	}
	log.Info("report written", zap.String("path", path))
}
