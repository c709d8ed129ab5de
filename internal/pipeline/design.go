package pipeline

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"consilium/internal/agent"
	"consilium/internal/ledger"
)

// runCreativeSparks runs the analogy/abstraction stage of the design flow
// and returns the record as JSON for injection into the debate prompts.
// The stage is an enrichment: any failure degrades to the empty record so
// the debate proceeds without sparks.
func (p *Pipeline) runCreativeSparks(ctx context.Context, led *ledger.Ledger, objective string, analyses []string, log *zap.Logger) string {
	analogist := agent.NewAnalogyAbstraction(p.cfg.Models.Analogy, p.guard, p.prompts)
	sparks, err := analogist.Execute(ctx, objective, analyses)
	if err != nil {
		log.Warn("creative spark generation failed, continuing without sparks", zap.Error(err))
		sparks = agent.AnalogyAbstractions{}
	}

	data, err := json.Marshal(sparks)
	if err != nil {
		log.Warn("could not encode creative sparks", zap.Error(err))
		return ""
	}
	p.append(led, ledger.EventCreativeSparksProduced, "analogy_abstraction", map[string]any{
		"analogies":    sparks.Analogies,
		"abstractions": sparks.Abstractions,
	}, log)
	return string(data)
}
