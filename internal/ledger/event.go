// Package ledger implements the per-run reasoning ledger: an append-only,
// ordered event log stored as one JSON Lines file per run. Events are
// immutable facts about agent actions; the ledger is written by every
// pipeline stage and read once by the synthesizer near the end of a run.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded in the ledger.
const (
	EventInitialAnalysisProduced        = "INITIAL_ANALYSIS_PRODUCED"
	EventCreativeSparksProduced         = "CREATIVE_SPARKS_PRODUCED"
	EventRevisionComplete               = "REVISION_COMPLETE"
	EventDevilsAdvocateCritiqueProduced = "DEVILS_ADVOCATE_CRITIQUE_PRODUCED"
	EventSynthesisComplete              = "SYNTHESIS_COMPLETE"
	EventQAFeedbackProduced             = "QA_FEEDBACK_PRODUCED"
)

// Event is the standard unit of the reasoning ledger: a single, immutable
// action taken by an agent or pipeline component. Once written an event is
// never mutated or removed.
type Event struct {
	RunID     string         `json:"run_id"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Payload   map[string]any `json:"payload"`
}

// NewEvent builds an event with a fresh event id and a UTC timestamp.
func NewEvent(runID, eventType, source string, payload map[string]any) Event {
	return Event{
		RunID:     runID,
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Source:    source,
		Payload:   payload,
	}
}
