package agent

import "consilium/internal/guardian"

// ArchitectRevision is the structured record every debate revision must
// produce.
type ArchitectRevision struct {
	AnalysisText    string `json:"analysis_text"`
	ConfidenceScore int    `json:"confidence_score"`
}

// MinConfidenceScore is the floor of the 1-10 confidence scale, used when
// salvaging an unparseable revision.
const MinConfidenceScore = 1

// AnalogyAbstractions is the structured record produced by the
// analogy/abstraction agent. The zero value is the degraded "no sparks"
// record.
type AnalogyAbstractions struct {
	Analogies    []string `json:"analogies"`
	Abstractions []string `json:"abstractions"`
}

// ArchitectRevisionSchema validates revision records: the analysis text is
// required and the confidence score is an integer in [1,10].
var ArchitectRevisionSchema = guardian.MustCompileSchema("architect_revision", `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"analysis_text": {"type": "string"},
		"confidence_score": {"type": "integer", "minimum": 1, "maximum": 10}
	},
	"required": ["analysis_text", "confidence_score"]
}`)

// AnalogyAbstractionsSchema validates creative-spark records. Both lists
// default to empty, so neither is required.
var AnalogyAbstractionsSchema = guardian.MustCompileSchema("analogy_abstractions", `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"analogies": {"type": "array", "items": {"type": "string"}},
		"abstractions": {"type": "array", "items": {"type": "string"}}
	}
}`)
