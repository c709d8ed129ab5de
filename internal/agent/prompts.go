package agent

import "strings"

// Prompts holds every role prompt template used by the roster. Templates
// use {name} placeholders filled by render. The set is built once at
// startup (defaults, optionally overridden from configuration) and
// injected into the agents, so the core never touches prompt files itself.
type Prompts struct {
	ArchitectRevision  string
	DevilsAdvocate     string
	Synthesizer        string
	QAReview           string
	SpecialistSelector string
	AnalogyAbstraction string
	PMAuditQuestions   string
	PMDesignQuestions  string
	PMSynthObjective   string
	DefaultSpecialist  string

	// Specialists maps a specialist role name to its persona prompt.
	// The keys form the selector's allow-list.
	Specialists map[string]string
}

// DefaultSpecialistRole is the sentinel role returned by the selector when
// the allow-list is empty, and the persona used when a selected role's
// prompt is missing.
const DefaultSpecialistRole = "default_specialist"

// RenderPrompt substitutes {key} placeholders in a template.
func RenderPrompt(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// SpecialistPrompt returns the persona prompt for a role, falling back to
// the default specialist prompt when the role has no entry. The second
// return reports whether the requested role was found.
func (p *Prompts) SpecialistPrompt(role string) (string, bool) {
	if prompt, ok := p.Specialists[role]; ok {
		return prompt, true
	}
	return p.DefaultSpecialist, false
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() *Prompts {
	return &Prompts{
		ArchitectRevision: `You previously produced the following analysis:
---
{original_analysis}
---

The project objective is:
{objective}

{creative_sparks}

You have received the following critique of the current analyses:
---
{critique}
---

Revise your analysis. Address the strongest points of the critique, defend
the positions you still hold, and incorporate any peer insight that improves
your answer. Respond with a single JSON object and nothing else:
{"analysis_text": "<the full revised analysis in markdown>", "confidence_score": <integer 1-10>}`,

		DevilsAdvocate: `You are a relentless red-team reviewer. Your job is to find what is wrong,
missing, or overstated in the analyses below. Be specific and adversarial;
do not soften your critique. Ground every objection in the codebase or the
reference notes.

Project objective:
{objective}

Reference notes (ground truth):
---
{ground_truth}
---

Analyses under review:
{analyses}

Codebase:
---
{corpus}
---

Produce one critique that applies across all analyses: factual errors,
unsupported claims, ignored risks, and conflicts with the reference notes.`,

		Synthesizer: `You are the synthesizer. Below is the complete, ordered reasoning ledger of
a multi-agent analysis run: initial analyses, debate revisions, the red-team
critique, and final revisions.

Project objective:
{objective}

Reasoning ledger (JSON events, in write order):
{events}

Write the single final report. Merge the strongest conclusions, resolve
contradictions explicitly, and preserve dissenting positions worth keeping.
The report should stand alone: a reader sees only this document.`,

		QAReview: `You are a quality gate. Evaluate whether the report below fulfills the
objective: complete, internally consistent, and actionable.

Objective:
{objective}

Report:
---
{report}
---

If the report passes, reply with exactly the single word APPROVED and
nothing else. Otherwise reply with a concise list of required revisions.`,

		SpecialistSelector: `Select the single most appropriate specialist for reviewing this codebase.

Objective:
{objective}

Codebase:
---
{corpus}
---

Available specialists:
- {specialist_choices}

Reply with exactly one specialist name from the list above, nothing else.`,

		AnalogyAbstraction: `You inject divergent thinking into a design discussion. Given the objective
and the initial analyses below, produce analogies from unrelated domains and
formal abstractions of the underlying problem.

Objective:
{objective}

Initial analyses:
{analyses}

Respond with a single JSON object and nothing else:
{"analogies": ["<analogy>", ...], "abstractions": ["<abstraction>", ...]}`,

		PMAuditQuestions: `You are the project manager for a code audit. Read the codebase below and
produce 3-5 clarifying questions whose answers would most sharpen the
audit: intended use, known pain points, risk tolerance, priorities.

Codebase:
---
{corpus}
---

List the questions, numbered, with no preamble.`,

		PMDesignQuestions: `You are the project manager for a design brainstorm. Read the codebase
below and produce 3-5 clarifying questions whose answers would most sharpen
the design exploration: target users, growth direction, constraints,
appetite for change.

Codebase:
---
{corpus}
---

List the questions, numbered, with no preamble.`,

		PMSynthObjective: `Synthesize a single, focused objective statement for an analysis run.

Questions asked:
{questions}

Client answers:
{answers}

Codebase:
---
{corpus}
---

Write one paragraph stating what the analysis must accomplish, in the
client's terms. No headings, no lists.`,

		DefaultSpecialist: `You are a senior generalist software architect. Review the codebase against
the stated objective: correctness, design coherence, operational risk, and
maintainability. Be concrete and cite the code you are reacting to.`,

		Specialists: map[string]string{},
	}
}
