package guardian

import (
	"regexp"
	"strings"
)

// RepairJSON applies a best-effort cleanup to near-miss JSON produced by a
// model: markdown code fences, surrounding prose, trailing commas, bare
// object keys, and single-quoted strings. The output is not guaranteed to
// parse; the caller re-attempts json.Unmarshal and treats a second failure
// as unrecoverable.
func RepairJSON(raw string) string {
	s := stripCodeFence(raw)
	if extracted := extractBalanced(s); extracted != "" {
		s = extracted
	}
	s = quoteBareKeys(s)
	s = normalizeSingleQuotes(s)
	s = removeTrailingCommas(s)
	return s
}

var codeFenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// stripCodeFence removes a markdown code fence wrapper, keeping the body.
func stripCodeFence(s string) string {
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// extractBalanced returns the first balanced JSON object or array in s,
// tracking string and escape state so braces inside strings don't count.
// Returns "" when no balanced value is found.
func extractBalanced(s string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if s[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// ignore structural characters inside strings
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// removeTrailingCommas drops commas that directly precede a closing brace
// or bracket.
func removeTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

var bareKeyRe = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)

// quoteBareKeys wraps unquoted object keys in double quotes.
func quoteBareKeys(s string) string {
	return bareKeyRe.ReplaceAllString(s, `$1"$2"$3`)
}

// normalizeSingleQuotes rewrites single-quoted strings to double-quoted
// ones, but only when the text contains no double quotes at all -- mixing
// quote styles is beyond what a blind rewrite can fix safely.
func normalizeSingleQuotes(s string) string {
	if strings.Contains(s, `"`) || !strings.Contains(s, `'`) {
		return s
	}
	return strings.ReplaceAll(s, `'`, `"`)
}
