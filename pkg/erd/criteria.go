package erd

import (
	"html"
	"regexp"
	"strings"
)

// Comparator phrases that contain the word "or" and must not be split as a
// logical OR.
const (
	PhraseLessOrEqual    = "less than or equal to"
	PhraseGreaterOrEqual = "greater than or equal to"
	PhraseEqualOrEmpty   = "equal to or empty"
)

// orMarker stands in for a protected "or". Underscores are word characters,
// so \bor\b never matches inside it.
const orMarker = "__OR__"

var (
	protectedPhrases = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(less\s+than\s+)or(\s+equal\s+to)`),
		regexp.MustCompile(`(?i)(greater\s+than\s+)or(\s+equal\s+to)`),
		regexp.MustCompile(`(?i)(equal\s+to\s+)or(\s+empty)`),
	}
	logicalOperator = regexp.MustCompile(`(?i)\b(and|or)\b`)
)

// ProtectComparators replaces the "or" inside the multi-word comparator
// phrases with a marker token.
func ProtectComparators(s string) string {
	for _, re := range protectedPhrases {
		s = re.ReplaceAllString(s, "${1}"+orMarker+"${2}")
	}
	return s
}

// RestoreComparators undoes ProtectComparators.
func RestoreComparators(s string) string {
	return strings.ReplaceAll(s, orMarker, "or")
}

type fragment struct {
	text string
	op   bool
}

// splitOperators splits s on stand-alone and/or tokens, keeping each matched
// operator as its own fragment. Blank fragments are dropped.
func splitOperators(s string) []fragment {
	var out []fragment
	add := func(text string, op bool) {
		text = strings.TrimSpace(RestoreComparators(text))
		if text != "" {
			out = append(out, fragment{text: text, op: op})
		}
	}

	last := 0
	for _, loc := range logicalOperator.FindAllStringIndex(s, -1) {
		add(s[last:loc[0]], false)
		add(s[loc[0]:loc[1]], true)
		last = loc[1]
	}
	add(s[last:], false)
	return out
}

// SplitCriteria turns the free-text description of an If/While block into
// clauses. The first clause is kept verbatim; each later clause is prefixed
// with the operator that introduced it ("and ..." / "or ...").
//
// The result is positionally aligned with the block's comparison nodes, but
// its length may differ from the node count.
func SplitCriteria(description string) []string {
	text := ProtectComparators(html.UnescapeString(description))

	var clauses []string
	pending := ""
	for _, f := range splitOperators(text) {
		if f.op {
			// A dangling operator with no clause after it is dropped; a
			// repeated operator replaces the previous one.
			pending = f.text
			continue
		}
		if pending != "" {
			clauses = append(clauses, pending+" "+f.text)
			pending = ""
			continue
		}
		clauses = append(clauses, f.text)
	}
	return clauses
}
