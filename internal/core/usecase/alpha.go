package usecase

import "strings"

// alphaRule is one (predicate, value) pair of the adaptive weight
// selector. Rules are evaluated in order; the first match wins.
type alphaRule struct {
	name    string
	applies func(q normalizedQuery) bool
	value   float64
}

const (
	alphaLexicalAnchor   = 0.3
	alphaConceptual      = 0.7
	alphaShortQuery      = 0.4
	alphaDefault         = 0.5
	shortQueryMaxTokens  = 4
	defaultAlphaRuleName = "default"
)

var defaultConceptMarkers = []string{
	"why", "how", "explain", "meaning", "what", "describe", "difference",
	"почему", "как", "объясни",
}

func defaultAlphaRules(conceptMarkers []string) []alphaRule {
	if len(conceptMarkers) == 0 {
		conceptMarkers = defaultConceptMarkers
	}
	markers := make(map[string]struct{}, len(conceptMarkers))
	for _, m := range conceptMarkers {
		markers[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}

	return []alphaRule{
		{
			name: "lexical_anchor",
			applies: func(q normalizedQuery) bool {
				return q.Signals.hasLexicalAnchor()
			},
			value: alphaLexicalAnchor,
		},
		{
			name: "conceptual_marker",
			applies: func(q normalizedQuery) bool {
				for _, token := range q.Tokens {
					if _, ok := markers[strings.ToLower(token)]; ok {
						return true
					}
				}
				return false
			},
			value: alphaConceptual,
		},
		{
			name: "short_query",
			applies: func(q normalizedQuery) bool {
				return len(q.Tokens) <= shortQueryMaxTokens
			},
			value: alphaShortQuery,
		},
	}
}

// selectAlpha returns the semantic-channel weight plus the name of the
// rule that produced it.
func selectAlpha(q normalizedQuery, rules []alphaRule) (float64, string) {
	for _, rule := range rules {
		if rule.applies(q) {
			return rule.value, rule.name
		}
	}
	return alphaDefault, defaultAlphaRuleName
}
