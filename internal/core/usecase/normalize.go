package usecase

import (
	"strings"
	"unicode"
)

// normalizedQuery is the preprocessed form of one incoming question. Terms
// feed the lexical channel with AND semantics; signals feed the adaptive
// weight rules.
type normalizedQuery struct {
	Raw     string
	Tokens  []string
	Terms   []string
	Signals querySignals
}

// querySignals groups the tokens that must survive normalization no matter
// what: acronyms, capitalized non-leading tokens, and numbers. These carry
// strong lexical intent (identifiers, codes, proper nouns).
type querySignals struct {
	Acronyms    []string
	ProperNouns []string
	Numbers     []string
}

func (s querySignals) hasLexicalAnchor() bool {
	return len(s.Acronyms) > 0 || len(s.ProperNouns) > 0
}

func (q normalizedQuery) Expression() string {
	return strings.Join(q.Terms, " ")
}

func normalizeQuery(raw, language string) normalizedQuery {
	tokens := tokenizeQuery(raw)
	stop := stopwordsFor(language)

	out := normalizedQuery{Raw: raw, Tokens: tokens}

	for i, token := range tokens {
		switch {
		case isAcronymToken(token):
			out.Signals.Acronyms = append(out.Signals.Acronyms, token)
		case i > 0 && isCapitalizedToken(token):
			out.Signals.ProperNouns = append(out.Signals.ProperNouns, token)
		case isNumericToken(token):
			out.Signals.Numbers = append(out.Signals.Numbers, token)
		default:
			if _, ok := stop[strings.ToLower(token)]; ok {
				continue
			}
		}
		out.Terms = append(out.Terms, token)
	}

	// A query made entirely of stopwords still has to reach the lexical
	// channel with something to match on.
	if len(out.Terms) == 0 {
		out.Terms = tokens
	}
	return out
}

// tokenizeQuery splits on whitespace and punctuation, keeping letter/digit
// runs with their original casing.
func tokenizeQuery(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func isAcronymToken(token string) bool {
	if len([]rune(token)) < 2 {
		return false
	}
	upper := 0
	for _, r := range token {
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsDigit(r):
		default:
			return false
		}
	}
	return upper >= 2
}

func isCapitalizedToken(token string) bool {
	runes := []rune(token)
	if len(runes) < 2 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isNumericToken(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var stopwordsEN = toStopwordSet(
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "in", "is", "it", "its", "of", "on", "or", "that", "the",
	"their", "there", "these", "this", "to", "was", "were", "will", "with",
	"do", "does", "did", "can", "could", "should", "would", "about",
)

var stopwordsRU = toStopwordSet(
	"а", "без", "бы", "в", "во", "для", "до", "если", "же", "за", "и", "из",
	"или", "к", "как", "ли", "на", "не", "но", "о", "об", "он", "она", "оно",
	"от", "по", "при", "с", "со", "так", "также", "то", "у", "че", "что",
	"чтобы", "это", "этот",
)

func stopwordsFor(language string) map[string]struct{} {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "ru":
		return stopwordsRU
	default:
		return stopwordsEN
	}
}

func toStopwordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
