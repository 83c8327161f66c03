package usecase

import (
	"reflect"
	"testing"
)

func TestNormalizeQueryDropsStopwords(t *testing.T) {
	q := normalizeQuery("what is the retention policy for backups", "en")
	want := []string{"what", "retention", "policy", "backups"}
	if !reflect.DeepEqual(q.Terms, want) {
		t.Fatalf("expected terms %v, got %v", want, q.Terms)
	}
}

func TestNormalizeQueryKeepsStrongSignals(t *testing.T) {
	q := normalizeQuery("how does the RTT buffer in Release 42 work", "en")

	if len(q.Signals.Acronyms) != 1 || q.Signals.Acronyms[0] != "RTT" {
		t.Fatalf("expected RTT acronym signal, got %v", q.Signals.Acronyms)
	}
	if len(q.Signals.ProperNouns) != 1 || q.Signals.ProperNouns[0] != "Release" {
		t.Fatalf("expected Release proper-noun signal, got %v", q.Signals.ProperNouns)
	}
	if len(q.Signals.Numbers) != 1 || q.Signals.Numbers[0] != "42" {
		t.Fatalf("expected 42 numeric signal, got %v", q.Signals.Numbers)
	}
}

func TestNormalizeQueryLeadingCapitalIsNotProperNoun(t *testing.T) {
	q := normalizeQuery("Where is the invoice archive", "en")
	if len(q.Signals.ProperNouns) != 0 {
		t.Fatalf("leading capitalized token must not count as proper noun, got %v", q.Signals.ProperNouns)
	}
}

func TestNormalizeQueryAllStopwordsFallsBack(t *testing.T) {
	q := normalizeQuery("is it in the was", "en")
	if len(q.Terms) != 5 {
		t.Fatalf("expected fallback to full token list, got %v", q.Terms)
	}
	if q.Expression() == "" {
		t.Fatalf("lexical expression must never be empty for a tokenizable query")
	}
}

func TestNormalizeQueryRussianStopwords(t *testing.T) {
	q := normalizeQuery("что такое индекс и как он работает", "ru")
	for _, term := range q.Terms {
		if term == "и" {
			t.Fatalf("expected russian stopword dropped, got terms %v", q.Terms)
		}
	}
}

func TestNormalizeQueryEmptyInput(t *testing.T) {
	q := normalizeQuery("  ?!  ", "en")
	if len(q.Tokens) != 0 {
		t.Fatalf("expected no tokens, got %v", q.Tokens)
	}
}
