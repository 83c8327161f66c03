package usecase

import "testing"

func TestSelectAlphaAcronymFavorsLexical(t *testing.T) {
	rules := defaultAlphaRules(nil)

	q := normalizeQuery("explain the RTT procedure", "en")
	alpha, rule := selectAlpha(q, rules)
	if alpha != alphaLexicalAnchor {
		t.Fatalf("expected alpha=%.1f for acronym query, got %.2f (rule %s)", alphaLexicalAnchor, alpha, rule)
	}
	if rule != "lexical_anchor" {
		t.Fatalf("expected lexical_anchor rule, got %s", rule)
	}
}

func TestSelectAlphaAcronymNeverExceedsBoundary(t *testing.T) {
	rules := defaultAlphaRules(nil)

	queries := []string{
		"why does TCP retransmit",
		"how to explain the HTTP handshake meaning",
		"SLA",
		"what is the correct DNS TTL value for failover zones here",
	}
	for _, raw := range queries {
		alpha, rule := selectAlpha(normalizeQuery(raw, "en"), rules)
		if alpha > alphaLexicalAnchor {
			t.Fatalf("query %q with all-caps token got alpha %.2f (rule %s), must not exceed %.1f", raw, alpha, rule, alphaLexicalAnchor)
		}
	}
}

func TestSelectAlphaConceptualMarker(t *testing.T) {
	rules := defaultAlphaRules(nil)

	alpha, rule := selectAlpha(normalizeQuery("explain the meaning of eventual consistency", "en"), rules)
	if alpha != alphaConceptual {
		t.Fatalf("expected alpha=%.1f for conceptual query, got %.2f (rule %s)", alphaConceptual, alpha, rule)
	}
}

func TestSelectAlphaShortQuery(t *testing.T) {
	rules := defaultAlphaRules(nil)

	alpha, _ := selectAlpha(normalizeQuery("invoice archive retention", "en"), rules)
	if alpha != alphaShortQuery {
		t.Fatalf("expected alpha=%.1f for short query, got %.2f", alphaShortQuery, alpha)
	}
}

func TestSelectAlphaDefault(t *testing.T) {
	rules := defaultAlphaRules(nil)

	alpha, rule := selectAlpha(normalizeQuery("document retention rules applied across all archived storage tiers", "en"), rules)
	if alpha != alphaDefault {
		t.Fatalf("expected default alpha %.1f, got %.2f (rule %s)", alphaDefault, alpha, rule)
	}
}

func TestSelectAlphaCustomMarkers(t *testing.T) {
	rules := defaultAlphaRules([]string{"compare"})

	alpha, rule := selectAlpha(normalizeQuery("compare the two archive storage layouts carefully", "en"), rules)
	if alpha != alphaConceptual || rule != "conceptual_marker" {
		t.Fatalf("expected custom marker to trigger conceptual rule, got alpha=%.2f rule=%s", alpha, rule)
	}
}
