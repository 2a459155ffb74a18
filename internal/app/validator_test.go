package app

import (
	"testing"

	"ochem-lab-service/internal/domain"
)

func TestValidateSingleChoice(t *testing.T) {
	exp := &domain.ExpectedAnswer{Kind: domain.KindSingleChoice, Index: 2}
	if v := Validate(exp, domain.WorkingAnswer{Index: intPtr(2)}); v != domain.VerdictCorrect {
		t.Fatalf("expected correct, got %s", v)
	}
	if v := Validate(exp, domain.WorkingAnswer{Index: intPtr(1)}); v != domain.VerdictIncorrect {
		t.Fatalf("expected incorrect, got %s", v)
	}
	if v := Validate(exp, domain.WorkingAnswer{}); v != domain.VerdictIncorrect {
		t.Fatalf("no selection must be incorrect, got %s", v)
	}
}

func TestValidateOrderIsExact(t *testing.T) {
	exp := &domain.ExpectedAnswer{Kind: domain.KindOrderedSequence, Order: []string{"a", "b", "c"}}
	cases := map[string][]string{
		"swapped":     {"a", "c", "b"},
		"subsequence": {"a", "b"},
		"longer":      {"a", "b", "c", "d"},
	}
	for name, seq := range cases {
		if v := Validate(exp, domain.WorkingAnswer{Sequence: seq}); v != domain.VerdictIncorrect {
			t.Fatalf("%s: expected incorrect, got %s", name, v)
		}
	}
	if v := Validate(exp, domain.WorkingAnswer{Sequence: []string{"a", "b", "c"}}); v != domain.VerdictCorrect {
		t.Fatalf("exact order should be correct, got %s", v)
	}
}

func TestValidateMatching(t *testing.T) {
	exp := &domain.ExpectedAnswer{Kind: domain.KindMatching, Pairs: map[string]string{
		"phenolic": "irritation", "ester": "protects", "acid": "activity",
	}}
	right := map[string]string{"phenolic": "irritation", "ester": "protects", "acid": "activity"}
	if v := Validate(exp, domain.WorkingAnswer{Matches: right}); v != domain.VerdictCorrect {
		t.Fatalf("expected correct, got %s", v)
	}
	swapped := map[string]string{"phenolic": "protects", "ester": "irritation", "acid": "activity"}
	if v := Validate(exp, domain.WorkingAnswer{Matches: swapped}); v != domain.VerdictIncorrect {
		t.Fatalf("swapped pair must be incorrect, got %s", v)
	}
	partial := map[string]string{"phenolic": "irritation"}
	if v := Validate(exp, domain.WorkingAnswer{Matches: partial}); v != domain.VerdictIncorrect {
		t.Fatalf("partial matching must be incorrect, got %s", v)
	}
}

// The fill-in rule only looks for the first five characters of the expected
// text inside the input. Pinned as is, leniency included.
func TestValidateFuzzyLeadingPrefix(t *testing.T) {
	exp := &domain.ExpectedAnswer{Kind: domain.KindFuzzyText, Texts: []string{"Acetic Anhydride"}}
	accepted := []string{"acetic anh", "ACETIC ANHYDRIDE", "Acetic", "glacial acetic"}
	for _, in := range accepted {
		if v := Validate(exp, domain.WorkingAnswer{Texts: []string{in}}); v != domain.VerdictCorrect {
			t.Fatalf("%q: expected correct, got %s", in, v)
		}
	}
	rejected := []string{"Acet", "Anhydride", ""}
	for _, in := range rejected {
		if v := Validate(exp, domain.WorkingAnswer{Texts: []string{in}}); v != domain.VerdictIncorrect {
			t.Fatalf("%q: expected incorrect, got %s", in, v)
		}
	}
}

func TestValidateFuzzyEveryBlank(t *testing.T) {
	exp := &domain.ExpectedAnswer{Kind: domain.KindFuzzyText, Texts: []string{"Acetic Anhydride", "Acetic Acid"}}
	if v := Validate(exp, domain.WorkingAnswer{Texts: []string{"Acetic"}}); v != domain.VerdictIncorrect {
		t.Fatalf("one filled blank out of two must be incorrect, got %s", v)
	}
	if v := Validate(exp, domain.WorkingAnswer{Texts: []string{"acetic anh", "acetic acid"}}); v != domain.VerdictCorrect {
		t.Fatalf("expected correct, got %s", v)
	}
}

func TestValidateCustomPrefixLen(t *testing.T) {
	exp := &domain.ExpectedAnswer{Kind: domain.KindFuzzyText, Texts: []string{"Phenazopyridine"}, PrefixLen: 9}
	if v := Validate(exp, domain.WorkingAnswer{Texts: []string{"phenazo"}}); v != domain.VerdictIncorrect {
		t.Fatalf("7 chars under a 9 char rule must be incorrect, got %s", v)
	}
	if v := Validate(exp, domain.WorkingAnswer{Texts: []string{"phenazopy"}}); v != domain.VerdictCorrect {
		t.Fatalf("expected correct, got %s", v)
	}
}

func TestValidateWithoutDescriptor(t *testing.T) {
	if v := Validate(nil, domain.WorkingAnswer{Index: intPtr(0)}); v != domain.VerdictUnanswered {
		t.Fatalf("expected unanswered, got %s", v)
	}
}

func TestMatchesLeadingPrefixShortExpected(t *testing.T) {
	if !MatchesLeadingPrefix("sodium borohydride + H2O", "H2O", 5) {
		t.Fatalf("expected text shorter than n should match as a whole")
	}
}
