package app

import (
	"strings"

	"ochem-lab-service/internal/domain"
)

// Validate judges a working answer against the step's expected answer.
// Answers of the wrong shape are incorrect; a missing descriptor is an
// authoring defect rejected at load time, so it only yields unanswered here.
func Validate(expected *domain.ExpectedAnswer, answer domain.WorkingAnswer) domain.Verdict {
	if expected == nil {
		return domain.VerdictUnanswered
	}
	var ok bool
	switch expected.Kind {
	case domain.KindSingleChoice:
		ok = validateSingleChoice(expected.Index, answer.Index)
	case domain.KindOrderedSequence:
		ok = validateOrder(expected.Order, answer.Sequence)
	case domain.KindMatching:
		ok = validateMatches(expected.Pairs, answer.Matches)
	case domain.KindFuzzyText:
		ok = validateFuzzy(expected.Texts, answer.Texts, expected.PrefixLen)
	}
	if ok {
		return domain.VerdictCorrect
	}
	return domain.VerdictIncorrect
}

func validateSingleChoice(want int, got *int) bool {
	return got != nil && *got == want
}

func validateOrder(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func validateMatches(want, got map[string]string) bool {
	for left, right := range want {
		if got[left] != right {
			return false
		}
	}
	return true
}

// validateFuzzy accepts a blank when the input contains, case-insensitively,
// the first prefixLen characters of the expected text.
func validateFuzzy(want, got []string, prefixLen int) bool {
	if prefixLen <= 0 {
		prefixLen = domain.DefaultPrefixLen
	}
	for i, expected := range want {
		input := ""
		if i < len(got) {
			input = got[i]
		}
		if !MatchesLeadingPrefix(input, expected, prefixLen) {
			return false
		}
	}
	return true
}

// MatchesLeadingPrefix reports whether input contains the leading n runes of expected.
func MatchesLeadingPrefix(input, expected string, n int) bool {
	prefix := []rune(strings.ToLower(expected))
	if len(prefix) > n {
		prefix = prefix[:n]
	}
	return strings.Contains(strings.ToLower(input), string(prefix))
}
