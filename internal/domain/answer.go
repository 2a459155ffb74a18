package domain

import (
	"fmt"
	"strings"
)

// AnswerKind tags the shape of an expected answer.
type AnswerKind string

const (
	KindSingleChoice    AnswerKind = "single_choice"
	KindOrderedSequence AnswerKind = "ordered_sequence"
	KindMatching        AnswerKind = "matching"
	KindFuzzyText       AnswerKind = "fuzzy_text"
)

// DefaultPrefixLen is how many leading characters of an expected fill-in
// answer must appear in the learner's text.
const DefaultPrefixLen = 5

// ExpectedAnswer is the author-supplied answer descriptor of a step.
// Only the payload matching Kind is meaningful.
type ExpectedAnswer struct {
	Kind      AnswerKind        `json:"kind" yaml:"kind"`
	Index     int               `json:"index,omitempty" yaml:"index,omitempty"`
	Order     []string          `json:"order,omitempty" yaml:"order,omitempty"`
	Pairs     map[string]string `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Texts     []string          `json:"texts,omitempty" yaml:"texts,omitempty"`
	PrefixLen int               `json:"prefixLen,omitempty" yaml:"prefixLen,omitempty"`
}

// WorkingAnswer is the learner's in-progress input for the current step.
type WorkingAnswer struct {
	Index    *int              `json:"index,omitempty"`
	Sequence []string          `json:"sequence,omitempty"`
	Matches  map[string]string `json:"matches,omitempty"`
	Texts    []string          `json:"texts,omitempty"`
}

// IsEmpty reports whether nothing has been entered yet.
func (a WorkingAnswer) IsEmpty() bool {
	return a.Index == nil && len(a.Sequence) == 0 && len(a.Matches) == 0 && len(a.Texts) == 0
}

// Verdict is the outcome of validating the current step.
type Verdict int

const (
	VerdictUnanswered Verdict = iota
	VerdictCorrect
	VerdictIncorrect
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	default:
		return "unanswered"
	}
}

// Answered is true for both correct and incorrect verdicts.
func (v Verdict) Answered() bool {
	return v != VerdictUnanswered
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "correct":
		*v = VerdictCorrect
	case "incorrect":
		*v = VerdictIncorrect
	case "", "unanswered":
		*v = VerdictUnanswered
	default:
		return fmt.Errorf("unknown verdict %q", string(b))
	}
	return nil
}
