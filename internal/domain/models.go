package domain

import (
	"fmt"
	"strings"
	"time"
)

// Item is a draggable or matchable element referenced by a stable ID.
type Item struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// Visual is a before/after rendering variant of a step (an SVG fragment or asset reference).
type Visual struct {
	Before string `json:"before,omitempty" yaml:"before,omitempty"`
	After  string `json:"after,omitempty" yaml:"after,omitempty"`
}

// Step is one authored entry of an activity. Steps are immutable once loaded.
type Step struct {
	ID          string          `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Prompt      string          `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Body        string          `json:"body,omitempty" yaml:"body,omitempty"`
	Options     []string        `json:"options,omitempty" yaml:"options,omitempty"`
	Items       []Item          `json:"items,omitempty" yaml:"items,omitempty"`
	Targets     []Item          `json:"targets,omitempty" yaml:"targets,omitempty"`
	Blanks      []string        `json:"blanks,omitempty" yaml:"blanks,omitempty"` // equation parts, "___" marks an input
	Expected    *ExpectedAnswer `json:"expected,omitempty" yaml:"expected,omitempty"`
	Hint        string          `json:"hint,omitempty" yaml:"hint,omitempty"`
	Warning     string          `json:"warning,omitempty" yaml:"warning,omitempty"`
	Explanation string          `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Visual      Visual          `json:"visual,omitempty" yaml:"visual,omitempty"`
	Compound    int             `json:"compound,omitempty" yaml:"compound,omitempty"` // PubChem CID
	Points      int             `json:"points,omitempty" yaml:"points,omitempty"`     // defaults to 1 if zero
}

// Answerable reports whether the step carries an expected answer.
func (s Step) Answerable() bool {
	return s.Expected != nil
}

// CompletionPolicy decides which verdicts count a step as completed.
type CompletionPolicy string

const (
	CompleteOnAnswered CompletionPolicy = "answered"
	CompleteOnCorrect  CompletionPolicy = "correct"
)

// ScoringPolicy decides how much a correct verdict is worth.
type ScoringPolicy string

const (
	ScorePerCorrect ScoringPolicy = "per_correct"
	ScoreByPoints   ScoringPolicy = "points"
)

// Activity is one interactive widget: an ordered step list plus its configuration.
type Activity struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Chapter  int    `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	PathID   string `json:"pathId,omitempty" yaml:"pathId,omitempty"`
	ModuleID string `json:"moduleId,omitempty" yaml:"moduleId,omitempty"`

	Completion           CompletionPolicy `json:"completion,omitempty" yaml:"completion,omitempty"`
	Scoring              ScoringPolicy    `json:"scoring,omitempty" yaml:"scoring,omitempty"`
	RequireAnswer        bool             `json:"requireAnswer,omitempty" yaml:"requireAnswer,omitempty"`
	HideHintAfterVerdict bool             `json:"hideHintAfterVerdict,omitempty" yaml:"hideHintAfterVerdict,omitempty"`
	TimeLimit            time.Duration    `json:"timeLimit,omitempty" yaml:"timeLimit,omitempty"`

	Steps []Step `json:"steps" yaml:"steps"`
}

// Validate fails fast on authoring defects. Every returned error wraps ErrMalformedStep.
func (a Activity) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: activity without id", ErrMalformedStep)
	}
	if len(a.Steps) == 0 {
		return fmt.Errorf("%w: activity %s has no steps", ErrMalformedStep, a.ID)
	}
	switch a.Completion {
	case "", CompleteOnAnswered, CompleteOnCorrect:
	default:
		return fmt.Errorf("%w: activity %s: unknown completion policy %q", ErrMalformedStep, a.ID, a.Completion)
	}
	switch a.Scoring {
	case "", ScorePerCorrect, ScoreByPoints:
	default:
		return fmt.Errorf("%w: activity %s: unknown scoring policy %q", ErrMalformedStep, a.ID, a.Scoring)
	}

	seen := make(map[string]struct{}, len(a.Steps))
	for i, step := range a.Steps {
		if step.ID == "" {
			return fmt.Errorf("%w: activity %s step %d has no id", ErrMalformedStep, a.ID, i)
		}
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("%w: activity %s: duplicate step id %s", ErrMalformedStep, a.ID, step.ID)
		}
		seen[step.ID] = struct{}{}

		if step.Expected == nil {
			// Gated activities only accept exploration steps without inputs.
			if a.RequireAnswer && (len(step.Options) > 0 || len(step.Items) > 0 || len(step.Blanks) > 0) {
				return fmt.Errorf("%w: activity %s step %s has inputs but no expected answer", ErrMalformedStep, a.ID, step.ID)
			}
			continue
		}
		if err := validateExpected(step); err != nil {
			return fmt.Errorf("%w: activity %s step %s: %v", ErrMalformedStep, a.ID, step.ID, err)
		}
	}
	return nil
}

func validateExpected(step Step) error {
	exp := step.Expected
	switch exp.Kind {
	case KindSingleChoice:
		if exp.Index < 0 || exp.Index >= len(step.Options) {
			return fmt.Errorf("expected index %d outside %d options", exp.Index, len(step.Options))
		}
	case KindOrderedSequence:
		if len(exp.Order) == 0 {
			return fmt.Errorf("empty expected order")
		}
		ids := itemIDs(step.Items)
		for _, id := range exp.Order {
			if _, ok := ids[id]; !ok {
				return fmt.Errorf("expected order references unknown item %q", id)
			}
		}
	case KindMatching:
		if len(exp.Pairs) == 0 {
			return fmt.Errorf("empty expected pairs")
		}
		left, right := itemIDs(step.Items), itemIDs(step.Targets)
		for l, r := range exp.Pairs {
			if _, ok := left[l]; !ok {
				return fmt.Errorf("pair references unknown left item %q", l)
			}
			if _, ok := right[r]; !ok {
				return fmt.Errorf("pair references unknown right item %q", r)
			}
		}
	case KindFuzzyText:
		if len(exp.Texts) == 0 {
			return fmt.Errorf("empty expected texts")
		}
		if exp.PrefixLen < 0 {
			return fmt.Errorf("negative prefix length")
		}
		for i, t := range exp.Texts {
			if strings.TrimSpace(t) == "" {
				return fmt.Errorf("expected text %d is blank", i)
			}
		}
	default:
		return fmt.Errorf("unknown answer kind %q", exp.Kind)
	}
	return nil
}

func itemIDs(items []Item) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it.ID] = struct{}{}
	}
	return out
}
