package app

import (
	"fmt"

	"ochem-lab-service/internal/domain"
)

// Panel names a disclosure panel bound to the current step.
type Panel string

const (
	PanelHint        Panel = "hint"
	PanelExplanation Panel = "explanation"
	PanelAfter       Panel = "after"
)

// ParsePanel maps a wire name to a Panel.
func ParsePanel(name string) (Panel, error) {
	switch p := Panel(name); p {
	case PanelHint, PanelExplanation, PanelAfter:
		return p, nil
	}
	return "", fmt.Errorf("unknown panel %q", name)
}

// Reveal toggles the hint, explanation and after-state panels. It never
// touches the score.
type Reveal struct {
	hideHintAfterVerdict bool
	verdict              domain.Verdict
	open                 map[Panel]bool
}

func NewReveal(hideHintAfterVerdict bool) *Reveal {
	return &Reveal{
		hideHintAfterVerdict: hideHintAfterVerdict,
		open:                 make(map[Panel]bool),
	}
}

// ShowHint opens the hint panel. It reports false when hints are locked
// because a verdict already exists.
func (r *Reveal) ShowHint() bool {
	if r.hintLocked() {
		return false
	}
	r.open[PanelHint] = true
	return true
}

func (r *Reveal) HideHint() {
	r.open[PanelHint] = false
}

// Toggle flips a panel and returns its new state.
func (r *Reveal) Toggle(p Panel) bool {
	if p == PanelHint {
		if r.open[PanelHint] {
			r.HideHint()
			return false
		}
		return r.ShowHint()
	}
	r.open[p] = !r.open[p]
	return r.open[p]
}

// RevealVerdict shows correctness styling and the explanation right after submission.
func (r *Reveal) RevealVerdict(v domain.Verdict) {
	r.verdict = v
	if !v.Answered() {
		return
	}
	r.open[PanelExplanation] = true
	r.open[PanelAfter] = true
	if r.hideHintAfterVerdict {
		r.open[PanelHint] = false
	}
}

func (r *Reveal) Verdict() domain.Verdict { return r.verdict }

func (r *Reveal) IsOpen(p Panel) bool { return r.open[p] }

// Reset closes every panel; called on each step change.
func (r *Reveal) Reset() {
	r.verdict = domain.VerdictUnanswered
	r.open = make(map[Panel]bool)
}

func (r *Reveal) State() domain.RevealState {
	return domain.RevealState{
		Hint:        r.open[PanelHint],
		Explanation: r.open[PanelExplanation],
		After:       r.open[PanelAfter],
	}
}

func (r *Reveal) hintLocked() bool {
	return r.hideHintAfterVerdict && r.verdict.Answered()
}
