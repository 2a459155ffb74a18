package domain

import "time"

// StepView is the learner-facing projection of a step. Expected answers never
// leave the server; the explanation and hint only appear once revealed.
type StepView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Prompt      string   `json:"prompt,omitempty"`
	Body        string   `json:"body,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	Options     []string `json:"options,omitempty"`
	Items       []Item   `json:"items,omitempty"`
	Targets     []Item   `json:"targets,omitempty"`
	Blanks      []string `json:"blanks,omitempty"`
	Warning     string   `json:"warning,omitempty"`
	HasHint     bool     `json:"hasHint"`
	Hint        string   `json:"hint,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Visual      string   `json:"visual,omitempty"`
	Compound    int      `json:"compound,omitempty"`
}

// NewStepView projects a step without any revealed panels.
func NewStepView(s Step) StepView {
	view := StepView{
		ID:       s.ID,
		Title:    s.Title,
		Prompt:   s.Prompt,
		Body:     s.Body,
		Options:  s.Options,
		Items:    s.Items,
		Targets:  s.Targets,
		Blanks:   s.Blanks,
		Warning:  s.Warning,
		HasHint:  s.Hint != "",
		Visual:   s.Visual.Before,
		Compound: s.Compound,
	}
	if s.Expected != nil {
		view.Kind = string(s.Expected.Kind)
	}
	return view
}

// RevealState lists which disclosure panels are open.
type RevealState struct {
	Hint        bool `json:"hint"`
	Explanation bool `json:"explanation"`
	After       bool `json:"after"`
}

// SessionSnapshot is broadcast to the widget after every state change.
type SessionSnapshot struct {
	SessionID  string        `json:"sessionId"`
	ActivityID string        `json:"activityId"`
	LearnerID  string        `json:"learnerId"`
	StepIndex  int           `json:"stepIndex"`
	StepCount  int           `json:"stepCount"`
	Step       StepView      `json:"step"`
	Answer     WorkingAnswer `json:"answer"`
	Verdict    Verdict       `json:"verdict"`
	Reveal     RevealState   `json:"reveal"`
	Score      int           `json:"score"`
	Streak     int           `json:"streak"`
	BestStreak int           `json:"bestStreak"`
	Progress   float64       `json:"progress"`
	Complete   bool          `json:"complete"`
	Final      *FinalScore   `json:"final,omitempty"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// SubmitResult summarizes one submission.
type SubmitResult struct {
	StepID      string  `json:"stepId"`
	Verdict     Verdict `json:"verdict"`
	Awarded     int     `json:"awarded"`
	TotalScore  int     `json:"totalScore"`
	Streak      int     `json:"streak"`
	Explanation string  `json:"explanation,omitempty"`
}
