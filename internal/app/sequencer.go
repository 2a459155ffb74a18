package app

import "ochem-lab-service/internal/domain"

// Turn is the transient per-step state. It is replaced on every index change.
type Turn struct {
	Answer  domain.WorkingAnswer
	Verdict domain.Verdict
}

// Sequencer walks an ordered, immutable step list. It is not safe for
// concurrent use; Session serializes access.
type Sequencer struct {
	steps         []domain.Step
	requireAnswer bool

	index    int
	complete bool
	turn     Turn
	outcomes map[int]domain.Verdict
	hooks    []func(from, to int)
}

func NewSequencer(steps []domain.Step, requireAnswer bool) *Sequencer {
	return &Sequencer{
		steps:         steps,
		requireAnswer: requireAnswer,
		outcomes:      make(map[int]domain.Verdict),
	}
}

// OnStepChange registers a hook run after every index change and reset.
func (s *Sequencer) OnStepChange(fn func(from, to int)) {
	s.hooks = append(s.hooks, fn)
}

func (s *Sequencer) Len() int { return len(s.steps) }
func (s *Sequencer) Index() int { return s.index }
func (s *Sequencer) Complete() bool { return s.complete }
func (s *Sequencer) Turn() Turn { return s.turn }

// Current returns the step at the current index.
func (s *Sequencer) Current() (domain.Step, error) {
	if len(s.steps) == 0 {
		return domain.Step{}, domain.ErrIndexOutOfRange
	}
	return s.steps[s.index], nil
}

// SetAnswer replaces the working answer until a verdict exists.
func (s *Sequencer) SetAnswer(answer domain.WorkingAnswer) error {
	if s.turn.Verdict.Answered() {
		return domain.ErrAlreadyAnswered
	}
	s.turn.Answer = answer
	return nil
}

// Record stores the verdict of the current step.
func (s *Sequencer) Record(v domain.Verdict) error {
	if s.turn.Verdict.Answered() {
		return domain.ErrAlreadyAnswered
	}
	s.turn.Verdict = v
	if v.Answered() {
		s.outcomes[s.index] = v
	}
	return nil
}

// Advance moves forward. At the last step it marks the sequence complete once
// the step is answered (or carries nothing to answer). Past completion it is a no-op.
func (s *Sequencer) Advance() error {
	if s.complete || len(s.steps) == 0 {
		return nil
	}
	step := s.steps[s.index]
	pending := step.Answerable() && !s.turn.Verdict.Answered() && !s.outcomes[s.index].Answered()

	if s.index < len(s.steps)-1 {
		if pending && s.requireAnswer {
			return domain.ErrAnswerRequired
		}
		s.moveTo(s.index + 1)
		return nil
	}

	if pending {
		if s.requireAnswer {
			return domain.ErrAnswerRequired
		}
		return nil
	}
	s.complete = true
	return nil
}

// Finish forces completion, e.g. when a time limit expires.
func (s *Sequencer) Finish() {
	s.complete = true
}

// Retreat moves back one step; no-op at the first step.
func (s *Sequencer) Retreat() {
	if s.index == 0 {
		return
	}
	s.moveTo(s.index - 1)
}

// JumpTo sets the index directly. Out-of-range requests leave state untouched.
func (s *Sequencer) JumpTo(index int) error {
	if index < 0 || index >= len(s.steps) {
		return domain.ErrInvalidIndex
	}
	if s.requireAnswer && index > s.index && s.firstUnanswered() < index {
		return domain.ErrAnswerRequired
	}
	s.moveTo(index)
	return nil
}

// Reset returns to the first step with no completion and no recorded outcomes.
func (s *Sequencer) Reset() {
	from := s.index
	s.index = 0
	s.complete = false
	s.turn = Turn{}
	s.outcomes = make(map[int]domain.Verdict)
	s.fire(from, 0)
}

// Outcome returns the last recorded verdict for step i.
func (s *Sequencer) Outcome(i int) domain.Verdict {
	return s.outcomes[i]
}

// Progress is completed/total*100, counted under the given policy.
func (s *Sequencer) Progress(policy domain.CompletionPolicy) float64 {
	if len(s.steps) == 0 {
		return 0
	}
	return float64(s.completedSteps(policy)) / float64(len(s.steps)) * 100
}

func (s *Sequencer) completedSteps(policy domain.CompletionPolicy) int {
	n := 0
	for _, v := range s.outcomes {
		if policy == domain.CompleteOnCorrect && v != domain.VerdictCorrect {
			continue
		}
		n++
	}
	return n
}

// AllAnswered reports whether every answerable step has a recorded outcome.
func (s *Sequencer) AllAnswered() bool {
	return s.firstUnanswered() == len(s.steps)
}

// firstUnanswered is the lowest answerable step without an outcome, or len(steps).
func (s *Sequencer) firstUnanswered() int {
	for i, step := range s.steps {
		if step.Answerable() && !s.outcomes[i].Answered() {
			return i
		}
	}
	return len(s.steps)
}

func (s *Sequencer) moveTo(index int) {
	from := s.index
	s.index = index
	s.turn = Turn{}
	s.fire(from, index)
}

func (s *Sequencer) fire(from, to int) {
	for _, fn := range s.hooks {
		fn(from, to)
	}
}
