package app

import (
	"context"
	"sync"
	"time"

	"ochem-lab-service/internal/domain"
	"ochem-lab-service/internal/timer"
)

// Session is the state of one mounted activity widget. Every mutation runs
// under mu, so interactions are strictly sequential.
type Session struct {
	id        string
	learnerID string
	activity  domain.Activity
	createdAt time.Time
	now       func() time.Time
	sched     timer.Scheduler

	mu          sync.RWMutex
	seq         *Sequencer
	reveal      *Reveal
	rec         *Recorder
	timedOut    bool
	cancelTimer timer.CancelFunc
	timerGen    uint64
	subscribers map[chan domain.SessionSnapshot]struct{}
}

// NewSession is exported for infrastructure layers and tests that need to seed sessions.
func NewSession(id, learnerID string, activity domain.Activity, rec *Recorder) *Session {
	return newSessionWithClock(id, learnerID, activity, rec, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, learnerID string, activity domain.Activity, rec *Recorder, now func() time.Time) *Session {
	return newSessionWithClock(id, learnerID, activity, rec, now)
}

func newSessionWithClock(id, learnerID string, activity domain.Activity, rec *Recorder, now func() time.Time) *Session {
	if rec == nil {
		rec = NewRecorder(RecorderConfig{
			LearnerID:  learnerID,
			ActivityID: activity.ID,
			Scoring:    activity.Scoring,
			TotalSteps: len(activity.Steps),
			MaxScore:   MaxScore(activity),
		}, nil, nil)
	}
	s := &Session{
		id:          id,
		learnerID:   learnerID,
		activity:    activity,
		createdAt:   now(),
		now:         now,
		seq:         NewSequencer(activity.Steps, activity.RequireAnswer),
		reveal:      NewReveal(activity.HideHintAfterVerdict),
		rec:         rec,
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
	s.seq.OnStepChange(func(_, _ int) { s.reveal.Reset() })
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) ActivityID() string { return s.activity.ID }

// MaxScore is the best achievable score of an activity under its scoring policy.
func MaxScore(a domain.Activity) int {
	total := 0
	for _, step := range a.Steps {
		if !step.Answerable() {
			continue
		}
		if a.Scoring == domain.ScoreByPoints && step.Points > 0 {
			total += step.Points
		} else {
			total++
		}
	}
	return total
}

// Answer replaces the working answer of the current step.
func (s *Session) Answer(answer domain.WorkingAnswer) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq.Complete() {
		return domain.SessionSnapshot{}, domain.ErrSessionComplete
	}
	if err := s.seq.SetAnswer(answer); err != nil {
		return domain.SessionSnapshot{}, err
	}
	return s.broadcastLocked(), nil
}

// Submit validates the working answer, reveals the verdict and records it.
// A verdict on the last step finalizes the score.
func (s *Session) Submit(ctx context.Context) (domain.SubmitResult, domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq.Complete() {
		return domain.SubmitResult{}, domain.SessionSnapshot{}, domain.ErrSessionComplete
	}
	step, err := s.seq.Current()
	if err != nil {
		return domain.SubmitResult{}, domain.SessionSnapshot{}, err
	}
	if !step.Answerable() {
		return domain.SubmitResult{}, domain.SessionSnapshot{}, domain.ErrNotAnswerable
	}
	if s.seq.Turn().Answer.IsEmpty() {
		return domain.SubmitResult{}, domain.SessionSnapshot{}, domain.ErrEmptyAnswer
	}

	verdict := Validate(step.Expected, s.seq.Turn().Answer)
	if err := s.seq.Record(verdict); err != nil {
		return domain.SubmitResult{}, domain.SessionSnapshot{}, err
	}
	s.reveal.RevealVerdict(verdict)
	awarded := s.rec.RecordAnswer(ctx, step, verdict == domain.VerdictCorrect)

	// out-of-order runs finalize on the Advance that completes the sequence
	if s.seq.Index() == s.seq.Len()-1 && s.seq.AllAnswered() {
		s.rec.Finalize(ctx, s.progressLocked(), false)
	}

	result := domain.SubmitResult{
		StepID:      step.ID,
		Verdict:     verdict,
		Awarded:     awarded,
		TotalScore:  s.rec.Score(),
		Streak:      s.rec.Streak(),
		Explanation: step.Explanation,
	}
	return result, s.broadcastLocked(), nil
}

func (s *Session) Advance(ctx context.Context) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.seq.Advance(); err != nil {
		return domain.SessionSnapshot{}, err
	}
	if s.seq.Complete() {
		s.rec.Finalize(ctx, s.progressLocked(), s.timedOut)
	}
	return s.broadcastLocked(), nil
}

func (s *Session) Retreat() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seq.Complete() {
		s.seq.Retreat()
	}
	return s.broadcastLocked()
}

func (s *Session) JumpTo(index int) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq.Complete() {
		return domain.SessionSnapshot{}, domain.ErrSessionComplete
	}
	if err := s.seq.JumpTo(index); err != nil {
		return domain.SessionSnapshot{}, err
	}
	return s.broadcastLocked(), nil
}

// Reset restarts the activity from step 0 with fresh counters and timer.
func (s *Session) Reset() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.Reset()
	s.rec.Reset()
	s.timedOut = false
	s.armTimerLocked()
	return s.broadcastLocked()
}

// Hint shows or hides the hint. Showing is refused once hints are locked.
func (s *Session) Hint(show bool) (domain.SessionSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shown := false
	if show {
		shown = s.reveal.ShowHint()
	} else {
		s.reveal.HideHint()
	}
	return s.broadcastLocked(), shown
}

func (s *Session) TogglePanel(p Panel) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reveal.Toggle(p)
	return s.broadcastLocked()
}

func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Start arms the time limit, if the activity has one.
func (s *Session) Start(sched timer.Scheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched = sched
	s.armTimerLocked()
}

// Close stops the timer and releases subscribers; the session is unusable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerGen++
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Subscribe returns a channel of snapshots; the caller must invoke cancel.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// expire ends a timed activity: the remaining steps are forfeited.
// A callback from a timer that was re-armed or cancelled since is ignored.
func (s *Session) expire(ctx context.Context, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen {
		return
	}
	s.cancelTimer = nil
	if s.seq.Complete() {
		return
	}
	s.timedOut = true
	s.seq.Finish()
	s.rec.Finalize(ctx, s.progressLocked(), true)
	s.broadcastLocked()
}

func (s *Session) armTimerLocked() {
	s.timerGen++
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
	if s.sched == nil || s.activity.TimeLimit <= 0 {
		return
	}
	gen := s.timerGen
	s.cancelTimer = s.sched.After(s.activity.TimeLimit, func() {
		s.expire(context.Background(), gen)
	})
}

func (s *Session) progressLocked() float64 {
	policy := s.activity.Completion
	if policy == "" {
		policy = domain.CompleteOnAnswered
	}
	return s.seq.Progress(policy)
}

func (s *Session) broadcastLocked() domain.SessionSnapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot so a slow widget never blocks the session
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		SessionID:  s.id,
		ActivityID: s.activity.ID,
		LearnerID:  s.learnerID,
		StepIndex:  s.seq.Index(),
		StepCount:  s.seq.Len(),
		Answer:     s.seq.Turn().Answer,
		Verdict:    s.seq.Turn().Verdict,
		Reveal:     s.reveal.State(),
		Score:      s.rec.Score(),
		Streak:     s.rec.Streak(),
		BestStreak: s.rec.BestStreak(),
		Progress:   s.progressLocked(),
		Complete:   s.seq.Complete(),
		Final:      s.rec.Final(),
		UpdatedAt:  s.now(),
	}
	if step, err := s.seq.Current(); err == nil {
		view := domain.NewStepView(step)
		if snap.Reveal.Hint {
			view.Hint = step.Hint
		}
		if snap.Reveal.Explanation {
			view.Explanation = step.Explanation
		}
		if snap.Reveal.After && step.Visual.After != "" {
			view.Visual = step.Visual.After
		}
		snap.Step = view
	}
	return snap
}
