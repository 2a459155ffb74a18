package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"ochem-lab-service/internal/domain"
	"ochem-lab-service/internal/timer"
)

func newTestSession(activity domain.Activity, store ProgressStore) *Session {
	rec := NewRecorder(RecorderConfig{
		LearnerID:  "l1",
		ActivityID: activity.ID,
		Scoring:    activity.Scoring,
		TotalSteps: len(activity.Steps),
		MaxScore:   MaxScore(activity),
	}, store, nil)
	return NewSessionWithClock("s1", "l1", activity, rec, func() time.Time {
		return time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	})
}

func answerAndSubmit(t *testing.T, s *Session, answer domain.WorkingAnswer) domain.SubmitResult {
	t.Helper()
	if _, err := s.Answer(answer); err != nil {
		t.Fatalf("answer: %v", err)
	}
	res, _, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res
}

func TestScenarioOrderedLabTask(t *testing.T) {
	activity := domain.Activity{
		ID:            "lab",
		RequireAnswer: true,
		Steps:         []domain.Step{orderStep("procedure", "mix", "heat", "filter")},
	}
	s := newTestSession(activity, nil)

	res := answerAndSubmit(t, s, domain.WorkingAnswer{Sequence: []string{"mix", "heat", "filter"}})
	if res.Verdict != domain.VerdictCorrect || res.TotalScore != 1 {
		t.Fatalf("expected correct +1, got %+v", res)
	}
	snap, err := s.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !snap.Complete || snap.Final == nil || snap.Final.Score != 1 || !snap.Final.Perfect {
		t.Fatalf("expected complete perfect run, got %+v", snap)
	}
}

func TestScenarioStreakResets(t *testing.T) {
	s := newTestSession(choiceQuiz(true), nil)
	ctx := context.Background()

	picks := []int{0, 0, 0} // q2 expects 1
	streaks := []int{1, 0, 1}
	for i, pick := range picks {
		res := answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(pick)})
		if res.Streak != streaks[i] {
			t.Fatalf("question %d: expected streak %d, got %d", i+1, streaks[i], res.Streak)
		}
		if _, err := s.Advance(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	snap := s.Snapshot()
	if snap.Final == nil || snap.Final.Score != 2 || snap.Final.MaxScore != 3 || snap.Final.Perfect {
		t.Fatalf("expected 2/3, got %+v", snap.Final)
	}
	if snap.Final.BestStreak != 1 || snap.Final.Percentage != 66 {
		t.Fatalf("unexpected final %+v", snap.Final)
	}
}

func TestScenarioPersistenceFailure(t *testing.T) {
	store := newMemStore()
	store.fail = true
	s := newTestSession(choiceQuiz(true), store)

	res := answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(0)})
	if res.Verdict != domain.VerdictCorrect || res.TotalScore != 1 || res.Streak != 1 {
		t.Fatalf("score must update despite store failure, got %+v", res)
	}
	snap, err := s.Advance(context.Background())
	if err != nil || snap.StepIndex != 1 {
		t.Fatalf("navigation must continue, idx=%d err=%v", snap.StepIndex, err)
	}
	if store.saves == 0 {
		t.Fatalf("expected a write attempt")
	}
}

func TestScenarioFuzzyEquation(t *testing.T) {
	activity := domain.Activity{
		ID: "equation",
		Steps: []domain.Step{{
			ID:       "blank",
			Blanks:   []string{"Salicylic Acid", "+", "___", "→", "Aspirin"},
			Expected: &domain.ExpectedAnswer{Kind: domain.KindFuzzyText, Texts: []string{"Acetic Anhydride"}},
		}},
	}

	cases := []struct {
		input string
		want  domain.Verdict
	}{
		{"acetic anh", domain.VerdictCorrect},
		// "acetic" contains "aceti", so the leading-prefix rule accepts it.
		{"Acetic", domain.VerdictCorrect},
		{"Acet", domain.VerdictIncorrect},
	}
	for _, tc := range cases {
		s := newTestSession(activity, nil)
		res := answerAndSubmit(t, s, domain.WorkingAnswer{Texts: []string{tc.input}})
		if res.Verdict != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.input, tc.want, res.Verdict)
		}
	}
}

func TestNavigationNeverChangesScore(t *testing.T) {
	s := newTestSession(choiceQuiz(false), nil)
	ctx := context.Background()
	answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(0)})

	before := s.Snapshot()
	_, _ = s.Advance(ctx)
	s.Retreat()
	_, _ = s.JumpTo(2)
	_, _ = s.JumpTo(0)
	after := s.Snapshot()

	if after.Score != before.Score || after.Streak != before.Streak {
		t.Fatalf("navigation changed score: %d/%d -> %d/%d", before.Score, before.Streak, after.Score, after.Streak)
	}
	if after.Verdict != domain.VerdictUnanswered {
		t.Fatalf("verdict must reset when the index changes")
	}
}

func TestRetreatAndResubmitDoesNotDoubleScore(t *testing.T) {
	s := newTestSession(choiceQuiz(false), nil)
	ctx := context.Background()
	answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(0)})
	_, _ = s.Advance(ctx)
	s.Retreat()

	res := answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(0)})
	if res.Awarded != 0 || res.TotalScore != 1 {
		t.Fatalf("expected no second credit, got %+v", res)
	}
}

func TestSubmitErrors(t *testing.T) {
	activity := domain.Activity{ID: "mixed", Steps: []domain.Step{infoStep("intro"), choiceStep("q1", 0)}}
	s := newTestSession(activity, nil)

	if _, _, err := s.Submit(context.Background()); !errors.Is(err, domain.ErrNotAnswerable) {
		t.Fatalf("expected ErrNotAnswerable, got %v", err)
	}
	_, _ = s.JumpTo(1)
	if _, _, err := s.Submit(context.Background()); !errors.Is(err, domain.ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
	if snap := s.Snapshot(); snap.Verdict.Answered() || snap.Streak != 0 {
		t.Fatalf("an empty submission must not record a verdict, got %+v", snap)
	}
	answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(1)})
	if _, err := s.Answer(domain.WorkingAnswer{Index: intPtr(0)}); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if _, err := s.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := s.Answer(domain.WorkingAnswer{}); !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected ErrSessionComplete, got %v", err)
	}
}

func TestSnapshotRevealsContentAfterVerdict(t *testing.T) {
	activity := choiceQuiz(false)
	activity.HideHintAfterVerdict = true
	s := newTestSession(activity, nil)

	snap := s.Snapshot()
	if snap.Step.Hint != "" || snap.Step.Explanation != "" || !snap.Step.HasHint {
		t.Fatalf("hint and explanation hidden until revealed, got %+v", snap.Step)
	}
	if snap.Step.Visual != "q1-before.svg" {
		t.Fatalf("expected before visual, got %q", snap.Step.Visual)
	}

	snap, shown := s.Hint(true)
	if !shown || snap.Step.Hint == "" {
		t.Fatalf("hint should be shown before the verdict")
	}

	answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(0)})
	snap = s.Snapshot()
	if snap.Step.Explanation != "explained q1" || snap.Step.Visual != "q1-after.svg" {
		t.Fatalf("expected explanation and after visual, got %+v", snap.Step)
	}
	if snap.Reveal.Hint {
		t.Fatalf("hint must close after the verdict")
	}
	if _, shown := s.Hint(true); shown {
		t.Fatalf("hint must stay locked after the verdict")
	}

	snap = s.TogglePanel(PanelAfter)
	if snap.Step.Visual != "q1-before.svg" {
		t.Fatalf("closing the after panel restores the before visual")
	}
}

func TestResetStartsOver(t *testing.T) {
	s := newTestSession(choiceQuiz(false), nil)
	ctx := context.Background()
	answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(0)})
	_, _ = s.Advance(ctx)

	snap := s.Reset()
	if snap.StepIndex != 0 || snap.Score != 0 || snap.Streak != 0 || snap.Progress != 0 || snap.Complete {
		t.Fatalf("expected a fresh session, got %+v", snap)
	}
}

func TestTimedActivityExpires(t *testing.T) {
	activity := choiceQuiz(false)
	activity.TimeLimit = time.Minute
	s := newTestSession(activity, nil)
	sched := timer.NewManual()
	s.Start(sched)

	updates, cancel := s.Subscribe()
	defer cancel()
	<-updates

	answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(0)})
	<-updates
	<-updates

	sched.Advance(59 * time.Second)
	if s.Snapshot().Complete {
		t.Fatalf("expired too early")
	}
	sched.Advance(time.Second)

	snap := <-updates
	if !snap.Complete || snap.Final == nil || !snap.Final.TimedOut || snap.Final.Score != 1 {
		t.Fatalf("expected timed out completion, got %+v", snap)
	}
	if _, err := s.Answer(domain.WorkingAnswer{}); !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected ErrSessionComplete after timeout, got %v", err)
	}

	s.Reset()
	if sched.Pending() != 1 {
		t.Fatalf("reset should re-arm the time limit, pending=%d", sched.Pending())
	}
	s.Close()
	if sched.Pending() != 0 {
		t.Fatalf("close should cancel the time limit, pending=%d", sched.Pending())
	}
}

func TestOutOfOrderRunFinalizesOnCompletion(t *testing.T) {
	activity := choiceQuiz(false)
	finals := 0
	rec := NewRecorder(RecorderConfig{
		LearnerID:  "l1",
		ActivityID: activity.ID,
		TotalSteps: len(activity.Steps),
		MaxScore:   MaxScore(activity),
		OnComplete: func(context.Context, domain.FinalScore) { finals++ },
	}, nil, nil)
	s := NewSession("s1", "l1", activity, rec)
	ctx := context.Background()

	if _, err := s.JumpTo(2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(0)})
	if snap := s.Snapshot(); snap.Final != nil || finals != 0 {
		t.Fatalf("last step answered first must not finalize, got %+v", snap.Final)
	}

	for i, pick := range []int{0, 1} {
		if _, err := s.JumpTo(i); err != nil {
			t.Fatalf("jump %d: %v", i, err)
		}
		answerAndSubmit(t, s, domain.WorkingAnswer{Index: intPtr(pick)})
	}
	if _, err := s.JumpTo(2); err != nil {
		t.Fatalf("jump back: %v", err)
	}
	snap, err := s.Advance(ctx)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !snap.Complete || snap.Final == nil {
		t.Fatalf("expected completion, got %+v", snap)
	}
	if snap.Final.Score != 3 || snap.Final.Correct != 3 || !snap.Final.Perfect || snap.Final.Progress != 100 {
		t.Fatalf("final score must match the run, got %+v", snap.Final)
	}
	if finals != 1 {
		t.Fatalf("expected one completion callback, got %d", finals)
	}
}

func TestStaleExpiryAfterResetIsIgnored(t *testing.T) {
	activity := choiceQuiz(false)
	activity.TimeLimit = time.Minute
	s := newTestSession(activity, nil)
	sched := timer.NewManual()
	s.Start(sched)

	stale := s.timerGen
	s.Reset()
	// a callback from the replaced timer that was already running
	s.expire(context.Background(), stale)

	if snap := s.Snapshot(); snap.Complete || snap.Final != nil {
		t.Fatalf("stale expiry finished a reset session: %+v", snap)
	}
	if sched.Pending() != 1 {
		t.Fatalf("expected the re-armed timer pending, got %d", sched.Pending())
	}

	sched.Advance(time.Minute)
	snap := s.Snapshot()
	if !snap.Complete || snap.Final == nil || !snap.Final.TimedOut {
		t.Fatalf("expected the current timer to expire the session, got %+v", snap)
	}

	s.Reset()
	s.Close()
	if sched.Pending() != 0 {
		t.Fatalf("close should cancel the re-armed timer, pending=%d", sched.Pending())
	}
}

func TestMaxScore(t *testing.T) {
	activity := domain.Activity{
		Scoring: domain.ScoreByPoints,
		Steps:   []domain.Step{infoStep("intro"), choiceStep("q1", 0), choiceStep("q2", 0)},
	}
	activity.Steps[1].Points = 3
	if got := MaxScore(activity); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}
