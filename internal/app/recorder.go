package app

import (
	"context"
	"time"

	"ochem-lab-service/internal/domain"
	"ochem-lab-service/internal/logger"
)

// ProgressStore persists completed-id sets per learner and scope (a learning
// path id or an ActivityScope). Implementations live in infra/{memory,redis,postgres}.
type ProgressStore interface {
	LoadProgress(ctx context.Context, learnerID, pathID string) (domain.IDSet, error)
	SaveProgress(ctx context.Context, learnerID, pathID string, completed domain.IDSet) error
}

// ActivityScope is the progress scope of an activity's completed steps. The
// prefix keeps it apart from learning path ids in the same document.
func ActivityScope(activityID string) string {
	return "activity:" + activityID
}

// CompletionFunc is invoked once when an activity is finalized.
type CompletionFunc func(ctx context.Context, final domain.FinalScore)

// RecorderConfig scopes a recorder to one learner and one activity.
type RecorderConfig struct {
	LearnerID    string
	ActivityID   string
	Scoring      domain.ScoringPolicy
	TotalSteps   int
	MaxScore     int
	WriteTimeout time.Duration
	OnComplete   CompletionFunc
}

// Recorder accumulates score, streak and the completed-step set of a session.
// Persistence is best-effort: store failures are logged and swallowed.
type Recorder struct {
	cfg   RecorderConfig
	store ProgressStore
	log   *logger.Logger

	score      int
	streak     int
	bestStreak int
	correct    int
	answered   int
	credited   domain.IDSet
	completed  domain.IDSet
	final      *domain.FinalScore
}

func NewRecorder(cfg RecorderConfig, store ProgressStore, log *logger.Logger) *Recorder {
	if cfg.Scoring == "" {
		cfg.Scoring = domain.ScorePerCorrect
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{
		cfg:       cfg,
		store:     store,
		log:       log,
		credited:  domain.NewIDSet(),
		completed: domain.NewIDSet(),
	}
}

// Restore loads the persisted completed set; a failing read starts empty.
func (r *Recorder) Restore(ctx context.Context) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()
	set, err := r.store.LoadProgress(ctx, r.cfg.LearnerID, ActivityScope(r.cfg.ActivityID))
	if err != nil {
		r.log.Warn("progress load failed, starting empty", "learner", r.cfg.LearnerID, "activity", r.cfg.ActivityID, "error", err)
		return
	}
	for id := range set {
		r.completed.Add(id)
	}
}

// RecordAnswer applies a submitted verdict and returns the points awarded.
// A step is credited at most once per session.
func (r *Recorder) RecordAnswer(ctx context.Context, step domain.Step, correct bool) int {
	r.answered++
	awarded := 0
	if correct {
		r.correct++
		r.streak++
		if r.streak > r.bestStreak {
			r.bestStreak = r.streak
		}
		if !r.credited.Has(step.ID) {
			awarded = r.pointsFor(step)
			r.score += awarded
			r.credited.Add(step.ID)
		}
	} else {
		r.streak = 0
	}
	r.completed.Add(step.ID)
	r.persist(ctx)
	return awarded
}

// Finalize aggregates the final score once; later calls return the same result.
func (r *Recorder) Finalize(ctx context.Context, progress float64, timedOut bool) domain.FinalScore {
	if r.final != nil {
		return *r.final
	}
	final := domain.FinalScore{
		ActivityID: r.cfg.ActivityID,
		Score:      r.score,
		MaxScore:   r.cfg.MaxScore,
		Correct:    r.correct,
		Answered:   r.answered,
		Total:      r.cfg.TotalSteps,
		BestStreak: r.bestStreak,
		TimedOut:   timedOut,
		Progress:   progress,
	}
	if r.cfg.MaxScore > 0 {
		final.Percentage = r.score * 100 / r.cfg.MaxScore
		final.Perfect = r.score == r.cfg.MaxScore
	}
	r.final = &final
	if r.cfg.OnComplete != nil {
		r.cfg.OnComplete(ctx, final)
	}
	return final
}

// Reset clears the session counters. The persisted completed set is kept.
func (r *Recorder) Reset() {
	r.score, r.streak, r.bestStreak = 0, 0, 0
	r.correct, r.answered = 0, 0
	r.credited = domain.NewIDSet()
	r.final = nil
}

func (r *Recorder) Score() int { return r.score }
func (r *Recorder) Streak() int { return r.streak }
func (r *Recorder) BestStreak() int { return r.bestStreak }
func (r *Recorder) Completed() domain.IDSet { return r.completed }
func (r *Recorder) Final() *domain.FinalScore { return r.final }

func (r *Recorder) pointsFor(step domain.Step) int {
	if r.cfg.Scoring == domain.ScoreByPoints && step.Points > 0 {
		return step.Points
	}
	return 1
}

func (r *Recorder) persist(ctx context.Context) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()
	if err := r.store.SaveProgress(ctx, r.cfg.LearnerID, ActivityScope(r.cfg.ActivityID), r.completed); err != nil {
		r.log.Warn("progress write failed, keeping session-only progress", "learner", r.cfg.LearnerID, "activity", r.cfg.ActivityID, "error", err)
	}
}
