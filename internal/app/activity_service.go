package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ochem-lab-service/internal/domain"
	"ochem-lab-service/internal/logger"
	"ochem-lab-service/internal/timer"
)

// SessionRepository abstracts how live sessions are held (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// ActivityRepository loads authored activities (from cache/backing store).
type ActivityRepository interface {
	GetActivity(ctx context.Context, activityID string) (domain.Activity, error)
}

// ActivityService contains the guided-activity use cases: one session per mounted widget.
type ActivityService struct {
	sessions     SessionRepository
	activities   ActivityRepository
	progress     ProgressStore
	paths        *PathService
	sched        timer.Scheduler
	log          *logger.Logger
	now          func() time.Time
	writeTimeout time.Duration
}

type Option func(*ActivityService)

func WithLogger(l *logger.Logger) Option { return func(s *ActivityService) { s.log = l } }

func WithScheduler(sched timer.Scheduler) Option { return func(s *ActivityService) { s.sched = sched } }

// WithPaths marks learning-path modules complete when their activity is finalized.
func WithPaths(p *PathService) Option { return func(s *ActivityService) { s.paths = p } }

func WithClock(now func() time.Time) Option { return func(s *ActivityService) { s.now = now } }

func WithWriteTimeout(d time.Duration) Option { return func(s *ActivityService) { s.writeTimeout = d } }

func NewActivityService(sessions SessionRepository, activities ActivityRepository, progress ProgressStore, opts ...Option) *ActivityService {
	s := &ActivityService{
		sessions:   sessions,
		activities: activities,
		progress:   progress,
		sched:      timer.Real(),
		log:        logger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start mounts an activity for a learner and returns the initial snapshot.
func (s *ActivityService) Start(ctx context.Context, activityID, learnerID string) (domain.SessionSnapshot, error) {
	activity, err := s.activities.GetActivity(ctx, activityID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	rec := NewRecorder(RecorderConfig{
		LearnerID:    learnerID,
		ActivityID:   activity.ID,
		Scoring:      activity.Scoring,
		TotalSteps:   len(activity.Steps),
		MaxScore:     MaxScore(activity),
		WriteTimeout: s.writeTimeout,
		OnComplete:   s.completionFor(learnerID, activity),
	}, s.progress, s.log)
	rec.Restore(ctx)

	session := newSessionWithClock(uuid.NewString(), learnerID, activity, rec, s.now)
	session.Start(s.sched)
	s.sessions.Save(session)

	s.log.Info("activity session started", "session", session.ID(), "activity", activity.ID, "learner", learnerID)
	return session.Snapshot(), nil
}

func (s *ActivityService) Answer(_ context.Context, sessionID string, answer domain.WorkingAnswer) (domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Answer(answer)
}

func (s *ActivityService) Submit(ctx context.Context, sessionID string) (domain.SubmitResult, domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SubmitResult{}, domain.SessionSnapshot{}, err
	}
	return session.Submit(ctx)
}

func (s *ActivityService) Advance(ctx context.Context, sessionID string) (domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Advance(ctx)
}

func (s *ActivityService) Retreat(_ context.Context, sessionID string) (domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Retreat(), nil
}

func (s *ActivityService) JumpTo(_ context.Context, sessionID string, index int) (domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.JumpTo(index)
}

func (s *ActivityService) Reset(_ context.Context, sessionID string) (domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Reset(), nil
}

// Hint shows or hides the current step's hint; shown is false when hints are locked.
func (s *ActivityService) Hint(_ context.Context, sessionID string, show bool) (domain.SessionSnapshot, bool, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, false, err
	}
	snap, shown := session.Hint(show)
	return snap, shown, nil
}

func (s *ActivityService) TogglePanel(_ context.Context, sessionID string, panel Panel) (domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.TogglePanel(panel), nil
}

// Subscribe returns a channel that receives snapshots for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ActivityService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionSnapshot, func(), error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// End unmounts the widget: the session state is destroyed.
func (s *ActivityService) End(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
	s.log.Debug("activity session ended", "session", sessionID)
}

func (s *ActivityService) session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *ActivityService) completionFor(learnerID string, activity domain.Activity) CompletionFunc {
	return func(ctx context.Context, final domain.FinalScore) {
		s.log.Info("activity finalized",
			"activity", final.ActivityID,
			"learner", learnerID,
			"score", final.Score,
			"max", final.MaxScore,
			"timedOut", final.TimedOut,
		)
		if s.paths == nil || activity.PathID == "" || activity.ModuleID == "" {
			return
		}
		if _, err := s.paths.MarkComplete(ctx, learnerID, activity.PathID, activity.ModuleID); err != nil {
			s.log.Warn("mark module complete failed", "path", activity.PathID, "module", activity.ModuleID, "error", err)
		}
	}
}
