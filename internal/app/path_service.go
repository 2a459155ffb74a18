package app

import (
	"context"
	"time"

	"ochem-lab-service/internal/domain"
	"ochem-lab-service/internal/logger"
)

// PathService tracks learning-path module completion per learner.
// Reads and writes degrade silently: progress is a convenience feature.
type PathService struct {
	order   []string
	paths   map[string]domain.LearningPath
	store   ProgressStore
	log     *logger.Logger
	timeout time.Duration
}

func NewPathService(paths []domain.LearningPath, store ProgressStore, log *logger.Logger) *PathService {
	if log == nil {
		log = logger.Nop()
	}
	s := &PathService{
		paths:   make(map[string]domain.LearningPath, len(paths)),
		store:   store,
		log:     log,
		timeout: 2 * time.Second,
	}
	for _, p := range paths {
		s.order = append(s.order, p.ID)
		s.paths[p.ID] = p
	}
	return s
}

// Paths lists the catalog in authoring order.
func (s *PathService) Paths() []domain.LearningPath {
	out := make([]domain.LearningPath, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.paths[id])
	}
	return out
}

func (s *PathService) Progress(ctx context.Context, learnerID, pathID string) (domain.PathProgress, error) {
	path, ok := s.paths[pathID]
	if !ok {
		return domain.PathProgress{}, domain.ErrPathNotFound
	}
	return domain.NewPathProgress(path, s.load(ctx, learnerID, pathID)), nil
}

// Toggle flips a module between done and not done.
func (s *PathService) Toggle(ctx context.Context, learnerID, pathID, moduleID string) (domain.PathProgress, error) {
	return s.update(ctx, learnerID, pathID, moduleID, func(set domain.IDSet) {
		if set.Has(moduleID) {
			set.Remove(moduleID)
		} else {
			set.Add(moduleID)
		}
	})
}

// MarkComplete sets a module done; it is the completion callback of activities.
func (s *PathService) MarkComplete(ctx context.Context, learnerID, pathID, moduleID string) (domain.PathProgress, error) {
	return s.update(ctx, learnerID, pathID, moduleID, func(set domain.IDSet) {
		set.Add(moduleID)
	})
}

func (s *PathService) update(ctx context.Context, learnerID, pathID, moduleID string, mutate func(domain.IDSet)) (domain.PathProgress, error) {
	path, ok := s.paths[pathID]
	if !ok {
		return domain.PathProgress{}, domain.ErrPathNotFound
	}
	if !path.HasModule(moduleID) {
		return domain.PathProgress{}, domain.ErrModuleNotFound
	}
	set := s.load(ctx, learnerID, pathID)
	mutate(set)
	s.save(ctx, learnerID, pathID, set)
	return domain.NewPathProgress(path, set), nil
}

func (s *PathService) load(ctx context.Context, learnerID, pathID string) domain.IDSet {
	if s.store == nil {
		return domain.NewIDSet()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	set, err := s.store.LoadProgress(ctx, learnerID, pathID)
	if err != nil {
		s.log.Warn("path progress load failed", "learner", learnerID, "path", pathID, "error", err)
		return domain.NewIDSet()
	}
	if set == nil {
		return domain.NewIDSet()
	}
	return set
}

func (s *PathService) save(ctx context.Context, learnerID, pathID string, set domain.IDSet) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.SaveProgress(ctx, learnerID, pathID, set); err != nil {
		s.log.Warn("path progress write failed", "learner", learnerID, "path", pathID, "error", err)
	}
}
