package memory

import (
	"context"
	"sync"

	"ochem-lab-service/internal/domain"
)

// ProgressStore keeps one progress document per learner in process memory.
type ProgressStore struct {
	mu   sync.RWMutex
	docs map[string]domain.ProgressDocument
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{docs: make(map[string]domain.ProgressDocument)}
}

func (s *ProgressStore) LoadProgress(_ context.Context, learnerID, pathID string) (domain.IDSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[learnerID].Set(pathID), nil
}

// SaveProgress replaces the path's entry; the last write wins.
func (s *ProgressStore) SaveProgress(_ context.Context, learnerID, pathID string, completed domain.IDSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[learnerID]
	if !ok {
		doc = domain.ProgressDocument{}
		s.docs[learnerID] = doc
	}
	doc[pathID] = completed.Sorted()
	return nil
}

// Document returns a copy of a learner's whole progress document.
func (s *ProgressStore) Document(learnerID string) domain.ProgressDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := domain.ProgressDocument{}
	for path, ids := range s.docs[learnerID] {
		out[path] = append([]string(nil), ids...)
	}
	return out
}
