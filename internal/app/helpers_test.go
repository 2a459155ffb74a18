package app

import (
	"context"
	"errors"
	"sync"

	"ochem-lab-service/internal/domain"
)

func intPtr(i int) *int { return &i }

func orderStep(id string, order ...string) domain.Step {
	items := make([]domain.Item, 0, len(order))
	for _, o := range order {
		items = append(items, domain.Item{ID: o, Label: o})
	}
	return domain.Step{
		ID:       id,
		Title:    id,
		Items:    items,
		Expected: &domain.ExpectedAnswer{Kind: domain.KindOrderedSequence, Order: order},
		Hint:     "start with " + order[0],
	}
}

func choiceStep(id string, correct int) domain.Step {
	return domain.Step{
		ID:          id,
		Title:       id,
		Options:     []string{"nucleophile", "electrophile"},
		Expected:    &domain.ExpectedAnswer{Kind: domain.KindSingleChoice, Index: correct},
		Hint:        "look for lone pairs",
		Explanation: "explained " + id,
		Visual:      domain.Visual{Before: id + "-before.svg", After: id + "-after.svg"},
	}
}

func infoStep(id string) domain.Step {
	return domain.Step{ID: id, Title: id, Body: "read me"}
}

func choiceQuiz(requireAnswer bool) domain.Activity {
	return domain.Activity{
		ID:            "nucleophile-quiz",
		RequireAnswer: requireAnswer,
		Steps:         []domain.Step{choiceStep("q1", 0), choiceStep("q2", 1), choiceStep("q3", 0)},
	}
}

// memStore is a ProgressStore that can be switched to failing.
type memStore struct {
	mu    sync.Mutex
	fail  bool
	sets  map[string]domain.IDSet
	saves int
}

var errStoreDown = errors.New("store unavailable")

func newMemStore() *memStore {
	return &memStore{sets: make(map[string]domain.IDSet)}
}

func (s *memStore) LoadProgress(_ context.Context, learnerID, pathID string) (domain.IDSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errStoreDown
	}
	return domain.NewIDSet(s.sets[learnerID+"/"+pathID].Sorted()...), nil
}

func (s *memStore) SaveProgress(_ context.Context, learnerID, pathID string, completed domain.IDSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.fail {
		return errStoreDown
	}
	s.sets[learnerID+"/"+pathID] = domain.NewIDSet(completed.Sorted()...)
	return nil
}

func (s *memStore) get(learnerID, pathID string) domain.IDSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[learnerID+"/"+pathID]
}
