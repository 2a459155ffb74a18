package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ochem-lab-service/internal/domain"
)

// ProgressStore keeps one JSON progress document per learner:
//
//	SET progress:{learnerID} {"<pathID>": ["<moduleID>", ...], ...}
//
// Writes read-modify-write the whole document; the last write wins.
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) LoadProgress(ctx context.Context, learnerID, pathID string) (domain.IDSet, error) {
	doc, err := s.document(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return doc.Set(pathID), nil
}

func (s *ProgressStore) SaveProgress(ctx context.Context, learnerID, pathID string, completed domain.IDSet) error {
	doc, err := s.document(ctx, learnerID)
	if err != nil {
		return err
	}
	doc[pathID] = completed.Sorted()
	raw, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := s.client.Set(ctx, s.key(learnerID), raw, 0).Err(); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

// document reads a learner's progress; a missing or malformed value is an empty document.
func (s *ProgressStore) document(ctx context.Context, learnerID string) (domain.ProgressDocument, error) {
	raw, err := s.client.Get(ctx, s.key(learnerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ProgressDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	return domain.ParseProgressDocument(raw), nil
}

func (s *ProgressStore) key(learnerID string) string {
	return "progress:" + learnerID
}
