package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ochem-lab-service/internal/domain"
)

type learnerProgress struct {
	bun.BaseModel `bun:"table:learner_progress"`

	LearnerID string    `bun:"learner_id,pk"`
	Document  string    `bun:"document,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// ProgressStore keeps the per-learner progress document in one jsonb row.
type ProgressStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewProgressStore(db *bun.DB) *ProgressStore {
	return &ProgressStore{db: db, now: time.Now}
}

func (s *ProgressStore) LoadProgress(ctx context.Context, learnerID, pathID string) (domain.IDSet, error) {
	doc, err := s.document(ctx, s.db, learnerID, false)
	if err != nil {
		return nil, err
	}
	return doc.Set(pathID), nil
}

func (s *ProgressStore) SaveProgress(ctx context.Context, learnerID, pathID string, completed domain.IDSet) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		doc, err := s.document(ctx, tx, learnerID, true)
		if err != nil {
			return err
		}
		doc[pathID] = completed.Sorted()
		raw, err := doc.Encode()
		if err != nil {
			return fmt.Errorf("encode progress: %w", err)
		}
		row := &learnerProgress{LearnerID: learnerID, Document: string(raw), UpdatedAt: s.now().UTC()}
		_, err = tx.NewInsert().
			Model(row).
			On("CONFLICT (learner_id) DO UPDATE").
			Set("document = EXCLUDED.document").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("write progress: %w", err)
		}
		return nil
	})
}

func (s *ProgressStore) document(ctx context.Context, db bun.IDB, learnerID string, forUpdate bool) (domain.ProgressDocument, error) {
	row := new(learnerProgress)
	q := db.NewSelect().Model(row).Where("learner_id = ?", learnerID)
	if forUpdate {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProgressDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	return domain.ParseProgressDocument([]byte(row.Document)), nil
}
