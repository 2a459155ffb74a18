package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ochem-lab-service/internal/domain"
)

type activityRow struct {
	bun.BaseModel `bun:"table:activities"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	Chapter   int       `bun:"chapter,notnull"`
	Data      string    `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SeedActivities upserts authored activities so the loader can serve them.
func SeedActivities(ctx context.Context, db *bun.DB, activities []domain.Activity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([]activityRow, 0, len(activities))
	for _, a := range activities {
		if err := a.Validate(); err != nil {
			return 0, err
		}
		data, err := json.Marshal(a)
		if err != nil {
			return 0, fmt.Errorf("encode activity %q: %w", a.ID, err)
		}
		rows = append(rows, activityRow{ID: a.ID, Title: a.Title, Chapter: a.Chapter, Data: string(data), UpdatedAt: now})
	}
	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("chapter = EXCLUDED.chapter").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed activities: %w", err)
	}
	return len(rows), nil
}
