package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"ochem-lab-service/internal/domain"
	"ochem-lab-service/internal/logger"
)

// ActivityLoader fetches authored activities from a backing store (catalog, Postgres).
type ActivityLoader interface {
	LoadActivity(ctx context.Context, activityID string) (domain.Activity, error)
}

// ActivityRepository caches validated activities in Redis and falls back to a loader on miss.
// Activities are stored as:  SET activity:{activityID} {json}
// Known ids are indexed as:  SADD activities {activityID}
type ActivityRepository struct {
	client *redis.Client
	loader ActivityLoader
	ttl    time.Duration
	log    *logger.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewActivityRepository(client *redis.Client, loader ActivityLoader, ttl time.Duration, log *logger.Logger) *ActivityRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &ActivityRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ActivityRepository) GetActivity(ctx context.Context, activityID string) (domain.Activity, error) {
	if activity, ok := r.fromCache(ctx, activityID); ok {
		return activity, nil
	}

	result, err, _ := r.sf.Do(activityID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if activity, ok := r.fromCache(ctx, activityID); ok {
			return activity, nil
		}

		activity, err := r.loader.LoadActivity(ctx, activityID)
		if err != nil {
			return domain.Activity{}, err
		}
		if err := activity.Validate(); err != nil {
			return domain.Activity{}, err
		}

		raw, err := json.Marshal(activity)
		if err != nil {
			return domain.Activity{}, err
		}
		pipe := r.client.Pipeline()
		pipe.Set(ctx, r.key(activityID), raw, r.ttlWithJitter())
		pipe.SAdd(ctx, indexKey, activityID)
		if _, err := pipe.Exec(ctx); err != nil {
			// a cold cache is only slower
			r.log.Warn("activity cache write failed", "activity", activityID, "error", err)
		}
		return activity, nil
	})
	if err != nil {
		return domain.Activity{}, err
	}
	return result.(domain.Activity), nil
}

// Invalidate drops a cached activity so the next read reloads it.
func (r *ActivityRepository) Invalidate(ctx context.Context, activityID string) error {
	return r.client.Del(ctx, r.key(activityID)).Err()
}

// CachedIDs lists every activity id that has been cached at least once.
func (r *ActivityRepository) CachedIDs(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, indexKey).Result()
}

const indexKey = "activities"

func (r *ActivityRepository) key(activityID string) string {
	return "activity:" + activityID
}

func (r *ActivityRepository) fromCache(ctx context.Context, activityID string) (domain.Activity, bool) {
	raw, err := r.client.Get(ctx, r.key(activityID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("activity cache read failed", "activity", activityID, "error", err)
		}
		return domain.Activity{}, false
	}
	var activity domain.Activity
	if err := json.Unmarshal(raw, &activity); err != nil {
		return domain.Activity{}, false
	}
	return activity, true
}

func (r *ActivityRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
