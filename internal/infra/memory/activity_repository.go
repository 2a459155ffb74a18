package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ochem-lab-service/internal/domain"
)

// ActivityLoader fetches authored activities from a backing store (catalog, Postgres).
type ActivityLoader interface {
	LoadActivity(ctx context.Context, activityID string) (domain.Activity, error)
}

// ActivityRepository caches activities with TTL to avoid repeated loader hits.
type ActivityRepository struct {
	loader ActivityLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedActivity
}

type cachedActivity struct {
	activity  domain.Activity
	expiresAt time.Time
}

func NewActivityRepository(loader ActivityLoader, ttl time.Duration) *ActivityRepository {
	return &ActivityRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedActivity),
	}
}

func (r *ActivityRepository) GetActivity(ctx context.Context, activityID string) (domain.Activity, error) {
	if activity, ok := r.cached(activityID); ok {
		return activity, nil
	}

	result, err, _ := r.sf.Do(activityID, func() (interface{}, error) {
		if activity, ok := r.cached(activityID); ok {
			return activity, nil
		}

		activity, err := r.loader.LoadActivity(ctx, activityID)
		if err != nil {
			return domain.Activity{}, err
		}
		// content from any loader passes the same authoring checks
		if err := activity.Validate(); err != nil {
			return domain.Activity{}, err
		}

		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[activityID] = cachedActivity{activity: activity, expiresAt: expiresAt}
		r.mu.Unlock()
		return activity, nil
	})
	if err != nil {
		return domain.Activity{}, err
	}
	return result.(domain.Activity), nil
}

func (r *ActivityRepository) cached(activityID string) (domain.Activity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[activityID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Activity{}, false
	}
	return entry.activity, true
}

// StaticActivityLoader is a loader backed by an in-memory map (the embedded catalog, tests).
type StaticActivityLoader struct {
	activities map[string]domain.Activity
}

func NewStaticActivityLoader(activities map[string]domain.Activity) *StaticActivityLoader {
	return &StaticActivityLoader{activities: activities}
}

func (l *StaticActivityLoader) LoadActivity(_ context.Context, activityID string) (domain.Activity, error) {
	if activity, ok := l.activities[activityID]; ok {
		return activity, nil
	}
	return domain.Activity{}, domain.ErrActivityNotFound
}

func (r *ActivityRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
