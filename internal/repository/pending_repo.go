package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"

	redis "github.com/redis/go-redis/v9"
)

// PendingTriggerRepository parks a scan trigger while the engine waits for
// the user's device location fix. One pending trigger per user; a newer
// trigger replaces the old one; entries expire after the configured TTL.
type PendingTriggerRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPendingTriggerRepository(rdb *redis.Client, ttl time.Duration) *PendingTriggerRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PendingTriggerRepository{rdb: rdb, ttl: ttl}
}

func pendingKey(userID string) string {
	return "pending_scan:" + userID
}

func (r *PendingTriggerRepository) Put(ctx context.Context, trigger *domain.ScanTrigger) error {
	data, err := json.Marshal(trigger)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, pendingKey(trigger.UserID), data, r.ttl).Err()
}

// Take returns and removes the user's pending trigger. The second return is
// false when none is pending (or it expired).
func (r *PendingTriggerRepository) Take(ctx context.Context, userID string) (*domain.ScanTrigger, bool, error) {
	data, err := r.rdb.GetDel(ctx, pendingKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var trigger domain.ScanTrigger
	if err := json.Unmarshal(data, &trigger); err != nil {
		return nil, false, err
	}
	return &trigger, true, nil
}
