package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"ordprov-service/internal/app"
	"ordprov-service/internal/domain"
)

// LeaderboardCache is a Redis-backed read-through cache in front of a
// score repository. Each mode's top-N is one JSON value:
//
//	SET scores:lb:{mode} <records> EX ttl
//
// Writes pass through to the inner repository and invalidate the mode's
// entry best-effort; a leaderboard snapshot that briefly misses a
// just-submitted record is acceptable.
type LeaderboardCache struct {
	client *redis.Client
	inner  app.ScoreRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, inner app.ScoreRepository, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Insert(ctx context.Context, record *domain.ScoreRecord) error {
	if err := c.inner.Insert(ctx, record); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(record.Mode)).Err()
	return nil
}

func (c *LeaderboardCache) TopByMode(ctx context.Context, mode domain.Mode, limit int) ([]domain.ScoreRecord, error) {
	if records, ok := c.lookup(ctx, mode); ok {
		return clamp(records, limit), nil
	}

	result, err, _ := c.sf.Do(string(mode), func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if records, ok := c.lookup(ctx, mode); ok {
			return records, nil
		}

		records, err := c.inner.TopByMode(ctx, mode, limit)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(records); err == nil {
			_ = c.client.Set(ctx, c.key(mode), data, c.ttlWithJitter()).Err()
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return clamp(result.([]domain.ScoreRecord), limit), nil
}

func (c *LeaderboardCache) lookup(ctx context.Context, mode domain.Mode) ([]domain.ScoreRecord, bool) {
	data, err := c.client.Get(ctx, c.key(mode)).Bytes()
	if err != nil {
		return nil, false
	}
	var records []domain.ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return records, true
}

func (c *LeaderboardCache) key(mode domain.Mode) string {
	return "scores:lb:" + string(mode)
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func clamp(records []domain.ScoreRecord, limit int) []domain.ScoreRecord {
	if limit > 0 && limit < len(records) {
		return records[:limit]
	}
	return records
}
