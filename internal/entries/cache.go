package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const summaryKeyPrefix = "entries:rejected:"

// SummaryCache is a read-through TTL cache for rejected-entry summaries. Keys
// are namespaced per user so a user's entries can be invalidated by prefix
// when a reviewer rejects a new submission.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSummaryCache instantiates the cache helper.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(userID, leagueID int64) string {
	return fmt.Sprintf("%s%d:%d", summaryKeyPrefix, userID, leagueID)
}

func userPrefix(userID int64) string {
	return fmt.Sprintf("%s%d:", summaryKeyPrefix, userID)
}

// Fetch loads a cached summary or populates it using the loader. Concurrent
// fetches for the same key share a single loader call.
func (c *SummaryCache) Fetch(ctx context.Context, leagueID, userID int64, loader func(context.Context) (RejectedSummary, error)) (RejectedSummary, error) {
	if loader == nil {
		return RejectedSummary{}, errors.New("entries: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := summaryKey(userID, leagueID)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var summary RejectedSummary
		if err := json.Unmarshal(payload, &summary); err == nil {
			return summary, nil
		}
		// Corrupt payload: drop it and fall through to the loader.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		return RejectedSummary{}, err
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		summary, err := loader(ctx)
		if err != nil {
			return RejectedSummary{}, err
		}
		raw, err := json.Marshal(summary)
		if err != nil {
			return RejectedSummary{}, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return RejectedSummary{}, err
		}
		return summary, nil
	})
	if err != nil {
		return RejectedSummary{}, err
	}
	return value.(RejectedSummary), nil
}

// InvalidateUser drops every cached summary for the user across leagues.
func (c *SummaryCache) InvalidateUser(ctx context.Context, userID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.deleteByPrefix(ctx, userPrefix(userID))
}

// InvalidateAll drops every cached summary wholesale.
func (c *SummaryCache) InvalidateAll(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.deleteByPrefix(ctx, summaryKeyPrefix)
}

func (c *SummaryCache) deleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
