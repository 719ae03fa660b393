package services

import (
	"encoding/json"
	"time"

	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/pkg/redis"
)

const statusCacheKeyPrefix = "call_status:"

// StatusCache keeps short-lived call-state snapshots in redis so repeated
// history reads don't hammer the call API. A nil cache disables caching; cache
// errors are treated as misses.
type StatusCache struct {
	adapter redis.RedisAdapter
	ttl     time.Duration
}

func NewStatusCache(adapter redis.RedisAdapter, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &StatusCache{
		adapter: adapter,
		ttl:     ttl,
	}
}

func (c *StatusCache) Lookup(callID string) (*model.CallRecord, bool) {
	if c == nil || c.adapter == nil {
		return nil, false
	}

	b, err := c.adapter.Get(statusCacheKeyPrefix + callID)
	if err != nil {
		return nil, false
	}

	var rec model.CallRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

func (c *StatusCache) Store(rec *model.CallRecord) {
	if c == nil || c.adapter == nil || rec == nil {
		return
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = c.adapter.Set(statusCacheKeyPrefix+rec.ID, b, c.ttl)
}
