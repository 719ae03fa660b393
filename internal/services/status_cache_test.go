package services

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/pkg/redis"
)

func setupTestCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *StatusCache) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	adapter, err := redis.NewRedisAdapter("status-cache-test-"+t.Name(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, NewStatusCache(adapter, ttl)
}

func TestStatusCache_StoreAndLookup(t *testing.T) {
	_, cache := setupTestCache(t, time.Minute)

	duration := 10
	rec := &model.CallRecord{
		ID:          "call-1",
		PhoneNumber: "+15551234567",
		Status:      model.CallStatusCompleted,
		Duration:    &duration,
	}

	cache.Store(rec)

	got, ok := cache.Lookup("call-1")
	require.True(t, ok)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, model.CallStatusCompleted, got.Status)
	require.NotNil(t, got.Duration)
	assert.Equal(t, 10, *got.Duration)
}

func TestStatusCache_MissOnUnknownKey(t *testing.T) {
	_, cache := setupTestCache(t, time.Minute)

	_, ok := cache.Lookup("call-unknown")
	assert.False(t, ok)
}

func TestStatusCache_EntryExpires(t *testing.T) {
	mr, cache := setupTestCache(t, time.Second)

	cache.Store(&model.CallRecord{ID: "call-1", Status: model.CallStatusRinging})

	_, ok := cache.Lookup("call-1")
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok = cache.Lookup("call-1")
	assert.False(t, ok)
}

func TestStatusCache_NilCacheIsNoop(t *testing.T) {
	var cache *StatusCache

	cache.Store(&model.CallRecord{ID: "call-1"})

	_, ok := cache.Lookup("call-1")
	assert.False(t, ok)
}
