package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rebuildLockScript atomically claims the right to rebuild a projection's
// cache entry: it sets a short-lived lock key only if absent, the way
// limiter_redis.go's token-bucket script claims capacity atomically.
// KEYS[1] = lock key
// ARGV[1] = lock owner token
// ARGV[2] = lock TTL seconds
var rebuildLockScript = redis.NewScript(`
local key = KEYS[1]
local owner = ARGV[1]
local ttl = tonumber(ARGV[2])

local existing = redis.call("GET", key)
if existing then
	return 0
end

redis.call("SET", key, owner, "EX", ttl)
return 1
`)

// releaseLockScript releases the lock only if it is still held by owner,
// so a rebuild that overran its TTL cannot release a lock another caller
// has since acquired.
var releaseLockScript = redis.NewScript(`
local key = KEYS[1]
local owner = ARGV[1]

if redis.call("GET", key) == owner then
	return redis.call("DEL", key)
end
return 0
`)

// Cache is a Redis cache-aside layer in front of an Index projection. The
// cache is advisory only: any miss rebuilds from the event log via
// rebuild, never from a source of truth Redis itself owns.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps client with a cache-aside layer whose entries expire
// after ttl.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func indexCacheKey(name string) string  { return fmt.Sprintf("ledgerly:index:%s", name) }
func rebuildLockKey(name string) string { return fmt.Sprintf("ledgerly:index:%s:rebuild-lock", name) }

// GetOrRebuild returns the cached serialized index for name, or calls
// rebuild and populates the cache on a miss. Concurrent misses for the
// same name contend for an atomic rebuild lock: only the lock holder
// populates the cache; the rest call rebuild directly, without waiting and
// without writing the cache.
func (c *Cache) GetOrRebuild(ctx context.Context, name string, owner string, rebuild func(ctx context.Context) (Index, error)) (Index, error) {
	if idx, ok, err := c.get(ctx, name); err != nil {
		return Index{}, err
	} else if ok {
		return idx, nil
	}

	acquired, err := c.acquireRebuildLock(ctx, name, owner)
	if err != nil {
		return Index{}, err
	}
	if !acquired {
		// Another caller is rebuilding; fall back to a direct rebuild
		// rather than block, since the cache is advisory only.
		return rebuild(ctx)
	}
	defer c.releaseRebuildLock(ctx, name, owner)

	idx, err := rebuild(ctx)
	if err != nil {
		return Index{}, err
	}
	if err := c.set(ctx, name, idx); err != nil {
		return Index{}, err
	}
	return idx, nil
}

func (c *Cache) get(ctx context.Context, name string) (Index, bool, error) {
	raw, err := c.client.Get(ctx, indexCacheKey(name)).Bytes()
	if err == redis.Nil {
		return Index{}, false, nil
	}
	if err != nil {
		return Index{}, false, fmt.Errorf("projection: cache get: %w", err)
	}

	var snapshot indexSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return Index{}, false, fmt.Errorf("projection: cache decode: %w", err)
	}
	return snapshot.toIndex(), true, nil
}

func (c *Cache) set(ctx context.Context, name string, idx Index) error {
	raw, err := json.Marshal(fromIndex(idx))
	if err != nil {
		return fmt.Errorf("projection: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, indexCacheKey(name), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("projection: cache set: %w", err)
	}
	return nil
}

func (c *Cache) acquireRebuildLock(ctx context.Context, name, owner string) (bool, error) {
	res, err := rebuildLockScript.Run(ctx, c.client, []string{rebuildLockKey(name)}, owner, 30).Result()
	if err != nil {
		return false, fmt.Errorf("projection: acquire rebuild lock: %w", err)
	}
	claimed, _ := res.(int64)
	return claimed == 1, nil
}

func (c *Cache) releaseRebuildLock(ctx context.Context, name, owner string) {
	releaseLockScript.Run(ctx, c.client, []string{rebuildLockKey(name)}, owner)
}

// indexSnapshot is Index's JSON-serializable shadow: Index's maps are
// unexported so projections stay immutable outside this package.
type indexSnapshot struct {
	ByDate         map[string][]string   `json:"by_date"`
	ByMerchant     map[string][]string   `json:"by_merchant"`
	ByAmountBucket map[int][]amountEntry `json:"by_amount_bucket"`
}

func fromIndex(idx Index) indexSnapshot {
	return indexSnapshot{ByDate: idx.byDate, ByMerchant: idx.byMerchant, ByAmountBucket: idx.byAmountBucket}
}

func (s indexSnapshot) toIndex() Index {
	return Index{byDate: s.ByDate, byMerchant: s.ByMerchant, byAmountBucket: s.ByAmountBucket}
}
