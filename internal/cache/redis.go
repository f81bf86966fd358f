package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"trackmate/internal/core/model"

	"github.com/redis/go-redis/v9"
)

const latestFixTTL = 24 * time.Hour

// Cache keeps the latest fix per user in Redis so the periodic geofence
// evaluation does not hit the primary store on every run. Strictly
// best-effort: when Redis is unavailable the cache reports misses and the
// caller falls back to the repository.
type Cache struct {
	client  *redis.Client
	enabled bool
}

// New connects to Redis if redisURL is set. An empty URL or a failed
// connection yields a disabled cache, never an error.
func New(redisURL string) *Cache {
	if redisURL == "" {
		log.Println("Redis URL not provided, fix caching disabled")
		return &Cache{}
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Failed to parse Redis URL: %v, fix caching disabled", err)
		return &Cache{}
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Failed to connect to Redis: %v, fix caching disabled", err)
		return &Cache{}
	}

	log.Println("Redis fix cache initialized")
	return &Cache{client: client, enabled: true}
}

func (c *Cache) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// SetLatestFix stores the fix as the user's most recent one.
func (c *Cache) SetLatestFix(ctx context.Context, fix *model.Fix) {
	if !c.enabled || fix == nil {
		return
	}

	data, err := json.Marshal(fix)
	if err != nil {
		log.Printf("Failed to encode fix for cache: %v", err)
		return
	}
	if err := c.client.Set(ctx, latestFixKey(fix.UserID), data, latestFixTTL).Err(); err != nil {
		log.Printf("Failed to cache latest fix: %v", err)
	}
}

// LatestFix returns the cached latest fix, or nil on a miss.
func (c *Cache) LatestFix(ctx context.Context, userID string) *model.Fix {
	if !c.enabled {
		return nil
	}

	data, err := c.client.Get(ctx, latestFixKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Failed to read cached fix: %v", err)
		}
		return nil
	}

	var fix model.Fix
	if err := json.Unmarshal(data, &fix); err != nil {
		log.Printf("Failed to decode cached fix: %v", err)
		return nil
	}
	return &fix
}

// InvalidateLatestFix drops the cached entry, used after bulk deletes.
func (c *Cache) InvalidateLatestFix(ctx context.Context, userID string) {
	if !c.enabled {
		return
	}
	if err := c.client.Del(ctx, latestFixKey(userID)).Err(); err != nil {
		log.Printf("Failed to invalidate cached fix: %v", err)
	}
}

func latestFixKey(userID string) string {
	return "fix:latest:" + userID
}
