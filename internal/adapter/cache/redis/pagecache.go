// Package redis caches scraped pages in Redis.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

const keyPrefix = "career-guide:page:"

// PageCache stores domain.PageInfo values as JSON with a TTL.
type PageCache struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

// NewClient parses a redis:// URL into a client.
func NewClient(url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("op=redis.NewClient: %w", err)
	}
	return goredis.NewClient(opt), nil
}

// NewPageCache wraps rdb. A non-positive ttl keeps entries forever.
func NewPageCache(rdb goredis.UniversalClient, ttl time.Duration) *PageCache {
	if ttl < 0 {
		ttl = 0
	}
	return &PageCache{rdb: rdb, ttl: ttl}
}

func pageKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached page for url and whether it was found.
func (c *PageCache) Get(ctx context.Context, url string) (domain.PageInfo, bool, error) {
	b, err := c.rdb.Get(ctx, pageKey(url)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.PageInfo{}, false, nil
	}
	if err != nil {
		return domain.PageInfo{}, false, fmt.Errorf("op=redis.PageCache.Get: %w", err)
	}
	var page domain.PageInfo
	if err := json.Unmarshal(b, &page); err != nil {
		return domain.PageInfo{}, false, fmt.Errorf("op=redis.PageCache.Get: decode: %w", err)
	}
	return page, true, nil
}

// Set stores page under url.
func (c *PageCache) Set(ctx context.Context, url string, page domain.PageInfo) error {
	b, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("op=redis.PageCache.Set: %w", err)
	}
	if err := c.rdb.Set(ctx, pageKey(url), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("op=redis.PageCache.Set: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *PageCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
