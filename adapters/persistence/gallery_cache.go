package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/cloudvid/internal/domain/video"
)

const galleryVersionKey = "videos:gallery:version"

// RedisGalleryCache caches unfiltered gallery pages. Pages are keyed by a
// version counter, so Invalidate is a single INCR and stale pages expire on
// their own.
type RedisGalleryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGalleryCache(rdb *redis.Client, ttl time.Duration) *RedisGalleryCache {
	return &RedisGalleryCache{rdb: rdb, ttl: ttl}
}

func pageKey(version int64, limit, offset int) string {
	return fmt.Sprintf("videos:gallery:v%d:%d:%d", version, limit, offset)
}

func (c *RedisGalleryCache) Version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, galleryVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisGalleryCache) GetPage(ctx context.Context, version int64, limit, offset int) ([]*video.Video, bool, error) {
	data, err := c.rdb.Get(ctx, pageKey(version, limit, offset)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read gallery page: %w", err)
	}

	var videos []*video.Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, false, fmt.Errorf("failed to decode gallery page: %w", err)
	}
	return videos, true, nil
}

// SetPage stores a page under the version the caller read before querying.
// If an Invalidate happened in between, the page lands under a retired key
// and is never read.
func (c *RedisGalleryCache) SetPage(ctx context.Context, version int64, limit, offset int, videos []*video.Video) error {
	data, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("failed to encode gallery page: %w", err)
	}
	return c.rdb.Set(ctx, pageKey(version, limit, offset), data, c.ttl).Err()
}

func (c *RedisGalleryCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, galleryVersionKey).Err()
}
