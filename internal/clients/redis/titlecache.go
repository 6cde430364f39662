package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/utils"
)

// TitleCache is a cache-aside layer in front of pdf_file title lookups done
// by the search result formatter. Misses are returned to the caller, which
// fetches them from Postgres and writes them back. All methods are safe to
// call on a degraded connection; failures fall back to cache-miss behavior.
type TitleCache interface {
	GetTitles(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, []uuid.UUID)
	SetTitles(ctx context.Context, userID uuid.UUID, titles map[uuid.UUID]string)
	Invalidate(ctx context.Context, userID, id uuid.UUID)
	Close() error
}

type titleCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewTitleCache(log *logger.Logger) (TitleCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttlSeconds := utils.GetEnvAsInt("REDIS_TITLE_TTL", 300, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &titleCache{
		log: log.With("service", "RedisTitleCache"),
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func titleKey(userID, fileID uuid.UUID) string {
	return fmt.Sprintf("pdf_title:%s:%s", userID, fileID)
}

func (c *titleCache) GetTitles(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, []uuid.UUID) {
	hits := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return hits, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = titleKey(userID, id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("Title cache read failed, treating as miss", "error", err)
		return hits, ids
	}
	var misses []uuid.UUID
	for i, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			hits[ids[i]] = s
		} else {
			misses = append(misses, ids[i])
		}
	}
	return hits, misses
}

func (c *titleCache) SetTitles(ctx context.Context, userID uuid.UUID, titles map[uuid.UUID]string) {
	if len(titles) == 0 {
		return
	}
	pipe := c.rdb.Pipeline()
	for id, title := range titles {
		pipe.Set(ctx, titleKey(userID, id), title, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("Title cache write failed", "error", err)
	}
}

func (c *titleCache) Invalidate(ctx context.Context, userID, id uuid.UUID) {
	if err := c.rdb.Del(ctx, titleKey(userID, id)).Err(); err != nil {
		c.log.Warn("Title cache invalidation failed", "error", err)
	}
}

func (c *titleCache) Close() error {
	return c.rdb.Close()
}
