// Package cache keeps catalog search results in Redis.
//
// Only searches are cached: plain page listings are cheap index scans. Each
// entity has a generation counter that is part of every key; bumping it after
// an import makes all older entries unreachable until they expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// DefaultTTL applies when New is given a non-positive TTL.
const DefaultTTL = time.Minute

// redisClient is the subset of *redis.Client used by Catalog.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Catalog is a core.CatalogStore that serves repeated searches from Redis
// and falls through to next on a miss or any Redis error.
type Catalog struct {
	client redisClient
	next   core.CatalogStore
	ttl    time.Duration
}

var (
	_ core.CatalogStore       = (*Catalog)(nil)
	_ core.CatalogInvalidator = (*Catalog)(nil)
)

// New wraps next with a Redis cache.
func New(client redisClient, next core.CatalogStore, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Catalog{client: client, next: next, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// ListClients implements core.CatalogStore.
func (c *Catalog) ListClients(ctx context.Context, q core.ListQuery) (core.Page[core.ClientRecord], error) {
	return cached(ctx, c, core.EntityClients, q, c.next.ListClients)
}

// ListProducts implements core.CatalogStore.
func (c *Catalog) ListProducts(ctx context.Context, q core.ListQuery) (core.Page[core.ProductRecord], error) {
	return cached(ctx, c, core.EntityProducts, q, c.next.ListProducts)
}

// InvalidateCatalog drops every cached search of entity.
func (c *Catalog) InvalidateCatalog(ctx context.Context, entity core.Entity) error {
	return c.client.Incr(ctx, generationKey(entity)).Err()
}

func cached[T any](ctx context.Context, c *Catalog, entity core.Entity, q core.ListQuery,
	load func(context.Context, core.ListQuery) (core.Page[T], error)) (core.Page[T], error) {
	if strings.TrimSpace(q.Search) == "" {
		return load(ctx, q)
	}

	key, err := c.key(ctx, entity, q)
	if err != nil {
		slog.Debug("catalog cache unavailable", "error", err)
		return load(ctx, q)
	}

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var page core.Page[T]
		if err := json.Unmarshal(data, &page); err == nil {
			return page, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Debug("catalog cache read failed", "key", key, "error", err)
	}

	page, err := load(ctx, q)
	if err != nil {
		return page, err
	}

	if data, err := json.Marshal(page); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("catalog cache write failed", "key", key, "error", err)
		}
	}
	return page, nil
}

func (c *Catalog) key(ctx context.Context, entity core.Entity, q core.ListQuery) (string, error) {
	gen, err := c.client.Get(ctx, generationKey(entity)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return searchKey(entity, gen, q), nil
}

func generationKey(entity core.Entity) string {
	return "catalog:" + string(entity) + ":gen"
}

// searchKey identifies one search page. The search term is lower-cased since
// matching is case-insensitive.
func searchKey(entity core.Entity, gen int64, q core.ListQuery) string {
	owner := "all"
	if q.OwnerID != uuid.Nil {
		owner = q.OwnerID.String()
	}
	term := url.QueryEscape(strings.ToLower(strings.TrimSpace(q.Search)))
	return fmt.Sprintf("catalog:%s:%d:%s:%d:%d:%s", entity, gen, owner, q.Page, q.Limit, term)
}
