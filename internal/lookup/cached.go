// internal/lookup/cached.go
package lookup

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"meal-ai/internal/models"
)

// Cache stores lookup hits keyed by source and normalized query.
type Cache interface {
	GetLookup(ctx context.Context, source, key string, maxAge time.Duration) (*models.BaseInfo, error)
	PutLookup(ctx context.Context, source, key string, info *models.BaseInfo) error
}

// Cached serves repeated queries from a Cache. Only hits are stored; cache
// failures are logged and the wrapped source is used.
type Cached struct {
	src    Source
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(src Source, cache Cache, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{src: src, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) Name() string { return c.src.Name() }

func (c *Cached) Lookup(ctx context.Context, query string) (*models.BaseInfo, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))

	info, err := c.cache.GetLookup(ctx, c.src.Name(), key, c.ttl)
	switch {
	case err != nil:
		c.logger.Warn("lookup cache read failed", zap.String("source", c.src.Name()), zap.Error(err))
	case info != nil:
		c.logger.Debug("lookup cache hit", zap.String("source", c.src.Name()), zap.String("key", key))
		return info, nil
	}

	info, err = c.src.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := c.cache.PutLookup(ctx, c.src.Name(), key, info); err != nil {
		c.logger.Warn("lookup cache write failed", zap.String("source", c.src.Name()), zap.Error(err))
	}
	return info, nil
}
