package repository

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
)

// KeyValue is the storage contract shared by every backend.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	io.Closer
}

const redisKeyPrefix = "moviecinema:"

// Open picks a backend from the storage URL: redis:// or rediss:// for Redis,
// memory:// for an in-process map, anything else is a SQLite DSN.
func Open(ctx context.Context, url string, log *zap.Logger) (KeyValue, error) {
	switch {
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return NewRedisRepository(ctx, url, redisKeyPrefix)
	case strings.HasPrefix(url, "memory://"):
		return NewMemoryRepository(), nil
	default:
		db, err := NewDB(url, log)
		if err != nil {
			return nil, err
		}
		return NewEntryRepository(db), nil
	}
}
