package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"movie-cinema/internal/model"
	"movie-cinema/internal/repository"
)

var errDiskFull = errors.New("disk full")

// flakyKV wraps a memory store and fails writes on demand.
type flakyKV struct {
	*repository.MemoryRepository
	failSet bool
	writes  int
}

func newFlakyKV() *flakyKV {
	return &flakyKV{MemoryRepository: repository.NewMemoryRepository()}
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errDiskFull
	}
	f.writes++
	return f.MemoryRepository.Set(ctx, key, value)
}

func newTestStore(t *testing.T, initial model.Collection) (*CatalogStore, *flakyKV) {
	t.Helper()
	kv := newFlakyKV()
	store := NewCatalogStore(kv, nil)
	if initial != nil {
		require.NoError(t, store.Replace(context.Background(), initial))
	}
	kv.writes = 0
	return store, kv
}

// persisted reads back what a fresh store would load from kv.
func persisted(t *testing.T, kv KeyValueStore) model.Collection {
	t.Helper()
	collection, present, err := NewCatalogStore(kv, nil).Load(context.Background())
	require.NoError(t, err)
	require.True(t, present)
	return collection
}

func titles(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}
