package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntryRepository(t *testing.T) *EntryRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	repo := NewEntryRepository(db)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestEntryRepositoryGetMissing(t *testing.T) {
	repo := newTestEntryRepository(t)

	value, ok, err := repo.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestEntryRepositorySetOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestEntryRepository(t)

	require.NoError(t, repo.Set(ctx, "k", `{"a":1}`))
	require.NoError(t, repo.Set(ctx, "k", `{"a":2}`))
	require.NoError(t, repo.Set(ctx, "other", "x"))

	value, ok, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":2}`, value)

	var rows int64
	require.NoError(t, repo.db.Table("entries").Count(&rows).Error)
	assert.EqualValues(t, 2, rows)
}

func TestNewDBCreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	db, err := NewDB("file:"+filepath.Join(dir, "catalog.db")+"?cache=shared", nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDirSkipsMemory(t *testing.T) {
	assert.NoError(t, ensureDirForSQLite(":memory:"))
	assert.NoError(t, ensureDirForSQLite("file::memory:?cache=shared"))
	assert.NoError(t, ensureDirForSQLite("local.db"))
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, ok, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "k", "v"))
	value, ok, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
	assert.NoError(t, repo.Close())
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, "memory://", nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryRepository{}, kv)

	kv, err = Open(ctx, filepath.Join(t.TempDir(), "c.db"), nil)
	require.NoError(t, err)
	assert.IsType(t, &EntryRepository{}, kv)
	assert.NoError(t, kv.Close())

	_, err = Open(ctx, "redis://:bad url", nil)
	assert.Error(t, err)
}

func TestRedisRepository(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	repo, err := NewRedisRepository(ctx, url, "moviecinema-test:")
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Set(ctx, "k", "v1"))
	value, ok, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", value)

	_, ok, err = repo.Get(ctx, "never-set")
	require.NoError(t, err)
	assert.False(t, ok)
}
