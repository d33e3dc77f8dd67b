package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-cinema/internal/model"
)

func TestBackupWritesSnapshot(t *testing.T) {
	store, _ := newTestStore(t, model.Collection{model.CategoryLove: {{Title: "Amélie"}}})
	dir := filepath.Join(t.TempDir(), "backups")

	svc := NewBackupService(store, dir, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	path, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "movie-cinema-data-20250304T050607Z.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	expected, err := store.ExportSnapshot()
	require.NoError(t, err)
	assert.Equal(t, expected, raw)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBackupRespectsCancelledContext(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBackupService(store, t.TempDir(), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
