package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ExportFileName is the name offered for downloaded exports.
const ExportFileName = "movie-cinema-data.json"

// BackupService writes export snapshots into a directory.
type BackupService struct {
	store *CatalogStore
	dir   string
	log   *zap.Logger
	now   func() time.Time
}

func NewBackupService(store *CatalogStore, dir string, log *zap.Logger) *BackupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BackupService{store: store, dir: dir, log: log, now: time.Now}
}

// Run writes one snapshot and returns its path.
func (s *BackupService) Run(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := s.store.ExportSnapshot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir %q: %w", s.dir, err)
	}

	name := fmt.Sprintf("movie-cinema-data-%s.json", s.now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize backup: %w", err)
	}

	s.log.Info("backup written", zap.String("path", path), zap.Int("bytes", len(raw)))
	return path, nil
}
