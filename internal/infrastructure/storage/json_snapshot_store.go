package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/kbdigital/doc-ledger/internal/application/port"
	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"go.uber.org/zap"
)

// JSONSnapshotStore keeps the ledger snapshot as a single JSON file.
type JSONSnapshotStore struct {
	files  port.FileStorage
	path   string
	logger *zap.Logger
}

// NewJSONSnapshotStore stores snapshots at path inside files.
func NewJSONSnapshotStore(files port.FileStorage, path string, logger *zap.Logger) *JSONSnapshotStore {
	return &JSONSnapshotStore{
		files:  files,
		path:   path,
		logger: logger,
	}
}

// Save writes snap as indented JSON.
func (s *JSONSnapshotStore) Save(ctx context.Context, snap entity.Snapshot) error {
	if snap.Version == "" {
		snap.Version = entity.SnapshotVersion
	}
	if snap.Data.Documents == nil {
		snap.Data.Documents = []entity.Document{}
	}

	content, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.files.Save(ctx, s.path, content); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug("Snapshot saved",
		zap.String("path", s.path),
		zap.Int("documents", len(snap.Data.Documents)))
	return nil
}

// Load reads the snapshot file, returning port.ErrNoSnapshot if it does not exist.
func (s *JSONSnapshotStore) Load(ctx context.Context) (entity.Snapshot, error) {
	content, err := s.files.Read(ctx, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entity.Snapshot{}, port.ErrNoSnapshot
	}
	if err != nil {
		return entity.Snapshot{}, err
	}

	var snap entity.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		s.logger.Error("Snapshot file is not valid JSON",
			zap.String("path", s.path),
			zap.Error(err))
		return entity.Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", s.path, err)
	}
	if snap.Data.Documents == nil {
		snap.Data.Documents = []entity.Document{}
	}
	return snap, nil
}

// Verify interface compliance
var _ port.SnapshotStore = (*JSONSnapshotStore)(nil)
