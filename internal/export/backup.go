package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/ledger"
)

// BackupFilename names a backup taken at t, e.g. kb-digital-backup-2024-01-15.json.
func BackupFilename(t time.Time) string {
	return fmt.Sprintf("kb-digital-backup-%s.json", t.UTC().Format(dateLayout))
}

// Backup encodes snap as two-space indented JSON.
func Backup(snap entity.Snapshot) ([]byte, error) {
	if snap.Version == "" {
		snap.Version = entity.SnapshotVersion
	}
	if snap.Data.Documents == nil {
		snap.Data.Documents = []entity.Document{}
	}
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode backup: %w", err)
	}
	return out, nil
}

// backupEnvelope detects keys that are absent rather than empty.
type backupEnvelope struct {
	Version *string `json:"version"`
	Data    *struct {
		Documents *[]json.RawMessage `json:"documents"`
	} `json:"data"`
}

// ReadBackup decodes a backup produced by Backup. The version and
// data.documents keys must be present; a missing key is a *ledger.ValidationError.
func ReadBackup(data []byte) (entity.Snapshot, error) {
	var env backupEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return entity.Snapshot{}, fmt.Errorf("export: decode backup: %w", err)
	}
	switch {
	case env.Version == nil:
		return entity.Snapshot{}, &ledger.ValidationError{Field: "version", Reason: "is required"}
	case env.Data == nil || env.Data.Documents == nil:
		return entity.Snapshot{}, &ledger.ValidationError{Field: "data.documents", Reason: "is required"}
	}

	var snap entity.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return entity.Snapshot{}, fmt.Errorf("export: decode backup: %w", err)
	}
	return snap, nil
}
