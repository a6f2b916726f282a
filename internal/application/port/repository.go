package port

import (
	"context"
	"errors"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
)

// ErrNoSnapshot is returned by SnapshotStore.Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// SnapshotStore persists whole-ledger snapshots.
// Load must return documents in the order they were saved.
type SnapshotStore interface {
	Save(ctx context.Context, snap entity.Snapshot) error
	Load(ctx context.Context) (entity.Snapshot, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
