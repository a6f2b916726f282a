package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
)

// Worker names
const (
	OverdueWorkerName = "OverdueWorker"
	ArchiveWorkerName = "ArchiveWorker"
)

// OverdueSweeper marks sent invoices past their due date as overdue
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context) ([]entity.Document, error)
}

// Archiver writes a dated backup of the ledger to file storage
type Archiver interface {
	Archive(ctx context.Context) ([]string, error)
}

// NewOverdueWorker sweeps for overdue invoices every interval, starting immediately
// so invoices that fell due while the service was down are caught on boot.
func NewOverdueWorker(interval time.Duration, sweeper OverdueSweeper, logger *zap.Logger) *PeriodicWorker {
	return NewPeriodicWorker(OverdueWorkerName, interval, true, 0, func(ctx context.Context) error {
		changed, err := sweeper.MarkOverdue(ctx)
		if len(changed) > 0 {
			ids := make([]string, len(changed))
			for i, doc := range changed {
				ids[i] = doc.ID
			}
			logger.Info("Invoices marked overdue", zap.Strings("ids", ids))
		}
		return err
	}, logger)
}

// NewArchiveWorker writes an archive every interval, bounded by timeout per run.
func NewArchiveWorker(interval, timeout time.Duration, archiver Archiver, logger *zap.Logger) *PeriodicWorker {
	return NewPeriodicWorker(ArchiveWorkerName, interval, false, timeout, func(ctx context.Context) error {
		paths, err := archiver.Archive(ctx)
		if err != nil {
			return err
		}
		logger.Info("Scheduled archive written", zap.Strings("paths", paths))
		return nil
	}, logger)
}
