package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kbdigital/doc-ledger/internal/application/port"
	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"go.uber.org/zap"
)

// SnapshotStore implements port.SnapshotStore on the documents and
// document_items tables. Every Save replaces the stored ledger wholesale.
type SnapshotStore struct {
	db     *DB
	logger *zap.Logger
}

// NewSnapshotStore creates a snapshot store over a migrated database.
func NewSnapshotStore(db *DB, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		db:     db,
		logger: logger,
	}
}

// Save replaces the stored documents with snap in a single transaction.
func (s *SnapshotStore) Save(ctx context.Context, snap entity.Snapshot) error {
	err := s.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := s.db.getExecutor(ctx)

		if _, err := exec.ExecContext(ctx, `DELETE FROM document_items`); err != nil {
			return fmt.Errorf("failed to clear document items: %w", err)
		}
		if _, err := exec.ExecContext(ctx, `DELETE FROM documents`); err != nil {
			return fmt.Errorf("failed to clear documents: %w", err)
		}

		// snapshots list newest first; seq records insertion order
		docs := snap.Data.Documents
		for i := len(docs) - 1; i >= 0; i-- {
			if err := s.insertDocument(ctx, exec, len(docs)-i, docs[i]); err != nil {
				return err
			}
		}

		version := snap.Version
		if version == "" {
			version = entity.SnapshotVersion
		}
		_, err := exec.ExecContext(ctx, `
			INSERT INTO snapshot_meta (id, version, generated_at) VALUES (1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET version = excluded.version, generated_at = excluded.generated_at
		`, version, formatTime(snap.GeneratedAt))
		if err != nil {
			return fmt.Errorf("failed to record snapshot metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save snapshot",
			zap.Int("documents", len(snap.Data.Documents)),
			zap.Error(err))
		return err
	}

	s.logger.Debug("Snapshot saved", zap.Int("documents", len(snap.Data.Documents)))
	return nil
}

func (s *SnapshotStore) insertDocument(ctx context.Context, exec executor, seq int, doc entity.Document) error {
	var dueDate interface{}
	if doc.DueDate != nil {
		dueDate = formatTime(*doc.DueDate)
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO documents (
			seq, id, kind, client_name, client_email, issue_date, due_date,
			subtotal, tax_amount, total, status, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		seq,
		doc.ID,
		string(doc.Kind),
		doc.ClientName,
		doc.ClientEmail,
		formatTime(doc.IssueDate),
		dueDate,
		int64(doc.Subtotal),
		int64(doc.TaxAmount),
		int64(doc.Total),
		string(doc.Status),
		doc.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
	}

	for pos, item := range doc.Items {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO document_items (document_id, position, description, quantity, unit_rate, amount)
			VALUES (?, ?, ?, ?, ?, ?)
		`, doc.ID, pos, item.Description, item.Quantity, int64(item.UnitRate), int64(item.Amount))
		if err != nil {
			return fmt.Errorf("failed to insert item %d of %s: %w", pos, doc.ID, err)
		}
	}
	return nil
}

// Load returns the stored snapshot, newest document first.
// It returns port.ErrNoSnapshot if Save has never been called.
func (s *SnapshotStore) Load(ctx context.Context) (entity.Snapshot, error) {
	exec := s.db.getExecutor(ctx)

	var snap entity.Snapshot
	var generatedAt string
	err := exec.QueryRowContext(ctx,
		`SELECT version, generated_at FROM snapshot_meta WHERE id = 1`,
	).Scan(&snap.Version, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Snapshot{}, port.ErrNoSnapshot
	}
	if err != nil {
		s.logger.Error("Failed to read snapshot metadata", zap.Error(err))
		return entity.Snapshot{}, fmt.Errorf("failed to read snapshot metadata: %w", err)
	}
	if snap.GeneratedAt, err = parseTime(generatedAt); err != nil {
		return entity.Snapshot{}, fmt.Errorf("invalid snapshot timestamp: %w", err)
	}

	items, err := s.loadItems(ctx, exec)
	if err != nil {
		return entity.Snapshot{}, err
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT id, kind, client_name, client_email, issue_date, due_date,
			subtotal, tax_amount, total, status, notes
		FROM documents
		ORDER BY seq DESC
	`)
	if err != nil {
		s.logger.Error("Failed to query documents", zap.Error(err))
		return entity.Snapshot{}, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	snap.Data.Documents = []entity.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return entity.Snapshot{}, err
		}
		doc.Items = items[doc.ID]
		snap.Data.Documents = append(snap.Data.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return snap, nil
}

func (s *SnapshotStore) loadItems(ctx context.Context, exec executor) (map[string][]entity.LineItem, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT document_id, description, quantity, unit_rate, amount
		FROM document_items
		ORDER BY document_id, position
	`)
	if err != nil {
		s.logger.Error("Failed to query document items", zap.Error(err))
		return nil, fmt.Errorf("failed to query document items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]entity.LineItem)
	for rows.Next() {
		var (
			docID        string
			item         entity.LineItem
			rate, amount int64
		)
		if err := rows.Scan(&docID, &item.Description, &item.Quantity, &rate, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan document item: %w", err)
		}
		item.UnitRate = entity.Money(rate)
		item.Amount = entity.Money(amount)
		items[docID] = append(items[docID], item)
	}
	return items, rows.Err()
}

func scanDocument(rows *sql.Rows) (entity.Document, error) {
	var (
		doc                  entity.Document
		kind, status         string
		issueDate            string
		dueDate              sql.NullString
		subtotal, tax, total int64
	)
	err := rows.Scan(
		&doc.ID,
		&kind,
		&doc.ClientName,
		&doc.ClientEmail,
		&issueDate,
		&dueDate,
		&subtotal,
		&tax,
		&total,
		&status,
		&doc.Notes,
	)
	if err != nil {
		return entity.Document{}, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.Kind = entity.Kind(kind)
	doc.Status = entity.Status(status)
	doc.Subtotal = entity.Money(subtotal)
	doc.TaxAmount = entity.Money(tax)
	doc.Total = entity.Money(total)

	if doc.IssueDate, err = parseTime(issueDate); err != nil {
		return entity.Document{}, fmt.Errorf("document %s: invalid issue date: %w", doc.ID, err)
	}
	if dueDate.Valid {
		due, err := parseTime(dueDate.String)
		if err != nil {
			return entity.Document{}, fmt.Errorf("document %s: invalid due date: %w", doc.ID, err)
		}
		doc.DueDate = &due
	}
	return doc, nil
}

// Times are stored as RFC 3339 text in UTC so they sort and round-trip exactly.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Verify interface compliance
var _ port.SnapshotStore = (*SnapshotStore)(nil)
