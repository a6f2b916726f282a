package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbdigital/doc-ledger/internal/application/port"
	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/domain/event"
	"github.com/kbdigital/doc-ledger/internal/ledger"
)

// ErrPersistence wraps failures to save the ledger after a successful change.
// The in-memory change stands; the next successful save persists it.
var ErrPersistence = errors.New("ledger change not persisted")

// DocumentService exposes ledger operations and keeps the snapshot store in step with them
type DocumentService interface {
	// Bootstrap restores the last saved snapshot, if any
	Bootstrap(ctx context.Context) error

	Create(ctx context.Context, req ledger.CreateRequest) (entity.Document, error)
	Convert(ctx context.Context, sourceID string, target entity.Kind) (entity.Document, error)
	SetStatus(ctx context.Context, id string, status entity.Status) (entity.Document, error)

	// MarkOverdue moves sent invoices past their due date to overdue and returns them
	MarkOverdue(ctx context.Context) ([]entity.Document, error)

	// Restore replaces the ledger with snap and saves it
	Restore(ctx context.Context, snap entity.Snapshot) error

	Get(ctx context.Context, id string) (entity.Document, error)
	NextStatuses(ctx context.Context, id string) ([]entity.Status, error)
	List(ctx context.Context, filter ledger.Filter) []entity.Document
	Totals(ctx context.Context) entity.Totals
	Snapshot(ctx context.Context) entity.Snapshot
}

type documentServiceImpl struct {
	ledger *ledger.Ledger
	store  port.SnapshotStore
	events EventPublisher
	now    func() time.Time
	logger Logger

	// saveMu orders snapshot-then-save so an older snapshot never overwrites a newer one
	saveMu sync.Mutex
}

// NewDocumentService creates a DocumentService.
// A nil store keeps the ledger in memory only; a nil events publisher emits nothing.
func NewDocumentService(l *ledger.Ledger, store port.SnapshotStore, events EventPublisher, logger Logger) DocumentService {
	return &documentServiceImpl{
		ledger: l,
		store:  store,
		events: events,
		now:    time.Now,
		logger: logger,
	}
}

func (s *documentServiceImpl) Bootstrap(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	snap, err := s.store.Load(ctx)
	if errors.Is(err, port.ErrNoSnapshot) {
		s.logger.Info("No saved ledger found, starting empty")
		return nil
	}
	if err != nil {
		s.logger.Error("Failed to load ledger snapshot", "error", err)
		return fmt.Errorf("load snapshot: %w", err)
	}

	if err := s.ledger.Restore(snap); err != nil {
		s.logger.Error("Saved ledger snapshot is invalid", "error", err)
		return fmt.Errorf("restore snapshot: %w", err)
	}

	s.logger.Info("Ledger restored",
		"documents", s.ledger.Len(),
		"generated_at", snap.GeneratedAt)
	return nil
}

func (s *documentServiceImpl) Create(ctx context.Context, req ledger.CreateRequest) (entity.Document, error) {
	doc, err := s.ledger.Create(req)
	if err != nil {
		s.logger.Info("Document rejected",
			"kind", req.Kind,
			"error", err)
		return entity.Document{}, err
	}

	s.logger.Info("Document created",
		"id", doc.ID,
		"client", doc.ClientName,
		"total", doc.Total.String())

	s.publish(ctx, documentEvent(event.TypeDocumentCreated, doc, ""))
	return doc, s.persist(ctx, "create "+doc.ID)
}

func (s *documentServiceImpl) Convert(ctx context.Context, sourceID string, target entity.Kind) (entity.Document, error) {
	doc, err := s.ledger.Convert(sourceID, target)
	if err != nil {
		s.logger.Info("Conversion rejected",
			"source_id", sourceID,
			"target", target,
			"error", err)
		return entity.Document{}, err
	}

	s.logger.Info("Document converted",
		"source_id", sourceID,
		"id", doc.ID,
		"status", doc.Status)

	s.publish(ctx, documentEvent(event.TypeDocumentConverted, doc, "").
		WithPayload(event.KeySourceID, sourceID))
	return doc, s.persist(ctx, "convert "+sourceID)
}

func (s *documentServiceImpl) SetStatus(ctx context.Context, id string, status entity.Status) (entity.Document, error) {
	before, err := s.ledger.Get(id)
	if err != nil {
		return entity.Document{}, err
	}

	doc, err := s.ledger.SetStatus(id, status)
	if err != nil {
		s.logger.Info("Status change rejected",
			"id", id,
			"status", status,
			"error", err)
		return entity.Document{}, err
	}
	if before.Status == doc.Status {
		return doc, nil
	}

	s.logger.Info("Document status changed",
		"id", id,
		"from", before.Status,
		"to", doc.Status)

	s.publish(ctx, statusEvent(doc, before.Status, ""))
	return doc, s.persist(ctx, "status "+id)
}

func (s *documentServiceImpl) MarkOverdue(ctx context.Context) ([]entity.Document, error) {
	changed := s.ledger.MarkOverdue(s.now())
	if len(changed) == 0 {
		return nil, nil
	}

	sweep := event.GenerateID()
	for _, doc := range changed {
		s.logger.Info("Invoice overdue",
			"id", doc.ID,
			"client", doc.ClientName,
			"due_date", doc.DueDate)
		s.publish(ctx, statusEvent(doc, entity.StatusSent, sweep))
	}

	return changed, s.persist(ctx, fmt.Sprintf("overdue sweep of %d invoices", len(changed)))
}

func (s *documentServiceImpl) Restore(ctx context.Context, snap entity.Snapshot) error {
	if err := s.ledger.Restore(snap); err != nil {
		s.logger.Error("Restore rejected", "error", err)
		return err
	}

	s.logger.Info("Ledger restored from backup",
		"documents", s.ledger.Len(),
		"generated_at", snap.GeneratedAt)

	s.publish(ctx, event.NewEvent(event.TypeLedgerRestored, "", map[string]interface{}{
		event.KeyDocuments: s.ledger.Len(),
	}))
	return s.persist(ctx, "restore")
}

func (s *documentServiceImpl) Get(ctx context.Context, id string) (entity.Document, error) {
	return s.ledger.Get(id)
}

func (s *documentServiceImpl) NextStatuses(ctx context.Context, id string) ([]entity.Status, error) {
	return s.ledger.NextStatuses(id)
}

func (s *documentServiceImpl) List(ctx context.Context, filter ledger.Filter) []entity.Document {
	return s.ledger.List(filter)
}

func (s *documentServiceImpl) Totals(ctx context.Context) entity.Totals {
	return s.ledger.Totals()
}

func (s *documentServiceImpl) Snapshot(ctx context.Context) entity.Snapshot {
	return s.ledger.Snapshot()
}

func (s *documentServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.events != nil {
		s.events.DispatchAsync(ctx, evt)
	}
}

func statusEvent(doc entity.Document, from entity.Status, correlationID string) *event.Event {
	return documentEvent(event.TypeStatusChanged, doc, correlationID).
		WithPayload(event.KeyFrom, from.String()).
		WithPayload(event.KeyTo, doc.Status.String())
}

// persist saves the current ledger state.
func (s *documentServiceImpl) persist(ctx context.Context, op string) error {
	if s.store == nil {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap := s.ledger.Snapshot()
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Error("Failed to persist ledger",
			"operation", op,
			"documents", len(snap.Data.Documents),
			"error", err)
		return fmt.Errorf("%w after %s: %w", ErrPersistence, op, err)
	}
	return nil
}
