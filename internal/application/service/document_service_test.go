package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/domain/event"
	"github.com/kbdigital/doc-ledger/internal/ledger"
)

var testClock = ledger.WithClock(func() time.Time {
	return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
})

func quoteRequest() ledger.CreateRequest {
	return ledger.CreateRequest{
		Kind:        entity.KindQuotation,
		ClientName:  "Acme Ltd",
		ClientEmail: "ap@acme.co",
		Items:       []ledger.ItemInput{{Description: "Banner", Quantity: 2, UnitRate: 760000}},
	}
}

func TestDocumentService_MutationsAreSaved(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := NewDocumentService(ledger.New(testClock), store, nil, &mockLogger{})
	ctx := context.Background()

	q, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, store.saveCount())

	inv, err := svc.Convert(ctx, q.ID, entity.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, 2, store.saveCount())

	_, err = svc.SetStatus(ctx, inv.ID, entity.StatusSent)
	require.NoError(t, err)
	assert.Equal(t, 3, store.saveCount())

	// unchanged status is not saved again
	_, err = svc.SetStatus(ctx, inv.ID, entity.StatusSent)
	require.NoError(t, err)
	assert.Equal(t, 3, store.saveCount())

	last, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, last.Data.Documents, 2)
	assert.Equal(t, "INV001", last.Data.Documents[0].ID)
	assert.Equal(t, entity.StatusSent, last.Data.Documents[0].Status)
}

func TestDocumentService_RejectedCommandsAreNotSaved(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := NewDocumentService(ledger.New(testClock), store, nil, &mockLogger{})
	ctx := context.Background()

	bad := quoteRequest()
	bad.ClientEmail = ""
	_, err := svc.Create(ctx, bad)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	_, err = svc.Convert(ctx, "Q001", entity.KindInvoice)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	_, err = svc.SetStatus(ctx, "Q001", entity.StatusPaid)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	assert.Equal(t, 0, store.saveCount())
}

func TestDocumentService_SaveFailure(t *testing.T) {
	diskFull := errors.New("disk full")
	store := &mockSnapshotStore{
		saveFunc: func(ctx context.Context, snap entity.Snapshot) error { return diskFull },
	}
	logger := &mockLogger{}
	svc := NewDocumentService(ledger.New(testClock), store, nil, logger)
	ctx := context.Background()

	doc, err := svc.Create(ctx, quoteRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, diskFull))
	assert.Equal(t, "Q001", doc.ID, "the created document is still returned")
	assert.Len(t, svc.List(ctx, ledger.Filter{}), 1)
	assert.NotEmpty(t, logger.errors)
}

func TestDocumentService_Bootstrap(t *testing.T) {
	ctx := context.Background()

	seed := ledger.New(testClock)
	_, err := seed.Create(quoteRequest())
	require.NoError(t, err)
	saved := seed.Snapshot()

	tests := []struct {
		name     string
		loadFunc func(ctx context.Context) (entity.Snapshot, error)
		wantErr  bool
		wantDocs int
	}{
		{
			name:     "restores saved ledger",
			loadFunc: func(ctx context.Context) (entity.Snapshot, error) { return saved, nil },
			wantDocs: 1,
		},
		{
			name:     "starts empty without a snapshot",
			wantDocs: 0,
		},
		{
			name: "load failure",
			loadFunc: func(ctx context.Context) (entity.Snapshot, error) {
				return entity.Snapshot{}, errors.New("corrupt")
			},
			wantErr: true,
		},
		{
			name: "invalid snapshot",
			loadFunc: func(ctx context.Context) (entity.Snapshot, error) {
				return entity.Snapshot{Version: "9"}, nil
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewDocumentService(ledger.New(testClock), &mockSnapshotStore{loadFunc: tt.loadFunc}, nil, &mockLogger{})

			err := svc.Bootstrap(ctx)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Bootstrap() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				assert.Len(t, svc.List(ctx, ledger.Filter{}), tt.wantDocs)
			}
		})
	}
}

func TestDocumentService_BootstrapThenCreateContinuesSequence(t *testing.T) {
	store := &mockSnapshotStore{}
	ctx := context.Background()

	first := NewDocumentService(ledger.New(testClock), store, nil, &mockLogger{})
	for i := 0; i < 3; i++ {
		_, err := first.Create(ctx, quoteRequest())
		require.NoError(t, err)
	}

	second := NewDocumentService(ledger.New(testClock), store, nil, &mockLogger{})
	require.NoError(t, second.Bootstrap(ctx))

	doc, err := second.Create(ctx, quoteRequest())
	require.NoError(t, err)
	assert.Equal(t, "Q004", doc.ID)
}

func TestDocumentService_Restore(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := NewDocumentService(ledger.New(testClock), store, nil, &mockLogger{})
	ctx := context.Background()

	_, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)

	err = svc.Restore(ctx, entity.Snapshot{Version: "2.0"})
	assert.True(t, errors.Is(err, ledger.ErrValidation))
	assert.Equal(t, 1, store.saveCount())
	assert.Len(t, svc.List(ctx, ledger.Filter{}), 1)

	require.NoError(t, svc.Restore(ctx, entity.Snapshot{Version: entity.SnapshotVersion}))
	assert.Equal(t, 2, store.saveCount())
	assert.Empty(t, svc.List(ctx, ledger.Filter{}))
	assert.Equal(t, entity.Totals{}, svc.Totals(ctx))
}

func TestDocumentService_InMemory(t *testing.T) {
	svc := NewDocumentService(ledger.New(testClock), nil, nil, &mockLogger{})
	ctx := context.Background()

	require.NoError(t, svc.Bootstrap(ctx))
	doc, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)

	got, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	next, err := svc.NextStatuses(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.Status{entity.StatusCancelled, entity.StatusSent}, next)
}

func TestDocumentService_PublishesEvents(t *testing.T) {
	events := &mockEventPublisher{}
	svc := NewDocumentService(ledger.New(testClock), nil, events, &mockLogger{})
	ctx := context.Background()

	q, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)
	inv, err := svc.Convert(ctx, q.ID, entity.KindInvoice)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, inv.ID, entity.StatusSent)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, inv.ID, entity.StatusSent)
	require.NoError(t, err)

	// rejected commands publish nothing
	_, err = svc.Convert(ctx, "Q404", entity.KindInvoice)
	require.Error(t, err)

	require.NoError(t, svc.Restore(ctx, svc.Snapshot(ctx)))

	assert.Equal(t, []event.Type{
		event.TypeDocumentCreated,
		event.TypeDocumentConverted,
		event.TypeStatusChanged,
		event.TypeLedgerRestored,
	}, events.types())

	created := events.events[0]
	assert.Equal(t, "Q001", created.DocumentID)
	assert.Equal(t, "Acme Ltd", created.GetPayloadString(event.KeyClient))
	assert.Equal(t, int64(1763200), created.GetPayloadInt(event.KeyTotal))

	converted := events.events[1]
	assert.Equal(t, "INV001", converted.DocumentID)
	assert.Equal(t, "Q001", converted.GetPayloadString(event.KeySourceID))

	changed := events.events[2]
	assert.Equal(t, "draft", changed.GetPayloadString(event.KeyFrom))
	assert.Equal(t, "sent", changed.GetPayloadString(event.KeyTo))

	assert.Equal(t, int64(2), events.events[3].GetPayloadInt(event.KeyDocuments))
}

func TestDocumentService_MarkOverdue(t *testing.T) {
	store := &mockSnapshotStore{}
	events := &mockEventPublisher{}
	svc := NewDocumentService(ledger.New(testClock), store, events, &mockLogger{})
	impl := svc.(*documentServiceImpl)
	ctx := context.Background()

	req := quoteRequest()
	req.Kind = entity.KindInvoice
	first, err := svc.Create(ctx, req)
	require.NoError(t, err)
	second, err := svc.Create(ctx, req)
	require.NoError(t, err)
	_, err = svc.Create(ctx, req) // stays draft
	require.NoError(t, err)
	for _, id := range []string{first.ID, second.ID} {
		_, err = svc.SetStatus(ctx, id, entity.StatusSent)
		require.NoError(t, err)
	}
	saves, published := store.saveCount(), len(events.events)

	impl.now = func() time.Time { return first.DueDate.Add(-time.Minute) }
	changed, err := svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, saves, store.saveCount(), "nothing changed, nothing saved")

	impl.now = func() time.Time { return first.DueDate.AddDate(0, 0, 5) }
	changed, err = svc.MarkOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, saves+1, store.saveCount(), "one save per sweep")

	sweep := events.events[published:]
	require.Len(t, sweep, 2)
	assert.Equal(t, sweep[0].CorrelationID, sweep[1].CorrelationID)
	assert.Equal(t, "overdue", sweep[0].GetPayloadString(event.KeyTo))

	docs := svc.List(ctx, ledger.Filter{Search: "INV00"})
	statuses := map[string]entity.Status{}
	for _, doc := range docs {
		statuses[doc.ID] = doc.Status
	}
	assert.Equal(t, map[string]entity.Status{
		"INV001": entity.StatusOverdue,
		"INV002": entity.StatusOverdue,
		"INV003": entity.StatusDraft,
	}, statuses)
}
