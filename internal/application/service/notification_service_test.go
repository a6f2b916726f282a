package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/domain/event"
)

func invoiceDoc(status entity.Status) entity.Document {
	return entity.Document{
		ID:         "INV001",
		Kind:       entity.KindInvoice,
		ClientName: "Acme Ltd",
		Total:      1763200,
		Status:     status,
	}
}

func TestNotificationFor(t *testing.T) {
	tests := []struct {
		name        string
		evt         *event.Event
		wantLevel   entity.NotificationLevel
		wantTitle   string
		wantMessage string
	}{
		{
			name:        "created",
			evt:         documentEvent(event.TypeDocumentCreated, invoiceDoc(entity.StatusDraft), ""),
			wantLevel:   entity.NotificationSuccess,
			wantTitle:   "Invoice created",
			wantMessage: "INV001 for Acme Ltd, KES 17,632.00",
		},
		{
			name: "converted",
			evt: documentEvent(event.TypeDocumentConverted, invoiceDoc(entity.StatusDraft), "").
				WithPayload(event.KeySourceID, "Q001"),
			wantLevel:   entity.NotificationSuccess,
			wantTitle:   "Invoice created from Q001",
			wantMessage: "INV001 for Acme Ltd, KES 17,632.00",
		},
		{
			name:        "overdue",
			evt:         statusEvent(invoiceDoc(entity.StatusOverdue), entity.StatusSent, ""),
			wantLevel:   entity.NotificationWarning,
			wantTitle:   "Payment overdue",
			wantMessage: "INV001 for Acme Ltd is overdue, KES 17,632.00 outstanding",
		},
		{
			name:        "paid",
			evt:         statusEvent(invoiceDoc(entity.StatusPaid), entity.StatusSent, ""),
			wantLevel:   entity.NotificationSuccess,
			wantTitle:   "Payment received",
			wantMessage: "INV001 for Acme Ltd marked paid, KES 17,632.00",
		},
		{
			name:        "cancelled",
			evt:         statusEvent(invoiceDoc(entity.StatusCancelled), entity.StatusDraft, ""),
			wantLevel:   entity.NotificationError,
			wantTitle:   "Invoice cancelled",
			wantMessage: "INV001 for Acme Ltd was cancelled",
		},
		{
			name:        "sent",
			evt:         statusEvent(invoiceDoc(entity.StatusSent), entity.StatusDraft, ""),
			wantLevel:   entity.NotificationInfo,
			wantTitle:   "Status updated",
			wantMessage: "INV001 moved from draft to sent",
		},
		{
			name:        "restored",
			evt:         event.NewEvent(event.TypeLedgerRestored, "", map[string]interface{}{event.KeyDocuments: 12}),
			wantLevel:   entity.NotificationInfo,
			wantTitle:   "Ledger restored",
			wantMessage: "12 documents loaded from backup",
		},
		{
			name: "archived",
			evt: event.NewEvent(event.TypeArchiveWritten, "", map[string]interface{}{
				event.KeyFiles: 3,
				event.KeyDir:   "archive/2024-01-16",
			}),
			wantLevel:   entity.NotificationInfo,
			wantTitle:   "Backup completed",
			wantMessage: "3 files written to archive/2024-01-16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := notificationFor(tt.evt)
			require.NoError(t, err)

			assert.Equal(t, tt.evt.ID, n.ID)
			assert.Equal(t, tt.wantLevel, n.Level)
			assert.Equal(t, tt.wantTitle, n.Title)
			assert.Equal(t, tt.wantMessage, n.Message)
			assert.False(t, n.Read)
		})
	}
}

func TestNotificationService_Feed(t *testing.T) {
	svc := NewNotificationService(3, &mockLogger{})
	ctx := context.Background()

	var ids []string
	for i := 1; i <= 4; i++ {
		doc := invoiceDoc(entity.StatusDraft)
		doc.ID = fmt.Sprintf("INV%03d", i)
		evt := documentEvent(event.TypeDocumentCreated, doc, "")
		require.NoError(t, svc.HandleEvent(ctx, evt))
		ids = append(ids, evt.ID)
	}

	feed := svc.List(ctx)
	require.Len(t, feed, 3, "oldest entry is discarded")
	assert.Equal(t, "INV004", feed[0].DocumentID)
	assert.Equal(t, "INV002", feed[2].DocumentID)
	assert.Equal(t, 3, svc.UnreadCount(ctx))

	require.NoError(t, svc.MarkRead(ctx, ids[3]))
	assert.Equal(t, 2, svc.UnreadCount(ctx))

	err := svc.MarkRead(ctx, ids[0])
	assert.True(t, errors.Is(err, ErrNotificationNotFound), "discarded entry")

	assert.Equal(t, 2, svc.MarkAllRead(ctx))
	assert.Equal(t, 0, svc.UnreadCount(ctx))
	assert.Equal(t, 0, svc.MarkAllRead(ctx))

	require.NoError(t, svc.Remove(ctx, ids[2]))
	assert.Len(t, svc.List(ctx), 2)
	assert.True(t, errors.Is(svc.Remove(ctx, ids[2]), ErrNotificationNotFound))
}

func TestNotificationService_ListReturnsCopy(t *testing.T) {
	svc := NewNotificationService(0, &mockLogger{})
	ctx := context.Background()
	require.NoError(t, svc.HandleEvent(ctx, documentEvent(event.TypeDocumentCreated, invoiceDoc(entity.StatusDraft), "")))

	feed := svc.List(ctx)
	feed[0].Read = true

	assert.Equal(t, 1, svc.UnreadCount(ctx))
}

func TestNotificationService_UnknownEvent(t *testing.T) {
	logger := &mockLogger{}
	svc := NewNotificationService(0, logger)

	err := svc.HandleEvent(context.Background(), event.NewEvent(event.Type("document.deleted"), "Q001", nil))

	assert.Error(t, err)
	assert.Empty(t, svc.List(context.Background()))
	assert.NotEmpty(t, logger.errors)
}
