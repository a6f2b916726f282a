package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdigital/doc-ledger/internal/application/port"
	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/domain/event"
	"github.com/kbdigital/doc-ledger/internal/export"
	"github.com/kbdigital/doc-ledger/internal/ledger"
)

func newExportFixture(t *testing.T, files *mockFileStorage) (DocumentService, ExportService) {
	t.Helper()
	docs := NewDocumentService(ledger.New(testClock), nil, nil, &mockLogger{})
	ctx := context.Background()

	q, err := docs.Create(ctx, quoteRequest())
	require.NoError(t, err)
	_, err = docs.Convert(ctx, q.ID, entity.KindInvoice)
	require.NoError(t, err)

	// a nil *mockFileStorage must not become a non-nil port.FileStorage
	var storage port.FileStorage
	if files != nil {
		storage = files
	}
	svc := NewExportService(docs, export.Issuer{Name: "KB Digital Agency LTD"}, storage, nil, &mockLogger{})
	svc.(*exportServiceImpl).now = func() time.Time { return time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC) }
	return docs, svc
}

func TestExportService_DocumentsCSV(t *testing.T) {
	_, svc := newExportFixture(t, nil)
	ctx := context.Background()

	out, err := svc.DocumentsCSV(ctx, ledger.Filter{})
	require.NoError(t, err)
	lines := strings.Split(string(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "INV001,invoice,Acme Ltd"))
	assert.True(t, strings.HasPrefix(lines[2], "Q001,quotation,Acme Ltd"))

	_, err = svc.DocumentsCSV(ctx, ledger.Filter{Kind: entity.KindReceipt})
	assert.True(t, errors.Is(err, export.ErrNoData))
}

func TestExportService_Report(t *testing.T) {
	_, svc := newExportFixture(t, nil)
	ctx := context.Background()

	out, err := svc.Report(ctx, "INV001")
	require.NoError(t, err)
	assert.Contains(t, string(out), "INVOICE #INV001")

	_, err = svc.Report(ctx, "INV404")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	_, err = svc.SaveReport(ctx, "INV001")
	assert.Error(t, err, "no storage configured")
}

func TestExportService_PreviewImport(t *testing.T) {
	_, svc := newExportFixture(t, nil)
	ctx := context.Background()

	register, err := svc.DocumentsCSV(ctx, ledger.Filter{})
	require.NoError(t, err)
	preview, err := svc.PreviewImport(ctx, register)
	require.NoError(t, err)
	assert.Equal(t, 2, preview.Matching)
	assert.Zero(t, preview.Differing)
	assert.Zero(t, preview.Unknown)

	tests := []struct {
		name     string
		register string
		wantErr  error
	}{
		{"empty", "", export.ErrMalformedCSV},
		{"header only", "id,type,client,total,status", export.ErrMalformedCSV},
		{"missing columns", "id,client\nQ001,Acme Ltd", ledger.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PreviewImport(ctx, []byte(tt.register))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	preview, err = svc.PreviewImport(ctx, []byte("id,type,client,total,status\nQ777,quotation,Acme Ltd,10.00,draft"))
	require.NoError(t, err)
	require.Len(t, preview.Rows, 1)
	assert.Equal(t, export.RowUnknown, preview.Rows[0].State)
}

func TestExportService_Backup(t *testing.T) {
	docs, svc := newExportFixture(t, nil)
	ctx := context.Background()

	name, content, err := svc.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kb-digital-backup-2024-01-15.json", name)

	snap, err := export.ReadBackup(content)
	require.NoError(t, err)

	restored := NewDocumentService(ledger.New(), nil, nil, &mockLogger{})
	require.NoError(t, restored.Restore(ctx, snap))
	assert.Equal(t, docs.List(ctx, ledger.Filter{}), restored.List(ctx, ledger.Filter{}))
}

func TestExportService_SaveReport(t *testing.T) {
	files := newMockFileStorage()
	_, svc := newExportFixture(t, files)

	rel, err := svc.SaveReport(context.Background(), "Q001")
	require.NoError(t, err)

	assert.Equal(t, "reports/Q001-acme-ltd.html", rel)
	assert.Contains(t, string(files.files[rel]), "QUOTATION #Q001")
}

func TestExportService_Archive(t *testing.T) {
	files := newMockFileStorage()
	_, svc := newExportFixture(t, files)
	events := &mockEventPublisher{}
	svc.(*exportServiceImpl).events = events

	paths, err := svc.Archive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"archive/2024-01-16/kb-digital-backup-2024-01-15.json",
		"archive/2024-01-16/documents-2024-01-16.xlsx",
		"archive/2024-01-16/documents-2024-01-16.csv",
	}, paths)
	for _, p := range paths {
		assert.NotEmpty(t, files.files[p], p)
	}

	require.Len(t, events.events, 1)
	archived := events.events[0]
	assert.Equal(t, event.TypeArchiveWritten, archived.Type)
	assert.Equal(t, int64(3), archived.GetPayloadInt(event.KeyFiles))
	assert.Equal(t, "archive/2024-01-16", archived.GetPayloadString(event.KeyDir))
}

func TestExportService_ArchiveWriteFailure(t *testing.T) {
	files := newMockFileStorage()
	files.saveFunc = func(ctx context.Context, path string, content []byte) error {
		if strings.HasSuffix(path, ".xlsx") {
			return errors.New("read-only filesystem")
		}
		return nil
	}
	_, svc := newExportFixture(t, files)

	paths, err := svc.Archive(context.Background())

	require.Error(t, err)
	assert.Len(t, paths, 1)
}
