package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/kbdigital/doc-ledger/internal/application/port"
	"github.com/kbdigital/doc-ledger/internal/domain/event"
	"github.com/kbdigital/doc-ledger/internal/export"
	"github.com/kbdigital/doc-ledger/internal/ledger"
	"github.com/kbdigital/doc-ledger/pkg/utils"
)

// ExportService renders ledger documents for download and archives them to file storage
type ExportService interface {
	DocumentsCSV(ctx context.Context, filter ledger.Filter) ([]byte, error)
	DocumentsWorkbook(ctx context.Context, filter ledger.Filter) ([]byte, error)
	Report(ctx context.Context, id string) ([]byte, error)
	// Backup returns the suggested file name and the JSON snapshot
	Backup(ctx context.Context) (string, []byte, error)
	// PreviewImport compares a CSV register with the ledger without changing it
	PreviewImport(ctx context.Context, register []byte) (export.ImportPreview, error)

	// SaveReport writes the printable report of a document and returns its relative path
	SaveReport(ctx context.Context, id string) (string, error)
	// Archive writes the CSV register, the workbook and a backup, returning their relative paths
	Archive(ctx context.Context) ([]string, error)
}

type archiveFile struct {
	name    string
	content []byte
}

type exportServiceImpl struct {
	documents DocumentService
	issuer    export.Issuer
	files     port.FileStorage
	events    EventPublisher
	now       func() time.Time
	logger    Logger
}

// NewExportService creates an ExportService. files may be nil when nothing is written to disk,
// events may be nil when archives need not be announced.
func NewExportService(
	documents DocumentService,
	issuer export.Issuer,
	files port.FileStorage,
	events EventPublisher,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		documents: documents,
		issuer:    issuer,
		files:     files,
		events:    events,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *exportServiceImpl) DocumentsCSV(ctx context.Context, filter ledger.Filter) ([]byte, error) {
	return export.CSV(export.DocumentRecords(s.documents.List(ctx, filter)))
}

func (s *exportServiceImpl) DocumentsWorkbook(ctx context.Context, filter ledger.Filter) ([]byte, error) {
	return export.Workbook(s.documents.List(ctx, filter))
}

func (s *exportServiceImpl) Report(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return export.Report(doc, s.issuer)
}

func (s *exportServiceImpl) Backup(ctx context.Context) (string, []byte, error) {
	snap := s.documents.Snapshot(ctx)
	content, err := export.Backup(snap)
	if err != nil {
		return "", nil, err
	}
	return export.BackupFilename(snap.GeneratedAt), content, nil
}

func (s *exportServiceImpl) PreviewImport(ctx context.Context, register []byte) (export.ImportPreview, error) {
	records, err := export.ParseCSV(register)
	if err != nil {
		return export.ImportPreview{}, err
	}
	preview, err := export.PreviewRegister(records, s.documents.List(ctx, ledger.Filter{}))
	if err != nil {
		return export.ImportPreview{}, err
	}

	s.logger.Info("Register import previewed",
		"rows", len(preview.Rows),
		"differing", preview.Differing,
		"unknown", preview.Unknown)
	return preview, nil
}

func (s *exportServiceImpl) SaveReport(ctx context.Context, id string) (string, error) {
	if s.files == nil {
		return "", fmt.Errorf("save report: no export storage configured")
	}

	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return "", err
	}
	content, err := export.Report(doc, s.issuer)
	if err != nil {
		return "", err
	}

	name := doc.ID
	if slug := utils.SanitizeFilename(doc.ClientName); slug != "" {
		name += "-" + slug
	}
	rel := path.Join("reports", name+".html")

	if err := s.files.Save(ctx, rel, content); err != nil {
		s.logger.Error("Failed to save report", "id", id, "error", err)
		return "", fmt.Errorf("save report %s: %w", id, err)
	}

	s.logger.Info("Report saved", "id", id, "path", rel)
	return rel, nil
}

func (s *exportServiceImpl) Archive(ctx context.Context) ([]string, error) {
	if s.files == nil {
		return nil, fmt.Errorf("archive: no export storage configured")
	}

	snap := s.documents.Snapshot(ctx)
	day := s.now().UTC().Format("2006-01-02")
	dir := path.Join("archive", day)

	backup, err := export.Backup(snap)
	if err != nil {
		return nil, err
	}
	workbook, err := export.Workbook(snap.Data.Documents)
	if err != nil {
		return nil, err
	}
	outputs := []archiveFile{
		{export.BackupFilename(snap.GeneratedAt), backup},
		{"documents-" + day + ".xlsx", workbook},
	}

	// an empty ledger has no CSV register
	if len(snap.Data.Documents) > 0 {
		register, err := export.CSV(export.DocumentRecords(snap.Data.Documents))
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, archiveFile{"documents-" + day + ".csv", register})
	}

	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		rel := path.Join(dir, out.name)
		if err := s.files.Save(ctx, rel, out.content); err != nil {
			s.logger.Error("Failed to write archive file", "path", rel, "error", err)
			return paths, fmt.Errorf("archive %s: %w", rel, err)
		}
		paths = append(paths, rel)
	}

	s.logger.Info("Ledger archived",
		"documents", len(snap.Data.Documents),
		"files", len(paths))

	if s.events != nil {
		s.events.DispatchAsync(ctx, event.NewEvent(event.TypeArchiveWritten, "", map[string]interface{}{
			event.KeyFiles: len(paths),
			event.KeyDir:   dir,
		}))
	}
	return paths, nil
}
