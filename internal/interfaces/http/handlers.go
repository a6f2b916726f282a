package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbdigital/doc-ledger/internal/application/service"
	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/export"
	"github.com/kbdigital/doc-ledger/internal/ledger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	documentService     service.DocumentService
	exportService       service.ExportService
	notificationService service.NotificationService
	logger              Logger
	health              HealthFunc
	now                 func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	documentService service.DocumentService,
	exportService service.ExportService,
	notificationService service.NotificationService,
	logger Logger,
) *Handlers {
	return &Handlers{
		documentService:     documentService,
		exportService:       exportService,
		notificationService: notificationService,
		logger:              logger,
		now:                 time.Now,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Documents  int         `json:"documents"`
	Components interface{} `json:"components,omitempty"`
}

// DocumentDetail is a document together with the statuses it may move to
type DocumentDetail struct {
	Document          entity.Document `json:"document"`
	PermittedStatuses []entity.Status `json:"permittedStatuses"`
}

// NotificationFeed is the body of GET /api/notifications
type NotificationFeed struct {
	Unread        int                   `json:"unread"`
	Notifications []entity.Notification `json:"notifications"`
}

// ArchiveResponse lists the files written by POST /api/archive
type ArchiveResponse struct {
	Files []string `json:"files"`
}

// ListDocumentsRequest represents query parameters for listing documents
type ListDocumentsRequest struct {
	Kind  string `form:"kind"`
	Query string `form:"q"`
	Order string `form:"order"`
}

// ConvertRequest is the body of POST /api/documents/:id/convert
type ConvertRequest struct {
	Target entity.Kind `json:"target" binding:"required"`
}

// StatusRequest is the body of PUT /api/documents/:id/status
type StatusRequest struct {
	Status entity.Status `json:"status" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	t := h.documentService.Totals(c.Request.Context())
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
		Documents: t.QuotationCount + t.InvoiceCount + t.ReceiptCount,
	}

	code := http.StatusOK
	if h.health != nil {
		healthy, components := h.health()
		resp.Components = components
		if !healthy {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, Response{Success: code == http.StatusOK, Data: resp})
}

// ListDocuments handles GET /api/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.documentService.List(c.Request.Context(), filter),
	})
}

// CreateDocument handles POST /api/documents
func (h *Handlers) CreateDocument(c *gin.Context) {
	var req ledger.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	doc, err := h.documentService.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "failed to create document")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	doc, err := h.documentService.Get(ctx, id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve document")
		return
	}
	next, err := h.documentService.NextStatuses(ctx, id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve document")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    DocumentDetail{Document: doc, PermittedStatuses: next},
	})
}

// ConvertDocument handles POST /api/documents/:id/convert
func (h *Handlers) ConvertDocument(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "target kind is required")
		return
	}

	doc, err := h.documentService.Convert(c.Request.Context(), c.Param("id"), req.Target)
	if err != nil {
		h.writeError(c, err, "failed to convert document")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// SetStatus handles PUT /api/documents/:id/status
func (h *Handlers) SetStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	doc, err := h.documentService.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err, "failed to update status")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// MarkOverdue handles POST /api/documents/overdue
func (h *Handlers) MarkOverdue(c *gin.Context) {
	changed, err := h.documentService.MarkOverdue(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "failed to mark overdue invoices")
		return
	}
	if changed == nil {
		changed = []entity.Document{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: changed})
}

// PrintDocument handles GET /api/documents/:id/print
func (h *Handlers) PrintDocument(c *gin.Context) {
	html, err := h.exportService.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to render document")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// SaveReport handles POST /api/documents/:id/report
func (h *Handlers) SaveReport(c *gin.Context) {
	rel, err := h.exportService.SaveReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to save report")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: gin.H{"path": rel}})
}

// Totals handles GET /api/totals
func (h *Handlers) Totals(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.documentService.Totals(c.Request.Context()),
	})
}

// ExportCSV handles GET /api/export/documents.csv
func (h *Handlers) ExportCSV(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	content, err := h.exportService.DocumentsCSV(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err, "failed to export documents")
		return
	}

	h.attachment(c, "documents-"+h.today()+".csv", "text/csv; charset=utf-8", content)
}

// ExportWorkbook handles GET /api/export/documents.xlsx
func (h *Handlers) ExportWorkbook(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	content, err := h.exportService.DocumentsWorkbook(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err, "failed to export documents")
		return
	}

	h.attachment(c, "documents-"+h.today()+".xlsx", xlsxContentType, content)
}

// Backup handles GET /api/backup
func (h *Handlers) Backup(c *gin.Context) {
	name, content, err := h.exportService.Backup(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "failed to create backup")
		return
	}

	h.attachment(c, name, "application/json", content)
}

// Restore handles POST /api/restore with a backup file as the body
func (h *Handlers) Restore(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "failed to read backup")
		return
	}

	snap, err := export.ReadBackup(body)
	if errors.Is(err, ledger.ErrValidation) {
		h.writeError(c, err, "backup is incomplete")
		return
	}
	if err != nil {
		badRequest(c, "backup is not valid JSON")
		return
	}

	ctx := c.Request.Context()
	if err := h.documentService.Restore(ctx, snap); err != nil {
		h.writeError(c, err, "failed to restore backup")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.documentService.Totals(ctx),
	})
}

// PreviewImport handles POST /api/import/preview with a CSV register as the body
func (h *Handlers) PreviewImport(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "failed to read register")
		return
	}

	preview, err := h.exportService.PreviewImport(c.Request.Context(), body)
	if err != nil {
		h.writeError(c, err, "failed to preview import")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: preview})
}

// Archive handles POST /api/archive
func (h *Handlers) Archive(c *gin.Context) {
	files, err := h.exportService.Archive(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "failed to write archive")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: ArchiveResponse{Files: files}})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: NotificationFeed{
			Unread:        h.notificationService.UnreadCount(ctx),
			Notifications: h.notificationService.List(ctx),
		},
	})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "failed to update notification")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	marked := h.notificationService.MarkAllRead(c.Request.Context())
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"marked": marked}})
}

// RemoveNotification handles DELETE /api/notifications/:id
func (h *Handlers) RemoveNotification(c *gin.Context) {
	if err := h.notificationService.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "failed to remove notification")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handlers) bindFilter(c *gin.Context) (ledger.Filter, bool) {
	var req ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return ledger.Filter{}, false
	}

	filter := ledger.Filter{Kind: entity.Kind(req.Kind), Search: req.Query}
	if req.Kind != "" && !filter.Kind.IsValid() {
		badRequest(c, "unknown document kind")
		return ledger.Filter{}, false
	}

	switch req.Order {
	case "", "newest":
		filter.Order = ledger.NewestFirst
	case "created":
		filter.Order = ledger.CreatedOrder
	default:
		badRequest(c, "order must be newest or created")
		return ledger.Filter{}, false
	}
	return filter, true
}

func (h *Handlers) today() string {
	return h.now().UTC().Format("2006-01-02")
}

func (h *Handlers) attachment(c *gin.Context, filename, contentType string, content []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, content)
}

// writeError maps ledger errors onto HTTP statuses. Validation and transition
// messages are safe to show; anything else is logged and replaced by fallback.
func (h *Handlers) writeError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ledger.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ledger.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, ledger.ErrInvalidTransition):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, export.ErrMalformedCSV):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, export.ErrNoData):
		status, message = http.StatusNotFound, "no documents to export"
	case errors.Is(err, service.ErrNotificationNotFound):
		status, message = http.StatusNotFound, err.Error()
	default:
		h.logger.Error(fallback, "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(status, Response{Success: false, Error: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}
