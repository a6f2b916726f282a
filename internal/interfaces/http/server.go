// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbdigital/doc-ledger/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxBodyBytes caps request bodies, restore uploads included
	MaxBodyBytes int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MaxBodyBytes: 10 << 20,
	}
}

// HealthFunc reports overall health and per-component detail for GET /health
type HealthFunc func() (healthy bool, components interface{})

// Server is the HTTP server adapter
type Server struct {
	config              ServerConfig
	httpServer          *http.Server
	router              *gin.Engine
	handlers            *Handlers
	documentService     service.DocumentService
	exportService       service.ExportService
	notificationService service.NotificationService
	logger              Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	documentService service.DocumentService,
	exportService service.ExportService,
	notificationService service.NotificationService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:              config,
		router:              gin.New(),
		documentService:     documentService,
		exportService:       exportService,
		notificationService: notificationService,
		logger:              logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	if s.config.MaxBodyBytes > 0 {
		s.router.Use(s.bodyLimitMiddleware(s.config.MaxBodyBytes))
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) bodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.documentService, s.exportService, s.notificationService, s.logger)
	s.handlers = handlers

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		api.GET("/documents", handlers.ListDocuments)
		api.POST("/documents", handlers.CreateDocument)
		api.POST("/documents/overdue", handlers.MarkOverdue)
		api.GET("/documents/:id", handlers.GetDocument)
		api.POST("/documents/:id/convert", handlers.ConvertDocument)
		api.PUT("/documents/:id/status", handlers.SetStatus)
		api.GET("/documents/:id/print", handlers.PrintDocument)
		api.POST("/documents/:id/report", handlers.SaveReport)

		api.GET("/totals", handlers.Totals)

		api.GET("/export/documents.csv", handlers.ExportCSV)
		api.GET("/export/documents.xlsx", handlers.ExportWorkbook)
		api.GET("/backup", handlers.Backup)
		api.POST("/restore", handlers.Restore)
		api.POST("/import/preview", handlers.PreviewImport)
		api.POST("/archive", handlers.Archive)

		api.GET("/notifications", handlers.ListNotifications)
		api.POST("/notifications/read-all", handlers.MarkAllNotificationsRead)
		api.POST("/notifications/:id/read", handlers.MarkNotificationRead)
		api.DELETE("/notifications/:id", handlers.RemoveNotification)
	}
}

// SetHealthCheck adds component health to GET /health. Call it before Start.
func (s *Server) SetHealthCheck(fn HealthFunc) {
	s.handlers.health = fn
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
