package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kbdigital/doc-ledger/internal/application/port"
	"github.com/kbdigital/doc-ledger/internal/application/service"
	"github.com/kbdigital/doc-ledger/internal/infrastructure/worker"
	httpAdapter "github.com/kbdigital/doc-ledger/internal/interfaces/http"
	"github.com/kbdigital/doc-ledger/internal/ledger"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database      *DatabaseBundle
	snapshotStore port.SnapshotStore

	// Infrastructure - Storage
	fileStorage port.FileStorage

	// Application
	events   *EventBundle
	ledger   *ledger.Ledger
	services *ServiceBundle
	workers  *worker.WorkerManager

	// Delivery
	server *httpAdapter.Server

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Documents     service.DocumentService
	Exports       service.ExportService
	Notifications service.NotificationService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database (sqlite persistence only)
// 2. Storage
// 3. Snapshot store
// 4. Event dispatcher and notification feed
// 5. Ledger and application services, restoring the last snapshot
// 6. Background workers
// 7. HTTP server (created, not listening)
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database
	if c.config.Ledger.Persistence == PersistenceSQLite {
		if err := c.initDatabase(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		c.logger.Info("Database initialized")
	}

	// Step 2: Initialize storage
	if err := c.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized")

	// Step 3: Select snapshot store
	store, err := ProvideSnapshotStore(&c.config.Ledger, c.database, &StorageBundle{FileStorage: c.fileStorage}, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	c.snapshotStore = store

	// Step 4: Initialize events
	events, err := ProvideEvents(&c.config.Ledger, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize events: %w", err)
	}
	c.events = events

	// Step 5: Initialize ledger and services
	if err := c.initServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized",
		zap.Int("documents", c.ledger.Len()),
		zap.Bool("strict_status", c.ledger.StrictStatus()))

	// Step 6: Start workers
	workers, err := ProvideWorkers(&c.config.Worker, c.services, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	if err := workers.StartAll(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.workers = workers
	c.logger.Info("Workers started", zap.Int("count", workers.GetWorkerCount()))

	// Step 7: Initialize HTTP server
	server, err := ProvideHTTPServer(&c.config.Server, c.services, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}
	server.SetHealthCheck(func() (bool, interface{}) {
		h := c.Health()
		return h.Overall, h.Components
	})
	c.server = server

	c.ready.Store(true)
	c.logger.Info("Container started successfully",
		zap.String("persistence", c.config.Ledger.Persistence))

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	if c.closed.Swap(true) {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Stop HTTP server (reverse of step 7).
	// Runs unlocked: in-flight health checks hold the read lock.
	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()
	if server != nil {
		if err := server.Stop(); err != nil {
			c.logger.Error("Failed to stop http server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Step 2: Stop workers (reverse of step 6)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	// Step 3: Drain pending events (reverse of step 4)
	if c.events != nil {
		if err := c.events.Dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	// Step 4: Close database (reverse of step 1)
	if c.database != nil {
		if err := c.database.Conn.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check database
	switch {
	case c.config.Ledger.Persistence != PersistenceSQLite:
		status.Components["database"] = ComponentHealth{
			Healthy: true,
			Message: "not used by " + c.config.Ledger.Persistence + " persistence",
		}
	case c.database == nil:
		status.Components["database"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	default:
		if err := c.database.Conn.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	}

	// Check ledger
	if c.ledger != nil {
		status.Components["ledger"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("document count: %d", c.ledger.Len()),
		}
	} else {
		status.Components["ledger"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check services
	if c.services != nil {
		status.Components["services"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("unread notifications: %d", c.services.Notifications.UnreadCount(context.Background())),
		}
	} else {
		status.Components["services"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check workers
	switch {
	case c.workers == nil:
		status.Components["workers"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	case c.workers.GetWorkerCount() > 0 && !c.workers.IsRunning():
		status.Components["workers"] = ComponentHealth{
			Healthy: false,
			Message: "stopped",
		}
		status.Overall = false
	default:
		status.Components["workers"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount()),
		}
	}

	return status
}

// initDatabase opens the database and applies migrations using providers.
func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = bundle
	return nil
}

// initStorage initializes file storage.
func (c *Container) initStorage() error {
	bundle, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}

	c.fileStorage = bundle.FileStorage
	return nil
}

// initServices builds the ledger and services, then restores the last saved snapshot.
func (c *Container) initServices(ctx context.Context) error {
	c.ledger = ledger.New(ledger.WithStrictStatus(c.config.Ledger.EnforceStatusTransitions))

	services, err := ProvideServices(&ServiceDeps{
		Ledger:  c.ledger,
		Store:   c.snapshotStore,
		Files:   c.fileStorage,
		Events:  c.events,
		Company: c.config.Company,
		Logger:  c.logger,
	})
	if err != nil {
		return err
	}

	if err := services.Documents.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to restore ledger: %w", err)
	}

	c.services = services
	return nil
}

// Accessor methods for components

// SnapshotStore returns the configured snapshot store, nil for memory persistence.
func (c *Container) SnapshotStore() port.SnapshotStore {
	return c.snapshotStore
}

// FileStorage returns the file storage.
func (c *Container) FileStorage() port.FileStorage {
	return c.fileStorage
}

// Ledger returns the document ledger.
func (c *Container) Ledger() *ledger.Ledger {
	return c.ledger
}

// Workers returns the background worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Server returns the HTTP server.
func (c *Container) Server() *httpAdapter.Server {
	return c.server
}

// Logger returns the logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the service and server Logger interfaces.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Info(msg, fields...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Error(msg, fields...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
