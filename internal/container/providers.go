package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kbdigital/doc-ledger/internal/application/dispatcher"
	"github.com/kbdigital/doc-ledger/internal/application/port"
	"github.com/kbdigital/doc-ledger/internal/application/service"
	"github.com/kbdigital/doc-ledger/internal/domain/event"
	"github.com/kbdigital/doc-ledger/internal/export"
	"github.com/kbdigital/doc-ledger/internal/infrastructure/persistence/sqlite"
	"github.com/kbdigital/doc-ledger/internal/infrastructure/storage"
	"github.com/kbdigital/doc-ledger/internal/infrastructure/worker"
	httpAdapter "github.com/kbdigital/doc-ledger/internal/interfaces/http"
	"github.com/kbdigital/doc-ledger/internal/ledger"
	"github.com/kbdigital/doc-ledger/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	FileStorage port.FileStorage
}

// ProvideDatabase opens the SQLite database and runs pending migrations.
// Returns DatabaseBundle containing the connection and TransactionManager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(conn, logger).Run(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideStorage creates the file storage rooted at the export output directory.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &StorageBundle{
		FileStorage: storage.NewLocalFileStorage(cfg.OutputDir, logger),
	}, nil
}

// ProvideSnapshotStore selects the snapshot backend for the configured persistence mode.
// Memory persistence returns a nil store.
func ProvideSnapshotStore(cfg *LedgerConfig, db *DatabaseBundle, storageBundle *StorageBundle, logger *zap.Logger) (port.SnapshotStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ledger config is required")
	}

	switch cfg.Persistence {
	case PersistenceSQLite:
		if db == nil {
			return nil, fmt.Errorf("database is required for sqlite persistence")
		}
		return sqlite.NewSnapshotStore(db.TransactionMgr, logger), nil
	case PersistenceFile:
		if storageBundle == nil {
			return nil, fmt.Errorf("storage is required for file persistence")
		}
		return storage.NewJSONSnapshotStore(storageBundle.FileStorage, cfg.SnapshotPath, logger), nil
	case PersistenceMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ledger persistence %q", cfg.Persistence)
	}
}

// EventBundle holds the event dispatcher and the notification feed subscribed to it.
type EventBundle struct {
	Dispatcher    dispatcher.Dispatcher
	Notifications service.NotificationService
}

// ProvideEvents creates the dispatcher and subscribes the notification feed to every event type.
func ProvideEvents(cfg *LedgerConfig, logger *zap.Logger) (*EventBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ledger config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	adapter := &zapLoggerAdapter{logger: logger}
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(adapter))
	notifications := service.NewNotificationService(cfg.NotificationLimit, adapter)

	for _, t := range event.Types {
		d.SubscribeNamed(t, "notifications", notifications.HandleEvent)
	}

	return &EventBundle{
		Dispatcher:    d,
		Notifications: notifications,
	}, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Ledger  *ledger.Ledger
	Store   port.SnapshotStore
	Files   port.FileStorage
	Events  *EventBundle
	Company CompanyConfig
	Logger  *zap.Logger
}

// ProvideServices creates all application services.
// Returns ServiceBundle containing all service implementations.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if deps.Events == nil {
		return nil, fmt.Errorf("events are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	// Create logger adapter for services
	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	documents := service.NewDocumentService(deps.Ledger, deps.Store, deps.Events.Dispatcher, serviceLogger)
	return &ServiceBundle{
		Documents:     documents,
		Exports:       service.NewExportService(documents, issuerFrom(deps.Company), deps.Files, deps.Events.Dispatcher, serviceLogger),
		Notifications: deps.Events.Notifications,
	}, nil
}

// ProvideWorkers registers the background workers enabled by cfg.
// A zero interval leaves the worker out.
func ProvideWorkers(cfg *WorkerConfig, services *ServiceBundle, logger *zap.Logger) (*worker.WorkerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	manager := worker.NewWorkerManager(logger)
	if cfg.OverdueCheckInterval > 0 {
		manager.Register(worker.NewOverdueWorker(cfg.OverdueCheckInterval, services.Documents, logger))
	}
	if cfg.ArchiveInterval > 0 {
		manager.Register(worker.NewArchiveWorker(cfg.ArchiveInterval, cfg.ArchiveTimeout, services.Exports, logger))
	}
	return manager, nil
}

// ProvideHTTPServer creates the HTTP adapter over the application services.
func ProvideHTTPServer(cfg *ServerConfig, services *ServiceBundle, logger *zap.Logger) (*httpAdapter.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	serverCfg := httpAdapter.DefaultServerConfig()
	serverCfg.Host = cfg.Host
	serverCfg.Port = cfg.Port
	if cfg.ReadTimeout > 0 {
		serverCfg.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		serverCfg.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.MaxBodyBytes > 0 {
		serverCfg.MaxBodyBytes = cfg.MaxBodyBytes
	}

	return httpAdapter.NewServer(serverCfg, services.Documents, services.Exports, services.Notifications, &zapLoggerAdapter{logger: logger}), nil
}

func issuerFrom(c CompanyConfig) export.Issuer {
	return export.Issuer{
		Name:          c.Name,
		Address:       c.Address,
		Phone:         c.Phone,
		Email:         c.Email,
		BankName:      c.BankName,
		AccountName:   c.AccountName,
		AccountNumber: c.AccountNumber,
	}
}
