// Package container provides dependency injection and lifecycle management
// for the document ledger following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Persistence backends understood by ProvideSnapshotStore
const (
	PersistenceSQLite = "sqlite"
	PersistenceFile   = "file"
	PersistenceMemory = "memory"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Ledger behaviour and persistence
	Ledger LedgerConfig

	// Issuer identity printed on reports
	Company CompanyConfig

	// Storage configuration
	Storage StorageConfig

	// Server configuration
	Server ServerConfig

	// Worker configuration
	Worker WorkerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// LedgerConfig holds document ledger settings.
type LedgerConfig struct {
	// EnforceStatusTransitions switches SetStatus to the strict workflow
	EnforceStatusTransitions bool

	// Persistence is one of sqlite, file or memory
	Persistence string

	// SnapshotPath is the snapshot file, relative to Storage.OutputDir
	SnapshotPath string

	// NotificationLimit caps the notification feed
	NotificationLimit int
}

// CompanyConfig holds the issuer identity.
type CompanyConfig struct {
	Name          string
	Address       string
	Phone         string
	Email         string
	BankName      string
	AccountName   string
	AccountNumber string
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// OutputDir is the base directory for exports, archives and the snapshot file
	OutputDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration

	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64
}

// WorkerConfig holds background worker settings. A zero interval disables the worker.
type WorkerConfig struct {
	OverdueCheckInterval time.Duration
	ArchiveInterval      time.Duration
	ArchiveTimeout       time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/ledger.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Ledger: LedgerConfig{
			Persistence:       PersistenceSQLite,
			SnapshotPath:      "ledger.json",
			NotificationLimit: 50,
		},
		Company: CompanyConfig{
			Name: "KB Digital",
		},
		Storage: StorageConfig{
			OutputDir: "data/exports",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 10 << 20,
		},
		Worker: WorkerConfig{
			OverdueCheckInterval: time.Hour,
			ArchiveInterval:      24 * time.Hour,
			ArchiveTimeout:       2 * time.Minute,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Ledger.Persistence {
	case PersistenceSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case PersistenceFile:
		if c.Ledger.SnapshotPath == "" {
			return fmt.Errorf("ledger.snapshot_path is required")
		}
	case PersistenceMemory:
	default:
		return fmt.Errorf("unknown ledger persistence %q", c.Ledger.Persistence)
	}

	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}
	if c.Company.Name == "" {
		return fmt.Errorf("company.name is required")
	}

	return nil
}
