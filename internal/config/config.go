package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/kbdigital/doc-ledger/pkg/utils"
)

// Persistence backends for the ledger snapshot
const (
	PersistenceSQLite = "sqlite"
	PersistenceFile   = "file"
	PersistenceMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Company  CompanyConfig  `mapstructure:"company"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// LedgerConfig holds document ledger behaviour and persistence settings
type LedgerConfig struct {
	EnforceStatusTransitions bool   `mapstructure:"enforce_status_transitions"`
	Persistence              string `mapstructure:"persistence"`
	// SnapshotPath is relative to export.output_dir when persistence is "file"
	SnapshotPath string `mapstructure:"snapshot_path"`
	// OverdueCheckInterval is how often sent invoices are checked against their due date; 0 disables
	OverdueCheckInterval time.Duration `mapstructure:"overdue_check_interval"`
	// NotificationLimit is the number of notifications kept in the feed
	NotificationLimit int `mapstructure:"notification_limit"`
}

// CompanyConfig is the issuer identity printed on reports
type CompanyConfig struct {
	Name          string `mapstructure:"name"`
	Address       string `mapstructure:"address"`
	Phone         string `mapstructure:"phone"`
	Email         string `mapstructure:"email"`
	BankName      string `mapstructure:"bank_name"`
	AccountName   string `mapstructure:"account_name"`
	AccountNumber string `mapstructure:"account_number"`
}

// ExportConfig holds settings for files written by the export service
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	// ArchiveInterval is how often a dated archive is written; 0 disables
	ArchiveInterval time.Duration `mapstructure:"archive_interval"`
	ArchiveTimeout  time.Duration `mapstructure:"archive_timeout"`
}

// Load loads configuration from file, .env and environment variables.
// An empty configPath skips the file and relies on defaults and environment.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 10<<20)

	// Database defaults
	v.SetDefault("database.path", "data/ledger.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Ledger defaults
	v.SetDefault("ledger.enforce_status_transitions", false)
	v.SetDefault("ledger.persistence", PersistenceSQLite)
	v.SetDefault("ledger.snapshot_path", "ledger.json")
	v.SetDefault("ledger.overdue_check_interval", time.Hour)
	v.SetDefault("ledger.notification_limit", 50)

	// Company defaults
	v.SetDefault("company.name", "KB Digital")
	for _, key := range []string{"address", "phone", "email", "bank_name", "account_name", "account_number"} {
		v.SetDefault("company."+key, "")
	}

	// Export defaults
	v.SetDefault("export.output_dir", "data/exports")
	v.SetDefault("export.archive_interval", 24*time.Hour)
	v.SetDefault("export.archive_timeout", 2*time.Minute)
}

// bindEnvVars binds the company identity to unprefixed variables commonly kept in .env
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("company.name", "LEDGER_COMPANY_NAME", "COMPANY_NAME")
	_ = v.BindEnv("company.email", "LEDGER_COMPANY_EMAIL", "COMPANY_EMAIL")
	_ = v.BindEnv("company.phone", "LEDGER_COMPANY_PHONE", "COMPANY_PHONE")
	_ = v.BindEnv("company.bank_name", "LEDGER_COMPANY_BANK_NAME", "COMPANY_BANK_NAME")
	_ = v.BindEnv("company.account_name", "LEDGER_COMPANY_ACCOUNT_NAME", "COMPANY_ACCOUNT_NAME")
	_ = v.BindEnv("company.account_number", "LEDGER_COMPANY_ACCOUNT_NUMBER", "COMPANY_ACCOUNT_NUMBER")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}

	switch c.Ledger.Persistence {
	case PersistenceSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite persistence")
		}
	case PersistenceFile:
		if c.Ledger.SnapshotPath == "" {
			return fmt.Errorf("ledger.snapshot_path is required for file persistence")
		}
		if c.Export.OutputDir == "" {
			return fmt.Errorf("export.output_dir is required for file persistence")
		}
	case PersistenceMemory:
	default:
		return fmt.Errorf("ledger.persistence must be one of sqlite, file, memory, got %q", c.Ledger.Persistence)
	}

	if c.Ledger.OverdueCheckInterval < 0 {
		return fmt.Errorf("ledger.overdue_check_interval must not be negative")
	}
	if c.Ledger.NotificationLimit <= 0 {
		return fmt.Errorf("ledger.notification_limit must be positive")
	}
	if c.Export.ArchiveInterval < 0 {
		return fmt.Errorf("export.archive_interval must not be negative")
	}
	if c.Export.ArchiveInterval > 0 && c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required for scheduled archives")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	if c.Company.Name == "" {
		return fmt.Errorf("company.name is required")
	}
	if c.Company.Email != "" {
		if err := utils.ValidateEmail(c.Company.Email); err != nil {
			return fmt.Errorf("company.email: %w", err)
		}
	}

	return nil
}
