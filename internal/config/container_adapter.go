package config

import (
	"github.com/kbdigital/doc-ledger/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Ledger: container.LedgerConfig{
			EnforceStatusTransitions: c.Ledger.EnforceStatusTransitions,
			Persistence:              c.Ledger.Persistence,
			SnapshotPath:             c.Ledger.SnapshotPath,
			NotificationLimit:        c.Ledger.NotificationLimit,
		},
		Company: container.CompanyConfig{
			Name:          c.Company.Name,
			Address:       c.Company.Address,
			Phone:         c.Company.Phone,
			Email:         c.Company.Email,
			BankName:      c.Company.BankName,
			AccountName:   c.Company.AccountName,
			AccountNumber: c.Company.AccountNumber,
		},
		Storage: container.StorageConfig{
			OutputDir: c.Export.OutputDir,
		},
		Worker: container.WorkerConfig{
			OverdueCheckInterval: c.Ledger.OverdueCheckInterval,
			ArchiveInterval:      c.Export.ArchiveInterval,
			ArchiveTimeout:       c.Export.ArchiveTimeout,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			MaxBodyBytes: c.Server.MaxBodyBytes,
		},
	}
}
