package database

import (
	"fmt"

	"github.com/sangkips/seedledger-api/internal/config"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool, zlog *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger:         gormLogger(debug, zlog),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	zlog.Info("connected to PostgreSQL database",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
	)
	return db, nil
}

// Open connects to the database selected by cfg.Driver
func Open(cfg *config.DatabaseConfig, debug bool, zlog *zap.Logger) (*gorm.DB, error) {
	switch cfg.Driver {
	case "postgres", "":
		return NewPostgresDB(cfg, debug, zlog)
	case "sqlite":
		db, err := NewSQLiteDB(cfg.SQLitePath, debug)
		if err != nil {
			return nil, err
		}
		zlog.Info("opened SQLite database", zap.String("path", cfg.SQLitePath))
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, zlog *zap.Logger) error {
	zlog.Info("running database migrations")

	err := db.AutoMigrate(
		// Catalog
		&entity.Client{},
		&entity.Product{},
		&entity.Stock{},

		// Ledgers
		&entity.StockMovement{},
		&entity.OverpaymentTransaction{},

		// Transaction entities
		&entity.Sale{},
		&entity.SaleItem{},
		&entity.ReceiptCounter{},
		&entity.Payment{},
		&entity.SaleReturn{},
		&entity.SaleReturnItem{},
		&entity.WriteOff{},
		&entity.Production{},

		// System entities
		&entity.IdempotencyKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	zlog.Info("database migrations completed")
	return nil
}
