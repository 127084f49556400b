package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"picking-verification-backend/internal/models"
)

// InitDB opens the Postgres connection. Callers run Migrate once it is open.
func InitDB(cfg DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.PendingBatch{},
		&models.CommitAuditLog{},
		&models.AdminSession{},
		&models.StoreRow{},
		&models.StoreSnapshot{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
