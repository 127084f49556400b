package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"picking-verification-backend/internal/models"
)

func TestMigrate_CreatesTablesAndIsRepeatable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	for _, model := range []any{
		&models.PendingBatch{},
		&models.CommitAuditLog{},
		&models.AdminSession{},
		&models.StoreRow{},
		&models.StoreSnapshot{},
	} {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}
	assert.True(t, db.Migrator().HasColumn(&models.PendingBatch{}, "ConflictKeys"))
}
