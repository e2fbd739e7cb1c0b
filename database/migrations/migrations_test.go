package migrations_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/souq/app/models"
	_ "github.com/shashiranjanraj/souq/database/migrations"
	"github.com/shashiranjanraj/souq/pkg/migration"
)

func TestMigrationsUpAndDown(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	runner := migration.New(db, io.Discard)
	require.NoError(t, runner.Run())

	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasIndex(&models.User{}, "idx_users_role"))

	pending, err := runner.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, runner.Rollback())
	assert.False(t, db.Migrator().HasTable(&models.User{}))
}
