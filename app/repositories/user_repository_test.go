package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
)

func newUserDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func TestUserRepositoryCreateAndFind(t *testing.T) {
	repo := repositories.NewUserRepository(newUserDB(t))
	ctx := context.Background()

	u := &models.User{Name: "Amal", Email: "amal@example.com", Password: "hash", Role: models.RoleAdmin}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	byEmail, err := repo.FindByEmail(ctx, "AMAL@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, models.RoleAdmin, byEmail.Role)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "amal@example.com", byID.Email)

	_, err = repo.FindByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	repo := repositories.NewUserRepository(newUserDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "dup@example.com", Password: "x"}))
	err := repo.Create(ctx, &models.User{Name: "B", Email: "dup@example.com", Password: "y"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}
