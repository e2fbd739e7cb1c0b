package migration

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type widget struct {
	ID   uint
	Name string
}

type createWidgets struct{}

func (createWidgets) Up(db *gorm.DB) error   { return db.AutoMigrate(&widget{}) }
func (createWidgets) Down(db *gorm.DB) error { return db.Migrator().DropTable(&widget{}) }

func newRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	return &Runner{
		db:         db,
		out:        &out,
		migrations: []Entry{{Name: "20260101000000_create_widgets", M: createWidgets{}}},
	}, &out
}

func TestRunAppliesPendingOnce(t *testing.T) {
	r, out := newRunner(t)

	require.NoError(t, r.Run())
	assert.True(t, r.db.Migrator().HasTable(&widget{}))
	assert.Contains(t, out.String(), "Migrated:  20260101000000_create_widgets")

	out.Reset()
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "Nothing to migrate.")

	pending, err := r.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRollbackRevertsLastBatch(t *testing.T) {
	r, out := newRunner(t)
	require.NoError(t, r.Run())

	require.NoError(t, r.Rollback())
	assert.False(t, r.db.Migrator().HasTable(&widget{}))

	out.Reset()
	require.NoError(t, r.Rollback())
	assert.Contains(t, out.String(), "Nothing to roll back.")
}

func TestStatusListsPending(t *testing.T) {
	r, out := newRunner(t)
	require.NoError(t, r.Status())
	assert.Contains(t, out.String(), "Pending")
}
