package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260101000001_add_users_role_index", &AddUsersRoleIndex{})
}

// -------- 0001: users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("users")
}

// -------- 0002: users.role index --------

const usersRoleIndex = "idx_users_role"

type AddUsersRoleIndex struct{}

func (m *AddUsersRoleIndex) Up(db *gorm.DB) error {
	if db.Migrator().HasIndex(&models.User{}, usersRoleIndex) {
		return nil
	}
	return db.Exec("CREATE INDEX " + usersRoleIndex + " ON users (role)").Error
}

func (m *AddUsersRoleIndex) Down(db *gorm.DB) error {
	return db.Migrator().DropIndex(&models.User{}, usersRoleIndex)
}
