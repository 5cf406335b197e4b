package database_test

import (
	"testing"

	"instore-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabaseSqlite(t *testing.T) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	// Migrations ran: all tables exist and accept rows.
	user := database.User{Id: uuid.New(), Email: "a@b.com", PasswordHash: "x", Role: database.RoleStore}
	require.NoError(t, db.Create(&user).Error)

	category := database.Category{Id: uuid.New(), Name: "Fashion"}
	require.NoError(t, db.Create(&category).Error)

	var count int64
	require.NoError(t, db.Model(&database.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewDatabaseSqlitePrefix(t *testing.T) {
	_, err := database.NewDatabase("sqlite://file::memory:")
	assert.NoError(t, err)
}

func TestCategoryCascadeDeletesProducts(t *testing.T) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	category := database.Category{Id: uuid.New(), Name: "Fashion"}
	require.NoError(t, db.Create(&category).Error)

	product := database.Product{Id: uuid.New(), Name: "Sneakers", CategoryId: category.Id}
	require.NoError(t, db.Create(&product).Error)

	require.NoError(t, db.Delete(&category).Error)

	var count int64
	require.NoError(t, db.Model(&database.Product{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
