package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront-customizer/database"
	"storefront-customizer/internal/domain/layout"
)

// DB returns a migrated SQLite database living in the test's temp dir.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "customizer.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedStore inserts a store and returns it.
func SeedStore(t *testing.T, db *gorm.DB, name string) layout.Store {
	t.Helper()
	s := layout.Store{Name: name, Slug: layout.MakeSlug(name)}
	require.NoError(t, db.Create(&s).Error)
	return s
}
