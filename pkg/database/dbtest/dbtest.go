// Package dbtest provides a migrated throwaway sqlite database for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"giveback/pkg/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New opens a fresh sqlite database under t.TempDir() with every model migrated.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
