// Package database opens the gorm connection and runs schema migrations.
package database

import (
	"errors"
	"fmt"
	"strings"

	"giveback/models"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects using the given driver ("postgres" or "sqlite") and logs
// failed and slow statements to log.
// sqlite connections always have foreign keys enforced so cascades behave like postgres.
func Open(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(dsn))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s database: %w", driver, err)
	}
	return db, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Migrate runs AutoMigrate model by model so a failure on one doesn't block the others.
// The first failure is returned after every model has been attempted.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	var first error
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			log.Warn("migration warning", zap.String("model", fmt.Sprintf("%T", m)), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
