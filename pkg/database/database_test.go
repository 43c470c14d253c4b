package database

import (
	"fmt"
	"path/filepath"
	"testing"

	"giveback/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSqliteDSN(t *testing.T) {
	require.Equal(t, "a.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("a.db"))
	require.Equal(t, "a.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("a.db?mode=rwc"))
	require.Equal(t, "a.db?_fk=1", sqliteDSN("a.db?_fk=1"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever", zap.NewNop())
	require.Error(t, err)
}

func TestMigrateAndUniqueViolation(t *testing.T) {
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db, zap.NewNop()))

	require.NoError(t, db.Create(&models.User{Username: "alice", HashedPassword: []byte("x")}).Error)
	err = db.Create(&models.User{Username: "alice", HashedPassword: []byte("y")}).Error
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	require.False(t, IsUniqueViolation(nil))
	require.True(t, IsUniqueViolation(fmt.Errorf("save: %w", gorm.ErrDuplicatedKey)))
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
}

func TestForeignKeysCascadeFromUsers(t *testing.T) {
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "fk.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db, zap.NewNop()))

	tables, err := AppTables(db)
	require.NoError(t, err)
	require.Equal(t, "users", tables[0])
	require.Contains(t, tables, "profile_favourite_projects")

	fks, err := ForeignKeys(db, tables...)
	require.NoError(t, err)
	rules := map[string]string{}
	for _, fk := range fks {
		rules[fk.Table+"."+fk.Column+"->"+fk.RefTable] = fk.OnDelete
	}
	require.Equal(t, "CASCADE", rules["profiles.user_id->users"])
	require.Equal(t, "CASCADE", rules["affinity_profiles.user_id->users"])
	require.Equal(t, "CASCADE", rules["mentor_profiles.user_id->users"])
	require.Equal(t, "CASCADE", rules["sessions.user_id->users"])
	require.Equal(t, "CASCADE", rules["uploads.profile_id->profiles"])
	require.Equal(t, "SET NULL", rules["donations.user_id->users"])
	require.Equal(t, "CASCADE", rules["donations.project_id->projects"])
	require.Contains(t, rules, "profile_favourite_projects.profile_id->profiles")
	require.Contains(t, rules, "profile_favourite_projects.project_id->projects")
}

func TestSQLErrorsGoToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "log.db"), zap.New(core))
	require.NoError(t, err)
	require.NoError(t, Migrate(db, zap.NewNop()))

	var u models.User
	require.ErrorIs(t, db.Where("username = ?", "nobody").First(&u).Error, gorm.ErrRecordNotFound)
	require.Zero(t, logs.FilterMessage("sql failed").Len())

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	failed := logs.FilterMessage("sql failed").All()
	require.Len(t, failed, 1)
	require.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	require.Equal(t, "gorm", failed[0].LoggerName)
	require.Contains(t, failed[0].ContextMap()["sql"], "no_such_table")

	// LogMode(Info) traces every statement at debug level
	quiet := logs.Len()
	require.NoError(t, db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Info)}).
		Model(&models.User{}).Count(new(int64)).Error)
	require.Greater(t, logs.Len(), quiet)
	require.NotZero(t, logs.FilterMessage("sql").Len())
}
