package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"giveback/models"
	"giveback/pkg/config"
	"giveback/pkg/database"
	"giveback/pkg/media"
	"giveback/pkg/profile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB(cfg config.Config) error {
	var err error
	db, err = database.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	// DB_AUTO_MIGRATE=false leaves the schema to the operator.
	if cfg.AutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			return err
		}
	}
	if err := seedDB(cfg.AdminPassword, cfg.UploadBase); err != nil {
		return err
	}
	return nil
}

// seedDB creates the admin account when ADMIN_PASSWORD is set and it does
// not exist yet, and makes sure the upload directory exists.
func seedDB(adminPassword, uploadBase string) error {
	if adminPassword != "" {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", "admin").Count(&count).Error; err != nil {
			return fmt.Errorf("check admin user: %w", err)
		}
		if count == 0 {
			svc := profile.NewService(db, media.NewStore(uploadBase), logger)
			_, err := svc.CreateAccount(context.Background(), "admin", "admin@example.com", adminPassword)
			switch {
			case errors.Is(err, profile.ErrUsernameTaken):
				// created concurrently by another instance
			case err != nil:
				return fmt.Errorf("seed admin: %w", err)
			default:
				logger.Info("seeded admin user", zap.String("username", "admin"))
			}
		}
	}
	ensureUploadBase(uploadBase)
	return nil
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase(base string) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		logger.Warn("failed to create upload base dir", zap.String("dir", base), zap.Error(err))
	}
}
