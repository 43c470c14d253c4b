// Package profile implements profile display, update and account deletion.
package profile

import (
	"errors"
	"fmt"

	"giveback/pkg/media"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrAlreadyExists = errors.New("already exists")
)

type Service struct {
	db    *gorm.DB
	media *media.Store
	log   *zap.Logger
}

func NewService(db *gorm.DB, store *media.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, media: store, log: log}
}

// optional loads the single row of T owned by userID, or nil when there is none.
func optional[T any](db *gorm.DB, userID uint) (*T, error) {
	var rec T
	res := db.Where("user_id = ?", userID).Limit(1).Find(&rec)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &rec, nil
}

// notFound converts gorm's missing-record error into ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}
