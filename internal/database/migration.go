package database

import (
	"fmt"

	"github.com/censeo-io/censeo-v2/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.AuthSession{},
		&models.Session{},
		&models.SessionParticipant{},
		&models.Story{},
		&models.Vote{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
