package service

import (
	"errors"
	"strings"
	"time"

	"github.com/censeo-io/censeo-v2/internal/models"

	"gorm.io/gorm"
)

// AuthService implements the mock passwordless login and the persisted
// auth sessions backing logout.
type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

// Login finds or creates a user by email. The stored name is overwritten on
// every call, not just on creation.
func (s *AuthService) Login(name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, validation("Name and email are required")
	}

	first, last := splitName(name)

	var user models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Email:      email,
				FirstName:  first,
				LastName:   last,
				LastActive: time.Now(),
			}
			err = tx.Create(&user).Error
			if err == nil {
				return nil
			}
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			// lost a concurrent first-login race; the row exists now
			if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		user.FirstName = first
		user.LastName = last
		user.LastActive = time.Now()
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// OpenAuthSession persists a revocable login session for the user.
func (s *AuthService) OpenAuthSession(user *models.User, ttl time.Duration) (*models.AuthSession, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	authSession := models.AuthSession{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.DB.Create(&authSession).Error; err != nil {
		return nil, err
	}
	return &authSession, nil
}

// RevokeAuthSession marks a login session revoked. Revoking an unknown id is
// a no-op so logout stays idempotent.
func (s *AuthService) RevokeAuthSession(id string) error {
	return s.DB.Model(&models.AuthSession{}).
		Where("id = ?", id).
		Update("revoked", true).Error
}

// splitName splits a display name on the first space into first/last name.
func splitName(name string) (first, last string) {
	parts := strings.SplitN(name, " ", 2)
	first = parts[0]
	if len(parts) == 2 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}
