package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is identified by email; the display name is overwritten on every login.
type User struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Email      string    `gorm:"size:254;uniqueIndex;not null"`
	FirstName  string    `gorm:"size:150"`
	LastName   string    `gorm:"size:150"`
	CreatedAt  time.Time
	LastActive time.Time `gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// FullName joins first and last name, trimming the gap when one is empty.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
