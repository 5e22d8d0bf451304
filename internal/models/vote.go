package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VotePoints is the Fibonacci scale for story estimation, plus "?" for unknown.
var VotePoints = []string{"1", "2", "3", "5", "8", "13", "21", "?"}

// Vote is one user's point estimate for one story. At most one vote exists
// per (story, user); re-votes replace the prior estimate.
type Vote struct {
	ID        string `gorm:"primaryKey;size:36"`
	StoryID   string `gorm:"size:36;uniqueIndex:idx_story_user;not null"`
	UserID    string `gorm:"size:36;uniqueIndex:idx_story_user;not null"`
	Points    string `gorm:"size:10;not null"`
	CreatedAt time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
