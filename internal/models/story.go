package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Story statuses.
const (
	StoryStatusPending   = "pending"
	StoryStatusVoting    = "voting"
	StoryStatusCompleted = "completed"
)

// StoryStatuses lists the allowed story status values.
var StoryStatuses = []string{
	StoryStatusPending,
	StoryStatusVoting,
	StoryStatusCompleted,
}

// Story is an estimable work item scoped to one session. No two stories in
// the same session share an order value.
type Story struct {
	ID          string `gorm:"primaryKey;size:36"`
	SessionID   string `gorm:"size:36;uniqueIndex:idx_session_order;not null"`
	Title       string `gorm:"size:500;not null"`
	Description string `gorm:"type:text"`
	StoryOrder  int    `gorm:"uniqueIndex:idx_session_order;not null"`
	Status      string `gorm:"size:20;not null;default:pending"`
	CreatedAt   time.Time

	Votes []Vote `gorm:"constraint:OnDelete:CASCADE"`
}

func (s *Story) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
