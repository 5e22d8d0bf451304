package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session statuses.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusPaused    = "paused"
)

// SessionStatuses lists the allowed session status values.
var SessionStatuses = []string{
	SessionStatusActive,
	SessionStatusCompleted,
	SessionStatusPaused,
}

// Session is a story pointing session. The facilitator is set at creation
// and never reassigned.
type Session struct {
	ID            string `gorm:"primaryKey;size:36"`
	Name          string `gorm:"size:200;not null"`
	FacilitatorID string `gorm:"size:36;index;not null"`
	Status        string `gorm:"size:20;index;not null;default:active"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Facilitator  User                 `gorm:"foreignKey:FacilitatorID"`
	Participants []SessionParticipant `gorm:"constraint:OnDelete:CASCADE"`
	Stories      []Story              `gorm:"constraint:OnDelete:CASCADE"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ActiveParticipantCount counts participants with is_active set on a loaded
// participant list.
func (s *Session) ActiveParticipantCount() int {
	n := 0
	for i := range s.Participants {
		if s.Participants[i].IsActive {
			n++
		}
	}
	return n
}
