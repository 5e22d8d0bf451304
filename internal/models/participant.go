package models

import "time"

// SessionParticipant pairs a session with a user. At most one record exists
// per (session, user); rejoining reactivates the existing record.
type SessionParticipant struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID string    `gorm:"size:36;uniqueIndex:idx_session_user;not null"`
	UserID    string    `gorm:"size:36;uniqueIndex:idx_session_user;not null"`
	JoinedAt  time.Time `gorm:"index;not null"`
	IsActive  bool      `gorm:"not null;default:true"` // cleared on leave, record retained

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
