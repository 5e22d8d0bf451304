package service

import (
	"errors"
	"strings"
	"time"

	"github.com/censeo-io/censeo-v2/internal/models"
	"github.com/censeo-io/censeo-v2/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JoinOutcome distinguishes the three success paths of Join.
type JoinOutcome int

const (
	Joined JoinOutcome = iota + 1
	AlreadyJoined
	Rejoined
)

// SessionService implements session lifecycle and membership policy. Every
// operation takes the acting user explicitly.
type SessionService struct {
	DB *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{DB: db}
}

// Create validates the name and creates a session with actingUser as
// facilitator, auto-enrolled as an active participant in the same transaction.
func (s *SessionService) Create(actingUser *models.User, name string) (*models.Session, error) {
	name = strings.TrimSpace(name)
	if err := util.ValidateSessionName(name); err != nil {
		return nil, validation(capitalize(err.Error()))
	}

	session := models.Session{
		Name:          name,
		FacilitatorID: actingUser.ID,
		Status:        models.SessionStatusActive,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		participant := models.SessionParticipant{
			SessionID: session.ID,
			UserID:    actingUser.ID,
			JoinedAt:  time.Now(),
			IsActive:  true,
		}
		return tx.Create(&participant).Error
	})
	if err != nil {
		return nil, err
	}
	return s.load(session.ID)
}

// List returns the sessions actingUser has any participant record for,
// newest first. The (session, user) uniqueness constraint keeps the join
// free of duplicates.
func (s *SessionService) List(actingUser *models.User) ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.
		Joins("JOIN session_participants sp ON sp.session_id = sessions.id").
		Where("sp.user_id = ?", actingUser.ID).
		Order("sessions.created_at DESC").
		Preload("Facilitator").
		Preload("Participants", participantOrder).
		Preload("Participants.User").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Get returns session detail for a participant. Absent or malformed ids are
// NotFound; an existing session the caller never joined is Forbidden.
func (s *SessionService) Get(sessionID string, actingUser *models.User) (*models.Session, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	participant, err := s.participantOf(session.ID, actingUser.ID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, forbidden("You do not have access to this session.")
	}
	return s.load(session.ID)
}

// Join adds actingUser to the session. Joining twice is idempotent and a
// previously left participant is reactivated; a concurrent duplicate create
// is treated as "already exists", not an error.
func (s *SessionService) Join(sessionID string, actingUser *models.User) (*models.Session, *models.SessionParticipant, JoinOutcome, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, nil, 0, err
	}
	if session.Status == models.SessionStatusCompleted {
		return nil, nil, 0, invalidState("Cannot join a completed session.")
	}

	var (
		participant models.SessionParticipant
		outcome     JoinOutcome
	)
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("session_id = ? AND user_id = ?", session.ID, actingUser.ID).
			First(&participant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			participant = models.SessionParticipant{
				SessionID: session.ID,
				UserID:    actingUser.ID,
				JoinedAt:  time.Now(),
				IsActive:  true,
			}
			err = tx.Create(&participant).Error
			if err == nil {
				outcome = Joined
				return nil
			}
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			// another request joined first; fall through to the existing record
			if err := tx.Where("session_id = ? AND user_id = ?", session.ID, actingUser.ID).
				First(&participant).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if participant.IsActive {
			outcome = AlreadyJoined
			return nil
		}
		participant.IsActive = true
		outcome = Rejoined
		return tx.Model(&models.SessionParticipant{}).
			Where("id = ?", participant.ID).
			Update("is_active", true).Error
	})
	if err != nil {
		return nil, nil, 0, err
	}

	loaded, err := s.load(session.ID)
	if err != nil {
		return nil, nil, 0, err
	}
	return loaded, &participant, outcome, nil
}

// Leave marks actingUser's participant record inactive. The record is kept
// so the user can rejoin later. Facilitators cannot leave their own session.
func (s *SessionService) Leave(sessionID string, actingUser *models.User) (*models.Session, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	participant, err := s.participantOf(session.ID, actingUser.ID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, invalidState("You are not a participant in this session.")
	}
	if session.FacilitatorID == actingUser.ID {
		return nil, forbidden("Facilitators cannot leave their own sessions.")
	}

	participant.IsActive = false
	err = s.DB.Model(&models.SessionParticipant{}).
		Where("id = ?", participant.ID).
		Update("is_active", false).Error
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateStatus sets the session status. Facilitator only.
func (s *SessionService) UpdateStatus(sessionID string, actingUser *models.User, status string) (*models.Session, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.FacilitatorID != actingUser.ID {
		return nil, forbidden("Only the session facilitator can update session status.")
	}
	if err := util.ValidateSessionStatus(status); err != nil {
		return nil, validation("Invalid status. Valid options: active, completed, paused")
	}

	session.Status = status
	if err := s.DB.Model(session).Update("status", status).Error; err != nil {
		return nil, err
	}
	return s.load(session.ID)
}

// Participants returns the active participants of a session, oldest join
// first. Requires a participant record for the caller.
func (s *SessionService) Participants(sessionID string, actingUser *models.User) (*models.Session, []models.SessionParticipant, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, nil, err
	}
	caller, err := s.participantOf(session.ID, actingUser.ID)
	if err != nil {
		return nil, nil, err
	}
	if caller == nil {
		return nil, nil, forbidden("You do not have access to this session.")
	}

	var participants []models.SessionParticipant
	err = s.DB.
		Where("session_id = ? AND is_active = ?", session.ID, true).
		Order("joined_at ASC").
		Preload("User").
		Find(&participants).Error
	if err != nil {
		return nil, nil, err
	}
	return session, participants, nil
}

// ForFacilitator returns the session if actingUser is its facilitator.
// Used by handlers that expose facilitator-only read surfaces.
func (s *SessionService) ForFacilitator(sessionID string, actingUser *models.User) (*models.Session, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.FacilitatorID != actingUser.ID {
		return nil, forbidden("Only the session facilitator can do this.")
	}
	return session, nil
}

func (s *SessionService) find(sessionID string) (*models.Session, error) {
	return findSession(s.DB, sessionID)
}

func (s *SessionService) participantOf(sessionID, userID string) (*models.SessionParticipant, error) {
	return participantOf(s.DB, sessionID, userID)
}

func (s *SessionService) load(sessionID string) (*models.Session, error) {
	return loadSession(s.DB, sessionID)
}

// findSession resolves a session id. Malformed ids are reported the same as
// absent ones so path tokens cannot be probed for format.
func findSession(db *gorm.DB, sessionID string) (*models.Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, notFound("Session not found.")
	}
	var session models.Session
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Session not found.")
		}
		return nil, err
	}
	return &session, nil
}

// participantOf returns the (session, user) join record, or nil when none
// exists.
func participantOf(db *gorm.DB, sessionID, userID string) (*models.SessionParticipant, error) {
	var participant models.SessionParticipant
	err := db.Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// loadSession fetches a session with facilitator and participant list embedded.
func loadSession(db *gorm.DB, sessionID string) (*models.Session, error) {
	var session models.Session
	err := db.
		Preload("Facilitator").
		Preload("Participants", participantOrder).
		Preload("Participants.User").
		First(&session, "id = ?", sessionID).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func participantOrder(db *gorm.DB) *gorm.DB {
	return db.Order("session_participants.joined_at ASC")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
