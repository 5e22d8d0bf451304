package service

import (
	"errors"
	"strings"

	"github.com/censeo-io/censeo-v2/internal/models"
	"github.com/censeo-io/censeo-v2/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoryInput is the full set of writable story fields. Order and Status are
// optional on create; Update replaces every supplied field.
type StoryInput struct {
	Title       string
	Description string
	Order       *int
	Status      string
}

// StoryService implements facilitator-only story CRUD scoped to a session.
type StoryService struct {
	DB *gorm.DB
}

func NewStoryService(db *gorm.DB) *StoryService {
	return &StoryService{DB: db}
}

// Create adds a story to the session. When no order is supplied the next
// free order is assigned inside the transaction; an explicit colliding order
// is a Conflict, enforced by the (session, story_order) unique constraint.
func (s *StoryService) Create(sessionID string, actingUser *models.User, in StoryInput) (*models.Story, error) {
	session, err := findSession(s.DB, sessionID)
	if err != nil {
		return nil, err
	}
	if session.FacilitatorID != actingUser.ID {
		return nil, forbidden("Only the session facilitator can manage stories.")
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := util.ValidateStoryTitle(in.Title); err != nil {
		return nil, validation(capitalize(err.Error()))
	}
	status := models.StoryStatusPending
	if in.Status != "" {
		if err := util.ValidateStoryStatus(in.Status); err != nil {
			return nil, validation("Invalid status. Valid options: pending, voting, completed")
		}
		status = in.Status
	}

	story := models.Story{
		SessionID:   session.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if in.Order != nil {
			story.StoryOrder = *in.Order
		} else {
			next, err := nextStoryOrder(tx, session.ID)
			if err != nil {
				return err
			}
			story.StoryOrder = next
		}
		return tx.Create(&story).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflict("A story with this order already exists in this session.")
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// List returns the session's stories ordered for estimation: story_order
// ascending, ties broken by creation time. Requires participant membership.
func (s *StoryService) List(sessionID string, actingUser *models.User) ([]models.Story, error) {
	session, err := findSession(s.DB, sessionID)
	if err != nil {
		return nil, err
	}
	caller, err := participantOf(s.DB, session.ID, actingUser.ID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, forbidden("You do not have access to this session.")
	}

	var stories []models.Story
	err = s.DB.Where("session_id = ?", session.ID).
		Order("story_order ASC, created_at ASC").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// Get returns one story. Requires participant membership.
func (s *StoryService) Get(sessionID, storyID string, actingUser *models.User) (*models.Story, error) {
	session, err := findSession(s.DB, sessionID)
	if err != nil {
		return nil, err
	}
	caller, err := participantOf(s.DB, session.ID, actingUser.ID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, forbidden("You do not have access to this session.")
	}
	return findStory(s.DB, session.ID, storyID)
}

// Update replaces title, description, order and status. Facilitator only;
// a nil Order keeps the current one.
func (s *StoryService) Update(sessionID, storyID string, actingUser *models.User, in StoryInput) (*models.Story, error) {
	session, err := findSession(s.DB, sessionID)
	if err != nil {
		return nil, err
	}
	if session.FacilitatorID != actingUser.ID {
		return nil, forbidden("Only the session facilitator can manage stories.")
	}
	story, err := findStory(s.DB, session.ID, storyID)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if err := util.ValidateStoryTitle(in.Title); err != nil {
		return nil, validation(capitalize(err.Error()))
	}
	status := story.Status
	if in.Status != "" {
		if err := util.ValidateStoryStatus(in.Status); err != nil {
			return nil, validation("Invalid status. Valid options: pending, voting, completed")
		}
		status = in.Status
	}

	story.Title = in.Title
	story.Description = in.Description
	story.Status = status
	if in.Order != nil {
		story.StoryOrder = *in.Order
	}

	err = s.DB.Save(story).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflict("A story with this order already exists in this session.")
	}
	if err != nil {
		return nil, err
	}
	return story, nil
}

// Delete removes a story and its votes. Facilitator only; irreversible.
func (s *StoryService) Delete(sessionID, storyID string, actingUser *models.User) error {
	session, err := findSession(s.DB, sessionID)
	if err != nil {
		return err
	}
	if session.FacilitatorID != actingUser.ID {
		return forbidden("Only the session facilitator can manage stories.")
	}
	story, err := findStory(s.DB, session.ID, storyID)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", story.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(story).Error
	})
}

// findStory resolves a story id under a session. A story that exists under
// another session is reported as absent.
func findStory(db *gorm.DB, sessionID, storyID string) (*models.Story, error) {
	if _, err := uuid.Parse(storyID); err != nil {
		return nil, notFound("Story not found.")
	}
	var story models.Story
	err := db.Where("id = ? AND session_id = ?", storyID, sessionID).
		First(&story).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Story not found.")
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// nextStoryOrder returns max(story_order)+1 within the session, starting at 1.
func nextStoryOrder(tx *gorm.DB, sessionID string) (int, error) {
	var max int
	err := tx.Model(&models.Story{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(MAX(story_order), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
