package service

import (
	"github.com/censeo-io/censeo-v2/internal/models"
	"github.com/censeo-io/censeo-v2/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteService implements vote casting and listing. One vote per user per
// story; re-votes replace the prior estimate.
type VoteService struct {
	DB *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{DB: db}
}

// Cast records actingUser's estimate for a story, replacing any earlier one.
// The (story, user) unique constraint drives the upsert, so a concurrent
// duplicate cast cannot create a second row. Requires active membership.
func (s *VoteService) Cast(sessionID, storyID string, actingUser *models.User, points string) (*models.Vote, error) {
	session, err := findSession(s.DB, sessionID)
	if err != nil {
		return nil, err
	}
	caller, err := participantOf(s.DB, session.ID, actingUser.ID)
	if err != nil {
		return nil, err
	}
	if caller == nil || !caller.IsActive {
		return nil, forbidden("You must join this session before voting.")
	}
	story, err := findStory(s.DB, session.ID, storyID)
	if err != nil {
		return nil, err
	}
	if err := util.ValidatePoints(points); err != nil {
		return nil, validation("Invalid points. Valid options: 1, 2, 3, 5, 8, 13, 21, ?")
	}

	vote := models.Vote{
		StoryID: story.ID,
		UserID:  actingUser.ID,
		Points:  points,
	}
	err = s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "story_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"points", "created_at"}),
	}).Create(&vote).Error
	if err != nil {
		return nil, err
	}

	// re-read: on conflict the kept row has the original id
	var stored models.Vote
	err = s.DB.Where("story_id = ? AND user_id = ?", story.ID, actingUser.ID).
		Preload("User").
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListForStory returns the story's votes with voter identity, newest first.
// Requires participant membership.
func (s *VoteService) ListForStory(sessionID, storyID string, actingUser *models.User) (*models.Story, []models.Vote, error) {
	session, err := findSession(s.DB, sessionID)
	if err != nil {
		return nil, nil, err
	}
	caller, err := participantOf(s.DB, session.ID, actingUser.ID)
	if err != nil {
		return nil, nil, err
	}
	if caller == nil {
		return nil, nil, forbidden("You do not have access to this session.")
	}
	story, err := findStory(s.DB, session.ID, storyID)
	if err != nil {
		return nil, nil, err
	}

	var votes []models.Vote
	err = s.DB.Where("story_id = ?", story.ID).
		Order("created_at DESC").
		Preload("User").
		Find(&votes).Error
	if err != nil {
		return nil, nil, err
	}
	return story, votes, nil
}
