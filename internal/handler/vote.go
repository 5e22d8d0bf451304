package handler

import (
	"net/http"
	"time"

	"github.com/censeo-io/censeo-v2/internal/models"
	"github.com/censeo-io/censeo-v2/internal/service"
	"github.com/censeo-io/censeo-v2/internal/util"

	"github.com/gin-gonic/gin"
)

// VoteHandler serves vote casting and listing for a story.
type VoteHandler struct {
	Votes *service.VoteService
}

func NewVoteHandler(votes *service.VoteService) *VoteHandler {
	return &VoteHandler{Votes: votes}
}

type castVoteReq struct {
	Points string `json:"points"`
}

type voteResp struct {
	VoteID    string    `json:"vote_id"`
	User      userResp  `json:"user"`
	Points    string    `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

func toVoteResp(v *models.Vote) voteResp {
	return voteResp{
		VoteID:    v.ID,
		User:      toUserResp(&v.User),
		Points:    v.Points,
		CreatedAt: v.CreatedAt,
	}
}

// Cast records the caller's estimate, replacing any earlier one.
func (h *VoteHandler) Cast(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req castVoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid request body")
		return
	}

	vote, err := h.Votes.Cast(c.Param("id"), c.Param("storyId"), user, req.Points)
	if err != nil {
		failFromService(c, err)
		return
	}
	util.Success(c, util.Response{
		"message": "Vote recorded.",
		"vote":    toVoteResp(vote),
	})
}

// List returns the story's votes with voter identity.
func (h *VoteHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	story, votes, err := h.Votes.ListForStory(c.Param("id"), c.Param("storyId"), user)
	if err != nil {
		failFromService(c, err)
		return
	}

	items := make([]voteResp, 0, len(votes))
	for i := range votes {
		items = append(items, toVoteResp(&votes[i]))
	}
	util.Success(c, util.Response{
		"story_id": story.ID,
		"votes":    items,
		"count":    len(items),
	})
}
