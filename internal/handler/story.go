package handler

import (
	"net/http"
	"time"

	"github.com/censeo-io/censeo-v2/internal/models"
	"github.com/censeo-io/censeo-v2/internal/service"
	"github.com/censeo-io/censeo-v2/internal/util"

	"github.com/gin-gonic/gin"
)

// StoryHandler serves facilitator story CRUD scoped to a session.
type StoryHandler struct {
	Stories *service.StoryService
}

func NewStoryHandler(stories *service.StoryService) *StoryHandler {
	return &StoryHandler{Stories: stories}
}

type storyReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StoryOrder  *int   `json:"story_order"`
	Status      string `json:"status"`
}

type storyResp struct {
	StoryID     string    `json:"story_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StoryOrder  int       `json:"story_order"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toStoryResp(s *models.Story) storyResp {
	return storyResp{
		StoryID:     s.ID,
		Title:       s.Title,
		Description: s.Description,
		StoryOrder:  s.StoryOrder,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
	}
}

func (r storyReq) toInput() service.StoryInput {
	return service.StoryInput{
		Title:       r.Title,
		Description: r.Description,
		Order:       r.StoryOrder,
		Status:      r.Status,
	}
}

// List returns the session's stories in estimation order.
func (h *StoryHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	stories, err := h.Stories.List(c.Param("id"), user)
	if err != nil {
		failFromService(c, err)
		return
	}

	items := make([]storyResp, 0, len(stories))
	for i := range stories {
		items = append(items, toStoryResp(&stories[i]))
	}
	util.Success(c, util.Response{
		"stories": items,
		"count":   len(items),
	})
}

// Create adds a story to the session. Facilitator only.
func (h *StoryHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req storyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid request body")
		return
	}

	story, err := h.Stories.Create(c.Param("id"), user, req.toInput())
	if err != nil {
		failFromService(c, err)
		return
	}
	util.Created(c, util.Response{
		"story": toStoryResp(story),
	})
}

// Get returns one story.
func (h *StoryHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	story, err := h.Stories.Get(c.Param("id"), c.Param("storyId"), user)
	if err != nil {
		failFromService(c, err)
		return
	}
	util.Success(c, util.Response{
		"story": toStoryResp(story),
	})
}

// Update replaces a story's fields. Facilitator only.
func (h *StoryHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req storyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid request body")
		return
	}

	story, err := h.Stories.Update(c.Param("id"), c.Param("storyId"), user, req.toInput())
	if err != nil {
		failFromService(c, err)
		return
	}
	util.Success(c, util.Response{
		"story": toStoryResp(story),
	})
}

// Delete removes a story and its votes. Facilitator only.
func (h *StoryHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.Stories.Delete(c.Param("id"), c.Param("storyId"), user); err != nil {
		failFromService(c, err)
		return
	}
	util.NoContent(c)
}
