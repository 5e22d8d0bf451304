package handler

import (
	"fmt"
	"net/http"

	"github.com/censeo-io/censeo-v2/internal/service"
	"github.com/censeo-io/censeo-v2/internal/util"

	"github.com/gin-gonic/gin"
)

// SessionHandler serves session lifecycle and membership endpoints.
type SessionHandler struct {
	Sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{Sessions: sessions}
}

type createSessionReq struct {
	Name string `json:"name"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// List returns the caller's sessions, newest first.
func (h *SessionHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	sessions, err := h.Sessions.List(user)
	if err != nil {
		failFromService(c, err)
		return
	}

	items := make([]sessionResp, 0, len(sessions))
	for i := range sessions {
		items = append(items, toSessionResp(&sessions[i]))
	}
	util.Success(c, util.Response{
		"sessions": items,
		"count":    len(items),
	})
}

// Create makes a new session with the caller as facilitator.
func (h *SessionHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid request body")
		return
	}

	session, err := h.Sessions.Create(user, req.Name)
	if err != nil {
		failFromService(c, err)
		return
	}
	util.Created(c, util.Response{
		"session": toSessionResp(session),
	})
}

// Get returns session detail including participants.
func (h *SessionHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	session, err := h.Sessions.Get(c.Param("id"), user)
	if err != nil {
		failFromService(c, err)
		return
	}
	util.Success(c, util.Response{
		"session": toSessionResp(session),
	})
}

// Join adds the caller as participant; idempotent for active participants
// and reactivating for returning ones.
func (h *SessionHandler) Join(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	session, participant, outcome, err := h.Sessions.Join(c.Param("id"), user)
	if err != nil {
		failFromService(c, err)
		return
	}

	var message string
	switch outcome {
	case service.AlreadyJoined:
		message = "You have already joined this session."
	case service.Rejoined:
		message = "Welcome back! You have rejoined the session."
	default:
		message = fmt.Sprintf("Successfully joined session '%s'.", session.Name)
	}

	participant.User = *user
	util.Success(c, util.Response{
		"message": message,
		"session": toSessionResp(session),
		"user":    toParticipantResp(participant),
	})
}

// Leave marks the caller's participant record inactive.
func (h *SessionHandler) Leave(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	session, err := h.Sessions.Leave(c.Param("id"), user)
	if err != nil {
		failFromService(c, err)
		return
	}
	util.Success(c, util.Response{
		"message":    fmt.Sprintf("You have left the session '%s'.", session.Name),
		"session_id": session.ID,
	})
}

// UpdateStatus sets the session status. Facilitator only.
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid request body")
		return
	}

	session, err := h.Sessions.UpdateStatus(c.Param("id"), user, req.Status)
	if err != nil {
		failFromService(c, err)
		return
	}
	util.Success(c, util.Response{
		"message": fmt.Sprintf("Session status updated to '%s'.", session.Status),
		"session": toSessionResp(session),
	})
}

// Participants lists the session's active participants, oldest join first.
func (h *SessionHandler) Participants(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	session, participants, err := h.Sessions.Participants(c.Param("id"), user)
	if err != nil {
		failFromService(c, err)
		return
	}

	items := make([]participantResp, 0, len(participants))
	for i := range participants {
		items = append(items, toParticipantResp(&participants[i]))
	}
	util.Success(c, util.Response{
		"session_id":   session.ID,
		"session_name": session.Name,
		"participants": items,
		"count":        len(items),
	})
}
