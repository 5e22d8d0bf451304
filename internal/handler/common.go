package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/censeo-io/censeo-v2/internal/middleware"
	"github.com/censeo-io/censeo-v2/internal/models"
	"github.com/censeo-io/censeo-v2/internal/service"
	"github.com/censeo-io/censeo-v2/internal/util"

	"github.com/gin-gonic/gin"
)

// currentUser pulls the authenticated user from the context. Writes a 403
// when the auth middleware did not run or was bypassed.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(middleware.CtxCurrentUser)
	if !ok {
		util.Error(c, http.StatusForbidden, util.CodeAuth, "Authentication required")
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusForbidden, util.CodeAuth, "Authentication required")
		return nil, false
	}
	return user, true
}

// failFromService maps a policy error to its HTTP status. Anything untyped
// is an unexpected internal failure and is not leaked to the caller.
func failFromService(c *gin.Context, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case service.KindValidation, service.KindInvalidState:
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, se.Message)
		case service.KindForbidden:
			util.Error(c, http.StatusForbidden, util.CodeForbidden, se.Message)
		case service.KindNotFound:
			util.Error(c, http.StatusNotFound, util.CodeNotFound, se.Message)
		case service.KindConflict:
			util.Error(c, http.StatusConflict, util.CodeConflict, se.Message)
		default:
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Internal error")
		}
		return
	}
	util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Internal error")
}

// ---------- shared response shapes ----------

type userResp struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

type participantResp struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
	IsActive bool      `json:"is_active"`
}

type sessionResp struct {
	SessionID        string            `json:"session_id"`
	Name             string            `json:"name"`
	Facilitator      userResp          `json:"facilitator"`
	Status           string            `json:"status"`
	Participants     []participantResp `json:"participants"`
	ParticipantCount int               `json:"participant_count"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func toUserResp(u *models.User) userResp {
	return userResp{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.FullName(),
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		CreatedAt:  u.CreatedAt,
		LastActive: u.LastActive,
	}
}

func toParticipantResp(p *models.SessionParticipant) participantResp {
	return participantResp{
		Name:     p.User.FullName(),
		Email:    p.User.Email,
		JoinedAt: p.JoinedAt,
		IsActive: p.IsActive,
	}
}

func toSessionResp(s *models.Session) sessionResp {
	participants := make([]participantResp, 0, len(s.Participants))
	for i := range s.Participants {
		participants = append(participants, toParticipantResp(&s.Participants[i]))
	}
	return sessionResp{
		SessionID:        s.ID,
		Name:             s.Name,
		Facilitator:      toUserResp(&s.Facilitator),
		Status:           s.Status,
		Participants:     participants,
		ParticipantCount: s.ActiveParticipantCount(),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
