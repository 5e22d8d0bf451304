package handler

import (
	"net/http"
	"time"

	"github.com/censeo-io/censeo-v2/internal/middleware"
	"github.com/censeo-io/censeo-v2/internal/models"
	"github.com/censeo-io/censeo-v2/internal/service"
	"github.com/censeo-io/censeo-v2/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves the mock passwordless login.
type AuthHandler struct {
	Auth      *service.AuthService
	JWTSecret string
	TokenTTL  time.Duration
}

func NewAuthHandler(auth *service.AuthService, jwtSecret string, ttlHours int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		Auth:      auth,
		JWTSecret: jwtSecret,
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
	}
}

type loginReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Login finds or creates a user by email and starts an auth session. The
// token is returned in the body and set as a cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid request body")
		return
	}

	user, err := h.Auth.Login(req.Name, req.Email)
	if err != nil {
		failFromService(c, err)
		return
	}

	authSession, err := h.Auth.OpenAuthSession(user, h.TokenTTL)
	if err != nil {
		failFromService(c, err)
		return
	}
	token, err := util.GenerateToken(h.JWTSecret, authSession.ID, user.ID, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to issue token")
		return
	}

	c.SetCookie(middleware.TokenCookie, token, int(h.TokenTTL.Seconds()), "/", "", false, true)
	util.Success(c, util.Response{
		"user_id":       user.ID,
		"name":          user.FullName(),
		"email":         user.Email,
		"session_token": token,
		"message":       "Login successful",
	})
}

// Logout revokes the caller's auth session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	if v, ok := c.Get(middleware.CtxAuthSessionID); ok {
		if id, ok := v.(string); ok {
			if err := h.Auth.RevokeAuthSession(id); err != nil {
				failFromService(c, err)
				return
			}
		}
	}

	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	util.Success(c, util.Response{
		"message": "Logout successful",
	})
}

// Status reports whether the caller is authenticated. Runs behind
// OptionalAuth, so an absent or invalid token is not an error.
func (h *AuthHandler) Status(c *gin.Context) {
	v, ok := c.Get(middleware.CtxCurrentUser)
	if !ok {
		util.Success(c, util.Response{"authenticated": false})
		return
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Success(c, util.Response{"authenticated": false})
		return
	}

	util.Success(c, util.Response{
		"authenticated": true,
		"user_id":       user.ID,
		"name":          user.FullName(),
		"email":         user.Email,
	})
}
