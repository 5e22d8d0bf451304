package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/censeo-io/censeo-v2/internal/models"
	"github.com/censeo-io/censeo-v2/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TokenCookie is the cookie carrying the signed auth token.
const TokenCookie = "censeo_token"

// Context keys set by the auth middleware.
const (
	CtxCurrentUser   = "currentUser"
	CtxAuthSessionID = "authSessionID"
)

// Auth validates the login token and puts the current user in the context.
// Unauthenticated requests on protected routes are rejected with 403.
func Auth(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identify(c, jwtSecret, db) {
			util.Error(c, http.StatusForbidden, util.CodeAuth, "Authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// continues silently otherwise.
func OptionalAuth(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identify(c, jwtSecret, db)
		c.Next()
	}
}

// identify resolves the caller from the token, checking the persisted auth
// session and loading the user. Token lookup order: Authorization header,
// ?token= query (downloads cannot set headers), cookie.
func identify(c *gin.Context, jwtSecret string, db *gorm.DB) bool {
	var tokenStr string

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenStr = parts[1]
		}
	}
	if tokenStr == "" {
		tokenStr = c.Query("token")
	}
	if tokenStr == "" {
		if cookie, err := c.Cookie(TokenCookie); err == nil {
			tokenStr = cookie
		}
	}
	if tokenStr == "" {
		return false
	}

	claims, err := util.ParseToken(jwtSecret, tokenStr)
	if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return false
	}

	var authSession models.AuthSession
	if err := db.First(&authSession, "id = ?", claims.AuthSessionID).Error; err != nil {
		return false
	}
	if authSession.Revoked || authSession.ExpiresAt.Before(time.Now()) {
		return false
	}

	var user models.User
	if err := db.First(&user, "id = ?", authSession.UserID).Error; err != nil {
		return false
	}

	c.Set(CtxCurrentUser, &user)
	c.Set(CtxAuthSessionID, authSession.ID)
	return true
}
