package middleware

import (
	"time"

	"github.com/censeo-io/censeo-v2/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// activityInterval throttles last-active writes to one per minute per user.
const activityInterval = time.Minute

// Activity touches the current user's last_active timestamp after handled
// requests. Must run after Auth.
func Activity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		v, ok := c.Get(CtxCurrentUser)
		if !ok {
			return
		}
		user, ok := v.(*models.User)
		if !ok || user == nil {
			return
		}

		now := time.Now()
		if now.Sub(user.LastActive) < activityInterval {
			return
		}
		_ = db.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("last_active", now).Error
	}
}
