package router

import (
	"github.com/censeo-io/censeo-v2/internal/config"
	"github.com/censeo-io/censeo-v2/internal/handler"
	"github.com/censeo-io/censeo-v2/internal/middleware"
	"github.com/censeo-io/censeo-v2/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and wires all routes.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	authSvc := service.NewAuthService(db)
	sessionSvc := service.NewSessionService(db)
	storySvc := service.NewStoryService(db)
	voteSvc := service.NewVoteService(db)

	authHandler := handler.NewAuthHandler(authSvc, cfg.JWT.Secret, cfg.JWT.ExpireHours)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	storyHandler := handler.NewStoryHandler(storySvc)
	voteHandler := handler.NewVoteHandler(voteSvc)
	exportHandler := handler.NewExportHandler(db, sessionSvc)

	r.GET("/health", handler.Health)

	r.POST("/auth/login", authHandler.Login)
	r.GET("/auth/status", middleware.OptionalAuth(cfg.JWT.Secret, db), authHandler.Status)

	protected := r.Group("")
	protected.Use(
		middleware.Auth(cfg.JWT.Secret, db),
		middleware.Activity(db),
	)

	protected.POST("/auth/logout", authHandler.Logout)

	sessions := protected.Group("/sessions")
	sessions.GET("", sessionHandler.List)
	sessions.POST("", sessionHandler.Create)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.POST("/:id/join", sessionHandler.Join)
	sessions.POST("/:id/leave", sessionHandler.Leave)
	sessions.POST("/:id/status", sessionHandler.UpdateStatus)
	sessions.GET("/:id/participants", sessionHandler.Participants)

	sessions.GET("/:id/stories", storyHandler.List)
	sessions.POST("/:id/stories", storyHandler.Create)
	sessions.GET("/:id/stories/:storyId", storyHandler.Get)
	sessions.PUT("/:id/stories/:storyId", storyHandler.Update)
	sessions.DELETE("/:id/stories/:storyId", storyHandler.Delete)

	sessions.POST("/:id/stories/:storyId/vote", voteHandler.Cast)
	sessions.GET("/:id/stories/:storyId/votes", voteHandler.List)

	sessions.GET("/:id/export/xlsx", exportHandler.ExportXLSX)

	return r
}
