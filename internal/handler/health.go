package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health is a liveness endpoint for monitoring.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "censeo-backend",
		"version": "2.0.0",
	})
}
