package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthController reports service status
type HealthController struct {
	now func() time.Time
}

// NewHealthController creates a new HealthController
func NewHealthController() *HealthController {
	return &HealthController{now: time.Now}
}

// Root reports that the service is up and lists its entry points
func (c *HealthController) Root(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "UP",
		"message":   "Student Management API is running",
		"timestamp": c.now().UTC().Format(time.RFC3339),
		"endpoints": gin.H{
			"auth":    "/api/auth",
			"admin":   "/api/admin",
			"users":   "/api/users",
			"health":  "/health",
			"metrics": "/metrics",
			"swagger": "/swagger/index.html",
		},
	})
}

// Health is the liveness probe
func (c *HealthController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "UP"})
}
