package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures the API routes
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := r.Group("/api/v1")
	{
		repositories := v1.Group("/repositories/:id")
		{
			repositories.GET("/insights", h.GetInsights)
			repositories.GET("/contributors", h.GetContributors)
			repositories.GET("/impact", h.GetImpact)
			repositories.GET("/timeline", h.GetTimeline)
			repositories.GET("/languages", h.GetLanguages)
			repositories.GET("/status", h.GetStatus)
		}
	}

	return r
}
