package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsHandler handles the request to get analytics data
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	if api.analytics == nil {
		SendNotImplementedError(c, "Analytics")
		return
	}

	c.JSON(http.StatusOK, api.analytics.Summary())
}

// HealthCheckHandler reports liveness and the state of the corpus
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "candidate-search",
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		"corpus":    api.searcher.Status(),
	})
}
