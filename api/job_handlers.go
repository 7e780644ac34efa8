package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	if api.jobs == nil {
		SendNotImplementedError(c, "Job management")
		return
	}

	jobID := c.Param("jobId")
	job, err := api.jobs.GetJob(jobID)
	if err != nil {
		SendJobNotFoundError(c, jobID)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists jobs, newest first.
// Query Params: status (optional)
func (api *API) ListJobsHandler(c *gin.Context) {
	if api.jobs == nil {
		SendNotImplementedError(c, "Job management")
		return
	}

	statusFilter, result := ValidateJobStatus(c.Query("status"))
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	jobs := api.jobs.ListJobs(statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	if api.jobs == nil {
		SendNotImplementedError(c, "Job metrics")
		return
	}

	metrics := api.jobs.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"metrics":          metrics,
		"success_rate":     metrics.SuccessRate,
		"current_workload": metrics.CurrentWorkload,
	})
}
