package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/candidate-search/internal/jobs"
	"github.com/gcbaptista/candidate-search/model"
	"github.com/gcbaptista/candidate-search/services"
)

// JobService is the job functionality exposed over HTTP
type JobService interface {
	services.JobManager
	GetMetrics() jobs.JobMetricsData
}

// AnalyticsReporter summarizes recorded searches
type AnalyticsReporter interface {
	Summary() model.AnalyticsSummary
}

// Dependencies wires the API to the service layer. Only Searcher is
// required; routes backed by a nil dependency answer 501.
type Dependencies struct {
	Searcher  services.CandidateSearcher
	Refresher services.CorpusRefresher
	Details   services.DetailsSource
	Jobs      JobService
	Analytics AnalyticsReporter
	// PerParty is the default number of candidates returned per party
	PerParty int
	Logger   *zap.Logger
}

// API holds dependencies for API handlers.
type API struct {
	searcher  services.CandidateSearcher
	refresher services.CorpusRefresher
	details   services.DetailsSource
	jobs      JobService
	analytics AnalyticsReporter
	perParty  int
	logger    *zap.Logger
}

// NewAPI creates a new API handler structure.
func NewAPI(deps Dependencies) *API {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		searcher:  deps.Searcher,
		refresher: deps.Refresher,
		details:   deps.Details,
		jobs:      deps.Jobs,
		analytics: deps.Analytics,
		perParty:  deps.PerParty,
		logger:    logger.Named("api"),
	}
}

// SetupRoutes defines all the API routes of the candidate search service.
func SetupRoutes(router *gin.Engine, deps Dependencies) *API {
	apiHandler := NewAPI(deps)

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	// Analytics route
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)

	candidateRoutes := router.Group("/candidates")
	{
		candidateRoutes.GET("/_search", apiHandler.SearchHandler)           // Grouped search results
		candidateRoutes.GET("/count", apiHandler.CountHandler)              // Corpus size
		candidateRoutes.GET("/details", apiHandler.CandidateDetailsHandler) // Raw detail document
	}

	router.POST("/corpus/refresh", apiHandler.RefreshCorpusHandler)

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler)
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)
	}

	return apiHandler
}
