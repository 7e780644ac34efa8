package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/candidate-search/internal/errors"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrorCodeJobNotFound           ErrorCode = "JOB_NOT_FOUND"
	ErrorCodeCandidateFileNotFound ErrorCode = "CANDIDATE_FILE_NOT_FOUND"
	ErrorCodeInvalidRequest        ErrorCode = "INVALID_REQUEST"

	// Server Error Codes (5xx)
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeCorpusUnavailable  ErrorCode = "CORPUS_UNAVAILABLE"
	ErrorCodeInvalidCorpus      ErrorCode = "INVALID_CORPUS"
	ErrorCodeNotImplemented     ErrorCode = "NOT_IMPLEMENTED"
	ErrorCodeJobExecutionFailed ErrorCode = "JOB_EXECUTION_FAILED"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)
	errorResponse.RequestID = requestID(c)
	c.JSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with one detail per problem
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendJobNotFoundError sends a standardized job not found error
func SendJobNotFoundError(c *gin.Context, jobID string) {
	SendError(c, http.StatusNotFound, ErrorCodeJobNotFound,
		"Job '"+jobID+"' not found")
}

// SendCorpusUnavailableError is sent when no corpus has ever been loaded, or
// object storage could not be reached.
func SendCorpusUnavailableError(c *gin.Context, err error) {
	SendError(c, http.StatusServiceUnavailable, ErrorCodeCorpusUnavailable,
		"Candidate data is not available: "+err.Error())
}

// SendNotImplementedError is sent when an optional collaborator is not configured
func SendNotImplementedError(c *gin.Context, feature string) {
	SendError(c, http.StatusNotImplemented, ErrorCodeNotImplemented,
		feature+" is not enabled on this server")
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendJobExecutionError sends a standardized job execution error
func SendJobExecutionError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeJobExecutionFailed,
		"Failed to start "+operation+" job: "+err.Error())
}

// SendDomainError maps errors from the service layer to a response
func SendDomainError(c *gin.Context, operation string, err error) {
	var validation *errors.ValidationError
	switch {
	case stderrors.As(err, &validation):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed",
			ErrorDetail{Field: validation.Field, Message: validation.Message, Code: "VALIDATION_ERROR"})
	case stderrors.Is(err, errors.ErrCandidateFileNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeCandidateFileNotFound, err.Error())
	case stderrors.Is(err, errors.ErrJobNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeJobNotFound, err.Error())
	case stderrors.Is(err, errors.ErrInvalidCorpus):
		SendError(c, http.StatusBadGateway, ErrorCodeInvalidCorpus, err.Error())
	case stderrors.Is(err, errors.ErrCorpusUnavailable):
		SendCorpusUnavailableError(c, err)
	default:
		SendInternalError(c, operation, err)
	}
}
