// Package api provides validation utilities for API request handling.
package api

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/candidate-search/model"
)

// MaxQueryLength bounds the search query, in runes
const MaxQueryLength = 200

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// SearchParams are the query parameters of the search endpoint
type SearchParams struct {
	Query    string `form:"q"`
	PerParty *int   `form:"per_party"`
	SortKeys *bool  `form:"sort_keys"`
}

// ValidateSearchParams trims the query and checks the limits. A missing
// per_party falls back to defaultPerParty.
func ValidateSearchParams(params *SearchParams, defaultPerParty int) *ValidationResult {
	result := &ValidationResult{Valid: true}

	params.Query = strings.TrimSpace(params.Query)
	if n := utf8.RuneCountInString(params.Query); n > MaxQueryLength {
		result.AddError("q", fmt.Sprintf("Query cannot be longer than %d characters (got %d)", MaxQueryLength, n))
	}

	if params.PerParty == nil {
		perParty := defaultPerParty
		params.PerParty = &perParty
	} else if *params.PerParty < 0 {
		result.AddError("per_party", "per_party cannot be negative (use 0 for all candidates)")
	}

	return result
}

// ValidateCandidateFile checks a detail file name such as "CANDIDATES/ANTI KALJUMÄE.json"
func ValidateCandidateFile(fileName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(fileName) == "" {
		result.AddError("file", "File name is required")
		return result
	}

	if strings.TrimSpace(fileName) != fileName {
		result.AddError("file", "File name cannot have leading or trailing whitespace")
		return result
	}

	if strings.HasPrefix(fileName, "/") || path.Clean(fileName) != fileName {
		result.AddError("file", "File name must be a clean relative object key")
	}
	for _, segment := range strings.Split(fileName, "/") {
		if segment == ".." {
			result.AddError("file", "File name cannot contain '..' segments")
			break
		}
	}

	if !strings.HasSuffix(strings.ToLower(fileName), ".json") {
		result.AddError("file", "File name must end with .json")
	}

	return result
}

// ValidateJobStatus checks the optional status filter of the job listing
func ValidateJobStatus(status string) (*model.JobStatus, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	if status == "" {
		return nil, result
	}

	s := model.JobStatus(status)
	switch s {
	case model.JobStatusPending, model.JobStatusRunning, model.JobStatusCompleted,
		model.JobStatusFailed, model.JobStatusCancelled:
		return &s, result
	}
	result.AddError("status", "Unknown job status '"+status+"'")
	return nil, result
}

// SendValidationError sends the validation problems as a 400 response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateQueryBinding validates query parameter binding
func ValidateQueryBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindQuery(target); err != nil {
		result.AddError("query_parameters", "Invalid query parameters: "+err.Error())
	}

	return result
}
