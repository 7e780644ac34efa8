package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrCorpusUnavailable is returned when no candidate corpus could be loaded
	ErrCorpusUnavailable = errors.New("corpus unavailable")

	// ErrInvalidCorpus is returned when the fetched payload is not a list of candidates
	ErrInvalidCorpus = errors.New("invalid corpus")

	// ErrCandidateFileNotFound is returned when a candidate detail file does not exist
	ErrCandidateFileNotFound = errors.New("candidate file not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// CorpusUnavailableError describes why the corpus could not be fetched
type CorpusUnavailableError struct {
	Source     string
	StatusCode int // HTTP status when the server answered, 0 otherwise
	Err        error
}

func (e *CorpusUnavailableError) Error() string {
	msg := "corpus unavailable"
	if e.Source != "" {
		msg = fmt.Sprintf("corpus at '%s' unavailable", e.Source)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: server error %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CorpusUnavailableError) Is(target error) bool {
	return target == ErrCorpusUnavailable
}

func (e *CorpusUnavailableError) Unwrap() error {
	return e.Err
}

// NewCorpusUnavailableError creates a new CorpusUnavailableError
func NewCorpusUnavailableError(source string, statusCode int, err error) *CorpusUnavailableError {
	return &CorpusUnavailableError{Source: source, StatusCode: statusCode, Err: err}
}

// InvalidCorpusError represents a payload that does not decode to a candidate list
type InvalidCorpusError struct {
	Source string
	Reason string
}

func (e *InvalidCorpusError) Error() string {
	return fmt.Sprintf("invalid corpus from '%s': %s", e.Source, e.Reason)
}

func (e *InvalidCorpusError) Is(target error) bool {
	return target == ErrInvalidCorpus
}

// NewInvalidCorpusError creates a new InvalidCorpusError
func NewInvalidCorpusError(source, reason string) *InvalidCorpusError {
	return &InvalidCorpusError{Source: source, Reason: reason}
}

// CandidateFileNotFoundError represents a missing candidate detail file
type CandidateFileNotFoundError struct {
	FileName string
}

func (e *CandidateFileNotFoundError) Error() string {
	return fmt.Sprintf("candidate file not found: %s", e.FileName)
}

func (e *CandidateFileNotFoundError) Is(target error) bool {
	return target == ErrCandidateFileNotFound
}

// NewCandidateFileNotFoundError creates a new CandidateFileNotFoundError
func NewCandidateFileNotFoundError(fileName string) *CandidateFileNotFoundError {
	return &CandidateFileNotFoundError{FileName: fileName}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
