package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeScrapeError    = "SCRAPE_ERROR"
	CodeFetch          = "FETCH_ERROR"
	CodeExtractionMiss = "EXTRACTION_MISS"
	CodePersistence    = "PERSISTENCE_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeCache          = "CACHE_ERROR"
)

type ScrapeError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *ScrapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ScrapeError) Unwrap() error {
	return e.Cause
}

func NewScrapeError(message, code string, context map[string]any) *ScrapeError {
	return &ScrapeError{
		Message: message,
		Code:    code,
		Context: context,
	}
}

func (e *ScrapeError) WithCause(cause error) *ScrapeError {
	e.Cause = cause
	return e
}

// FetchError is a transient failure of a single request: timeout, non-200
// status or an unreadable body. Callers log it and move on.
type FetchError struct {
	*ScrapeError
	URL        string
	StatusCode int
}

func NewFetchError(message, url string, statusCode int, cause error) *FetchError {
	return &FetchError{
		ScrapeError: &ScrapeError{
			Message: message,
			Code:    CodeFetch,
			Context: map[string]any{
				"url":    url,
				"status": statusCode,
			},
			Cause: cause,
		},
		URL:        url,
		StatusCode: statusCode,
	}
}

// ExtractionMissError reports a page that was fetched but had nothing the
// extractor recognised.
type ExtractionMissError struct {
	*ScrapeError
	URL    string
	Reason string
}

func NewExtractionMissError(url, reason string) *ExtractionMissError {
	return &ExtractionMissError{
		ScrapeError: &ScrapeError{
			Message: "extraction miss: " + reason,
			Code:    CodeExtractionMiss,
			Context: map[string]any{
				"url":    url,
				"reason": reason,
			},
		},
		URL:    url,
		Reason: reason,
	}
}

// PersistenceError aborts a run: a record file could not be written.
type PersistenceError struct {
	*ScrapeError
	Path      string
	Operation string
}

func NewPersistenceError(message, path, operation string, cause error) *PersistenceError {
	return &PersistenceError{
		ScrapeError: &ScrapeError{
			Message: message,
			Code:    CodePersistence,
			Context: map[string]any{
				"path":      path,
				"operation": operation,
			},
			Cause: cause,
		},
		Path:      path,
		Operation: operation,
	}
}

type ValidationError struct {
	*ScrapeError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		ScrapeError: &ScrapeError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*ScrapeError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		ScrapeError: &ScrapeError{
			Message: message,
			Code:    CodeCache,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// IsTransient reports whether err only means "this path produced nothing".
func IsTransient(err error) bool {
	var fetchErr *FetchError
	var missErr *ExtractionMissError
	var cacheErr *CacheError
	return stderrors.As(err, &fetchErr) || stderrors.As(err, &missErr) || stderrors.As(err, &cacheErr)
}

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	var persistErr *PersistenceError
	return stderrors.As(err, &persistErr)
}

// IsExtractionMiss unwraps err into an ExtractionMissError if it is one.
func IsExtractionMiss(err error) (*ExtractionMissError, bool) {
	var missErr *ExtractionMissError
	if stderrors.As(err, &missErr) {
		return missErr, true
	}
	return nil, false
}
