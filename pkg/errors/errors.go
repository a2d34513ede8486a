package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeResearchError     = "RESEARCH_ERROR"
	CodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	CodeValidation        = "VALIDATION_ERROR"
	CodePersistence       = "PERSISTENCE_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeCache             = "CACHE_ERROR"
)

type ResearchError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *ResearchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ResearchError) Unwrap() error {
	return e.Cause
}

func NewResearchError(message, code string, statusCode int, context map[string]any) *ResearchError {
	return &ResearchError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *ResearchError) WithCause(cause error) *ResearchError {
	e.Cause = cause
	return e
}

// SourceUnavailableError reports that one adapter could not serve a call.
// It never escapes the expander/collector boundary.
type SourceUnavailableError struct {
	*ResearchError
	Source    string
	Operation string
	Keyword   string
}

func NewSourceUnavailable(source, operation, keyword string, cause error) *SourceUnavailableError {
	return &SourceUnavailableError{
		ResearchError: &ResearchError{
			Message:    fmt.Sprintf("source %s unavailable for %s", source, operation),
			Code:       CodeSourceUnavailable,
			StatusCode: http.StatusBadGateway,
			Context: map[string]any{
				"source":    source,
				"operation": operation,
				"keyword":   keyword,
			},
			Cause: cause,
		},
		Source:    source,
		Operation: operation,
		Keyword:   keyword,
	}
}

type ValidationError struct {
	*ResearchError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		ResearchError: &ResearchError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: http.StatusBadRequest,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// NewEmptyRequestError is returned when the raw input yields no seed keywords.
func NewEmptyRequestError() *ValidationError {
	return NewValidationError("No keywords provided", "keywords", "")
}

type PersistenceError struct {
	*ResearchError
	Operation string
}

func NewPersistenceError(message, operation string, cause error) *PersistenceError {
	return &PersistenceError{
		ResearchError: &ResearchError{
			Message:    message,
			Code:       CodePersistence,
			StatusCode: http.StatusInternalServerError,
			Context: map[string]any{
				"operation": operation,
			},
			Cause: cause,
		},
		Operation: operation,
	}
}

type NotFoundError struct {
	*ResearchError
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		ResearchError: &ResearchError{
			Message:    fmt.Sprintf("%s not found", resource),
			Code:       CodeNotFound,
			StatusCode: http.StatusNotFound,
			Context: map[string]any{
				"resource": resource,
				"id":       id,
			},
		},
		Resource: resource,
		ID:       id,
	}
}

type ConflictError struct {
	*ResearchError
	Resource string
	ID       string
}

func NewConflictError(message, resource, id string) *ConflictError {
	return &ConflictError{
		ResearchError: &ResearchError{
			Message:    message,
			Code:       CodeConflict,
			StatusCode: http.StatusConflict,
			Context: map[string]any{
				"resource": resource,
				"id":       id,
			},
		},
		Resource: resource,
		ID:       id,
	}
}

type CacheError struct {
	*ResearchError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		ResearchError: &ResearchError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: http.StatusInternalServerError,
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

// IsSourceUnavailable reports whether err (or anything it wraps) is a SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var target *SourceUnavailableError
	return stderrors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return stderrors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return stderrors.As(err, &target)
}

// StatusCode maps an error to the HTTP status the API should answer with.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var (
		validation  *ValidationError
		notFound    *NotFoundError
		conflict    *ConflictError
		persistence *PersistenceError
		source      *SourceUnavailableError
		cache       *CacheError
		base        *ResearchError
	)
	switch {
	case stderrors.As(err, &validation):
		return validation.StatusCode
	case stderrors.As(err, &notFound):
		return notFound.StatusCode
	case stderrors.As(err, &conflict):
		return conflict.StatusCode
	case stderrors.As(err, &persistence):
		return persistence.StatusCode
	case stderrors.As(err, &source):
		return source.StatusCode
	case stderrors.As(err, &cache):
		return cache.StatusCode
	case stderrors.As(err, &base):
		return base.StatusCode
	}
	return http.StatusInternalServerError
}

// Is and As forward to the standard library so callers need a single errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

type publicError interface {
	PublicMessage() string
}

// PublicMessage is the message without the wrapped cause.
func (e *ResearchError) PublicMessage() string {
	return e.Message
}

// Message returns the client-facing message of err: the typed error's own
// message when there is one, otherwise a generic text.
func Message(err error) string {
	var pub publicError
	if stderrors.As(err, &pub) {
		return pub.PublicMessage()
	}
	return "Internal server error"
}
