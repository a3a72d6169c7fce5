package services

// Typed service errors. Handlers translate them to HTTP statuses.

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{field: message}}
}

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// QuotaError reports that the AI workspace ran out of credits (HTTP 402).
type QuotaError struct{ Message string }

func (e *QuotaError) Error() string { return e.Message }

// ParseError means the provider answered but the reply could not be used.
type ParseError struct{ Message string }

func (e *ParseError) Error() string { return e.Message }
