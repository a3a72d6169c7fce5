package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"psychinsights-backend/internal/models"
	"psychinsights-backend/internal/services"
)

// maxRequestBody bounds every JSON request body.
const maxRequestBody = 1 << 20

// statusClientClosedRequest reports a request the caller abandoned.
const statusClientClosedRequest = 499

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v)
}

func bodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// decodeBody decodes a REST request body and writes the 400 or 413 itself
// when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := decodeJSON(w, r, v)
	if err == nil {
		return true
	}
	if bodyTooLarge(err) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", "Request body too large", r))
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
	return false
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// classifyError maps a service error to its HTTP status, error code and
// user-facing message.
func classifyError(err error) (int, string, string) {
	var (
		validation   *services.ValidationError
		conflict     *services.ConflictError
		notFound     *services.NotFoundError
		unauthorized *services.UnauthorizedError
		rateLimit    *services.RateLimitError
		quota        *services.QuotaError
		parse        *services.ParseError
		upstream     *services.UpstreamError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "VALIDATION_ERROR", validation.Error()
	case errors.As(err, &conflict):
		return http.StatusConflict, "CONFLICT", conflict.Message
	case errors.As(err, &notFound):
		return http.StatusNotFound, "NOT_FOUND", notFound.Message
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", unauthorized.Message
	case errors.As(err, &rateLimit):
		return http.StatusTooManyRequests, "RATE_LIMITED", rateLimit.Message
	case errors.As(err, &quota):
		return http.StatusPaymentRequired, "QUOTA_EXCEEDED", quota.Message
	case errors.As(err, &parse):
		return http.StatusBadGateway, "AI_PARSE_ERROR", parse.Message
	case errors.As(err, &upstream):
		if upstream.Unavailable() {
			return http.StatusServiceUnavailable, "AI_UNAVAILABLE", "AI service is temporarily unavailable. Please try again later."
		}
		return http.StatusBadGateway, "AI_UPSTREAM_ERROR", "Failed to get AI analysis"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "The request timed out"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "CANCELED", "The request was canceled"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"
}

// handleServiceError writes the nested error body used by the REST API.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)

	var validation *services.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, status, errorRespWithFields(code, message, validation.Fields, r))
		return
	}
	writeJSON(w, status, errorResp(code, message, r))
}

// handleFunctionError writes the flat {"error": "..."} body of the
// analysis functions.
func handleFunctionError(w http.ResponseWriter, err error) {
	status, _, message := classifyError(err)
	writeJSON(w, status, models.FunctionError{Error: message})
}
