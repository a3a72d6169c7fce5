package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"psychinsights-backend/internal/scope"
)

type contextKey string

const (
	DeviceIDKey  contextKey = "device_id"
	DeviceHeader            = "x-device-id"
)

// ErrorWriter renders a rejection from middleware. The REST API and the
// analysis functions use different error bodies.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// RequireDevice rejects requests without a well-formed x-device-id header
// and attaches the device id to the request context. The id doubles as the
// scope token embedded in class names, so it must be alphanumeric. It is
// advisory: nothing verifies who sent it.
func RequireDevice(onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := strings.TrimSpace(r.Header.Get(DeviceHeader))
			if deviceID == "" {
				onError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Device identification required")
				return
			}
			if !scope.ValidToken(deviceID) {
				onError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid device identifier")
				return
			}

			ctx := context.WithValue(r.Context(), DeviceIDKey, deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDeviceID returns the device id attached by RequireDevice, or the raw
// header when the route does not require one.
func GetDeviceID(r *http.Request) string {
	if id, ok := r.Context().Value(DeviceIDKey).(string); ok {
		return id
	}
	return strings.TrimSpace(r.Header.Get(DeviceHeader))
}

// WriteAPIError writes the nested error body used under /api/v1.
func WriteAPIError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := r.Header.Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
	})
}

// WriteFunctionError writes the flat {"error": "..."} body of the analysis
// functions.
func WriteFunctionError(w http.ResponseWriter, _ *http.Request, status int, _ string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
