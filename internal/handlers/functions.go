package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"psychinsights-backend/internal/middleware"
	"psychinsights-backend/internal/models"
)

type analyzer interface {
	Run(ctx context.Context, kind string, payload map[string]any, deviceID string) (map[string]any, error)
}

// FunctionsHandler serves POST /functions/v1/{kind}.
type FunctionsHandler struct {
	analyzer analyzer
	logger   *zap.Logger
}

func NewFunctionsHandler(a analyzer, logger *zap.Logger) *FunctionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FunctionsHandler{analyzer: a, logger: logger}
}

func (h *FunctionsHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var payload map[string]any
	if err := decodeJSON(w, r, &payload); err != nil {
		if bodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, models.FunctionError{Error: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, models.FunctionError{Error: "Invalid JSON body"})
		return
	}

	result, err := h.analyzer.Run(r.Context(), kind, payload, middleware.GetDeviceID(r))
	if err != nil {
		h.logger.Info("analysis failed",
			zap.String("kind", kind),
			zap.String("request_id", r.Header.Get(middleware.RequestIDHeader)),
			zap.Error(err),
		)
		handleFunctionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
