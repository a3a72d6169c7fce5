package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"psychinsights-backend/internal/labstate"
	"psychinsights-backend/internal/middleware"
)

// LabHandler stores the Linguistic Lab form state per device.
type LabHandler struct {
	store  labstate.Store
	logger *zap.Logger
}

func NewLabHandler(store labstate.Store, logger *zap.Logger) *LabHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabHandler{store: store, logger: logger}
}

func (h *LabHandler) Get(w http.ResponseWriter, r *http.Request) {
	deviceID := middleware.GetDeviceID(r)

	st, err := h.store.Load(r.Context(), deviceID)
	if errors.Is(err, labstate.ErrCorrupt) {
		h.logger.Warn("discarding corrupt lab state", zap.String("device_id", deviceID), zap.Error(err))
		err = nil
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (h *LabHandler) Put(w http.ResponseWriter, r *http.Request) {
	var patch labstate.Patch
	if !decodeBody(w, r, &patch) {
		return
	}

	st, err := labstate.Update(r.Context(), h.store, middleware.GetDeviceID(r), patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}
