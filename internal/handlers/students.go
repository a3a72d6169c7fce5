package handlers

import (
	"net/http"

	"psychinsights-backend/internal/middleware"
	"psychinsights-backend/internal/models"
)

type StudentHandler struct {
	svc classroomService
}

func NewStudentHandler(svc classroomService) *StudentHandler {
	return &StudentHandler{svc: svc}
}

func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	student, err := h.svc.GetStudent(r.Context(), middleware.GetDeviceID(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req models.UpdateNotesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.UpdateNotes(r.Context(), middleware.GetDeviceID(r), id, req.RawNotes); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notes saved"})
}

// SaveAnalysis stores the result of a successful analyze-student call.
func (h *StudentHandler) SaveAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req models.StudentAnalysis
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.SaveAnalysis(r.Context(), middleware.GetDeviceID(r), id, req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Analysis saved"})
}

func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteStudent(r.Context(), middleware.GetDeviceID(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Student deleted"})
}
