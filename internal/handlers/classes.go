package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"psychinsights-backend/internal/middleware"
	"psychinsights-backend/internal/models"
)

type classroomService interface {
	CreateClass(ctx context.Context, deviceID, name string) (*models.Class, error)
	ListClasses(ctx context.Context, deviceID string) ([]*models.Class, error)
	GetClass(ctx context.Context, deviceID string, id uuid.UUID) (*models.Class, error)
	UpdateClassSummary(ctx context.Context, deviceID string, id uuid.UUID, summary string) error
	DeleteClass(ctx context.Context, deviceID string, id uuid.UUID) error
	ListStudents(ctx context.Context, deviceID string, classID uuid.UUID) ([]*models.Student, error)
	AddStudent(ctx context.Context, deviceID string, classID uuid.UUID, rawID string) (*models.Student, error)
	GetStudent(ctx context.Context, deviceID string, id uuid.UUID) (*models.Student, error)
	UpdateNotes(ctx context.Context, deviceID string, id uuid.UUID, notes string) error
	SaveAnalysis(ctx context.Context, deviceID string, id uuid.UUID, a models.StudentAnalysis) error
	DeleteStudent(ctx context.Context, deviceID string, id uuid.UUID) error
}

type ClassHandler struct {
	svc classroomService
}

func NewClassHandler(svc classroomService) *ClassHandler {
	return &ClassHandler{svc: svc}
}

// idParam parses the {id} route parameter, writing a 400 when it is not a
// UUID.
func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid ID", r))
		return uuid.Nil, false
	}
	return id, true
}

func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClassRequest
	if !decodeBody(w, r, &req) {
		return
	}

	class, err := h.svc.CreateClass(r.Context(), middleware.GetDeviceID(r), req.ClassName)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, class)
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	classes, err := h.svc.ListClasses(r.Context(), middleware.GetDeviceID(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"classes": classes})
}

func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	class, err := h.svc.GetClass(r.Context(), middleware.GetDeviceID(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, class)
}

func (h *ClassHandler) UpdateSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req models.UpdateClassSummaryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.UpdateClassSummary(r.Context(), middleware.GetDeviceID(r), id, req.ClassSummary); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Summary saved"})
}

func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteClass(r.Context(), middleware.GetDeviceID(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Class deleted"})
}

func (h *ClassHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	students, err := h.svc.ListStudents(r.Context(), middleware.GetDeviceID(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"students": students})
}

func (h *ClassHandler) AddStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req models.AddStudentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	student, err := h.svc.AddStudent(r.Context(), middleware.GetDeviceID(r), id, rawStudentID(req.StudentID))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, student)
}

// rawStudentID accepts the id as a JSON string or number and returns its
// text for digit validation.
func rawStudentID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}
