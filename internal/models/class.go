package models

import (
	"time"

	"github.com/google/uuid"
)

type Class struct {
	ID           uuid.UUID `json:"id"`
	ClassName    string    `json:"class_name"` // stored with the "[[token]]" scope prefix
	DisplayName  string    `json:"display_name"`
	ClassSummary *string   `json:"class_summary"`
	DeviceID     string    `json:"device_id"`
	StudentCount int       `json:"student_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateClassRequest struct {
	ClassName string `json:"class_name"`
}

type UpdateClassSummaryRequest struct {
	ClassSummary string `json:"class_summary"`
}
