package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Student struct {
	ID               uuid.UUID `json:"id"`
	StudentNumericID int       `json:"student_numeric_id"`
	ClassID          uuid.UUID `json:"class_id"`
	DeviceID         string    `json:"device_id"`
	RawNotes         *string   `json:"raw_notes"`
	AIPersonalityTag *string   `json:"ai_personality_tag"`
	AIFullPortrait   *string   `json:"ai_full_portrait"`
	AIDosDonts       *string   `json:"ai_dos_donts"` // JSON {"dos":[],"donts":[]} or raw text
	CreatedAt        time.Time `json:"created_at"`
}

type AddStudentRequest struct {
	StudentID json.RawMessage `json:"student_id"`
}

type UpdateNotesRequest struct {
	RawNotes string `json:"raw_notes"`
}

// StudentAnalysis is the persisted form of an analyze-student result.
type StudentAnalysis struct {
	PersonalityTag string          `json:"personality_tag"`
	FullPortrait   string          `json:"full_portrait"`
	DosDonts       json.RawMessage `json:"dos_donts"`
}

// DosDontsText turns a wire dos_donts value into its stored text form. JSON
// strings are unquoted and objects are kept as JSON text.
func DosDontsText(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "No recommendations available."
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return trimmed
}
