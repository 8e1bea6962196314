package dto

import "github.com/noah-isme/sma-attendance-api/internal/models"

// OpenSessionRequest starts marking a class roster for a day.
type OpenSessionRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ToggleAbsenceRequest flags or clears one student. Omitting Absent flips the current state.
type ToggleAbsenceRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required"`
	Absent       *bool  `json:"absent"`
}

// MarkAllRequest applies one status to the whole roster.
type MarkAllRequest struct {
	Status string `json:"status" validate:"required,oneof=ABSENT PRESENT"`
}

// SessionEntry is one roster row as shown on the marking screen.
type SessionEntry struct {
	Student      models.StudentRef       `json:"student"`
	ServerStatus models.AttendanceStatus `json:"server_status"`
	Absent       bool                    `json:"absent"`
}

// SessionView is the marking screen state, including the summary banner counts.
type SessionView struct {
	ID           string                `json:"id"`
	ClassID      string                `json:"class_id"`
	Date         string                `json:"date"`
	Locked       bool                  `json:"locked"`
	Phase        models.SelectionPhase `json:"phase"`
	Entries      []SessionEntry        `json:"entries"`
	AbsentIDs    []string              `json:"absent_ids"`
	PresentCount int                   `json:"present_count"`
	TotalCount   int                   `json:"total_count"`
}
