package dto

import "github.com/noah-isme/sma-attendance-api/internal/models"

// CalendarView is the reconciled month calendar of one student.
type CalendarView struct {
	EnrollmentID string                 `json:"enrollment_id"`
	ClassID      string                 `json:"class_id"`
	Month        string                 `json:"month"`
	Overlay      models.CalendarOverlay `json:"overlay"`
	Days         []models.CalendarDay   `json:"days"`
}
