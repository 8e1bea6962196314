package repository

import "github.com/noah-isme/sma-attendance-api/internal/models"

// Storage codes used by the daily_attendance table.
const (
	codePresent = "H"
	codeSick    = "S"
	codeExcused = "I"
	codeAbsent  = "A"
)

// rosterStatus maps a stored code onto the roster view. Any stored code
// other than present means the student was not counted in, and a missing
// row means the day has not been marked.
func rosterStatus(code string) models.AttendanceStatus {
	switch code {
	case "":
		return models.AttendanceUnmarked
	case codePresent:
		return models.AttendancePresent
	default:
		return models.AttendanceAbsent
	}
}

// dayStatus maps a stored code onto a calendar day record. Sick and excused
// codes have no calendar representation and are passed through as-is so the
// reconciler skips them.
func dayStatus(code string) models.AttendanceStatus {
	switch code {
	case codePresent:
		return models.AttendancePresent
	case codeAbsent:
		return models.AttendanceAbsent
	default:
		return models.AttendanceStatus(code)
	}
}
