package models

import "time"

// DateLayout is the calendar date layout used for keys and query strings.
const DateLayout = "2006-01-02"

// AttendanceStatus is a student's marking state for one day.
type AttendanceStatus string

const (
	AttendanceUnmarked AttendanceStatus = "UNMARKED"
	AttendancePresent  AttendanceStatus = "PRESENT"
	AttendanceAbsent   AttendanceStatus = "ABSENT"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceUnmarked, AttendancePresent, AttendanceAbsent:
		return true
	default:
		return false
	}
}

// StudentRef identifies a student within a roster.
type StudentRef struct {
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
	RollNumber   string `db:"roll_number" json:"roll_number"`
	DisplayName  string `db:"display_name" json:"display_name"`
}

// RosterEntry is one student's server-reported state at fetch time.
type RosterEntry struct {
	Student StudentRef       `json:"student"`
	Status  AttendanceStatus `json:"status"`
}

// RosterQuery selects the roster of a class for a single day.
type RosterQuery struct {
	ClassID string
	Date    time.Time
}

// SubmissionPayload is the unit handed to the submission collaborator.
type SubmissionPayload struct {
	AllStudentIDs    []string `json:"all_student_ids"`
	AbsentStudentIDs []string `json:"absent_student_ids"`
}

// SelectionPhase is the workflow phase of a marking session.
type SelectionPhase string

const (
	PhaseEditing    SelectionPhase = "EDITING"
	PhaseConfirming SelectionPhase = "CONFIRMING"
)

// DayRecord is one calendar day's attendance fact.
type DayRecord struct {
	Date   time.Time        `json:"date"`
	Status AttendanceStatus `json:"status"`
}

// SubmissionResult reports what the submission collaborator persisted.
type SubmissionResult struct {
	ClassID  string    `json:"class_id"`
	Date     string    `json:"date"`
	Present  int       `json:"present"`
	Absent   int       `json:"absent"`
	MarkedBy string    `json:"marked_by"`
	MarkedAt time.Time `json:"marked_at"`
}

// EnrollmentScope locates an enrollment within its class and branch.
type EnrollmentScope struct {
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
	ClassID      string `db:"class_id" json:"class_id"`
	BranchID     string `db:"branch_id" json:"branch_id"`
}

// Month is a calendar month in UTC.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return Month{}, err
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Start is the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first day of the following month (exclusive bound).
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

func (m Month) String() string {
	return m.Start().Format("2006-01")
}

// SessionSnapshot is the serialisable form of a marking session.
type SessionSnapshot struct {
	Entries   []RosterEntry  `json:"entries"`
	AbsentIDs []string       `json:"absent_ids"`
	Phase     SelectionPhase `json:"phase"`
}

// StagedSession is a marking session parked between requests. Version is
// bumped by every successful save; a save carrying a stale version is rejected.
type StagedSession struct {
	ID        string          `json:"id"`
	Version   int64           `json:"version"`
	ClassID   string          `json:"class_id"`
	Date      string          `json:"date"`
	OwnerID   string          `json:"owner_id"`
	Snapshot  SessionSnapshot `json:"snapshot"`
	CreatedAt time.Time       `json:"created_at"`
}
