package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

// ErrEnrollmentNotFound is returned when an enrollment id does not resolve.
var ErrEnrollmentNotFound = errors.New("enrollment not found")

// RosterRepository reads class rosters together with the day's marking state.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

type rosterRow struct {
	EnrollmentID string `db:"enrollment_id"`
	RollNumber   string `db:"roll_number"`
	DisplayName  string `db:"display_name"`
	Status       string `db:"status"`
}

// FetchRoster returns the active enrollments of a class ordered by roll number,
// each with the status already stored for the requested date.
func (r *RosterRepository) FetchRoster(ctx context.Context, query models.RosterQuery) ([]models.RosterEntry, error) {
	const stmt = `SELECT e.id AS enrollment_id, e.roll_number, s.full_name AS display_name, COALESCE(da.status, '') AS status
FROM enrollments e
JOIN students s ON s.id = e.student_id
LEFT JOIN daily_attendance da ON da.enrollment_id = e.id AND da.date = $2
WHERE e.class_id = $1 AND e.status = 'ACTIVE'
ORDER BY e.roll_number ASC, s.full_name ASC`
	var rows []rosterRow
	if err := r.db.SelectContext(ctx, &rows, stmt, query.ClassID, query.Date); err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	entries := make([]models.RosterEntry, len(rows))
	for i, row := range rows {
		entries[i] = models.RosterEntry{
			Student: models.StudentRef{
				EnrollmentID: row.EnrollmentID,
				RollNumber:   row.RollNumber,
				DisplayName:  row.DisplayName,
			},
			Status: rosterStatus(row.Status),
		}
	}
	return entries, nil
}

// EnrollmentScope resolves the class and branch of an enrollment.
func (r *RosterRepository) EnrollmentScope(ctx context.Context, enrollmentID string) (*models.EnrollmentScope, error) {
	const stmt = `SELECT e.id AS enrollment_id, e.class_id, c.branch_id
FROM enrollments e
JOIN classes c ON c.id = e.class_id
WHERE e.id = $1`
	var scope models.EnrollmentScope
	if err := r.db.GetContext(ctx, &scope, stmt, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("enrollment scope: %w", err)
	}
	return &scope, nil
}
