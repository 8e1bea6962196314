package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

// ErrAlreadyMarked is returned when any student of a batch already has a mark for the day.
var ErrAlreadyMarked = errors.New("attendance already marked")

// AttendanceRepository persists daily attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// SubmitBatch records one day's marks for a whole roster with a single
// multi-row insert: absent ids are stored as absent and every other id as
// present. The transaction is rolled back when any enrollment already has a
// mark for the date.
func (r *AttendanceRepository) SubmitBatch(ctx context.Context, date time.Time, payload models.SubmissionPayload, markedBy string) error {
	if len(payload.AllStudentIDs) == 0 {
		return nil
	}
	absent := make(map[string]struct{}, len(payload.AbsentStudentIDs))
	for _, id := range payload.AbsentStudentIDs {
		absent[id] = struct{}{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance batch: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const cols = 7
	now := time.Now().UTC()
	values := make([]string, 0, len(payload.AllStudentIDs))
	args := make([]interface{}, 0, len(payload.AllStudentIDs)*cols)
	for i, enrollmentID := range payload.AllStudentIDs {
		code := codePresent
		if _, ok := absent[enrollmentID]; ok {
			code = codeAbsent
		}
		base := i * cols
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, uuid.NewString(), enrollmentID, date, code, markedBy, now, now)
	}
	stmt := `INSERT INTO daily_attendance (id, enrollment_id, date, status, marked_by, created_at, updated_at)
VALUES ` + strings.Join(values, ", ") + `
ON CONFLICT (enrollment_id, date) DO NOTHING RETURNING id`

	var inserted []string
	if err := tx.SelectContext(ctx, &inserted, stmt, args...); err != nil {
		return fmt.Errorf("insert attendance marks: %w", err)
	}
	if len(inserted) != len(payload.AllStudentIDs) {
		return fmt.Errorf("%d of %d students on %s: %w",
			len(payload.AllStudentIDs)-len(inserted), len(payload.AllStudentIDs), date.Format(models.DateLayout), ErrAlreadyMarked)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance batch: %w", err)
	}
	commit = true
	return nil
}

type historyRow struct {
	Date   time.Time `db:"date"`
	Status string    `db:"status"`
}

// MonthHistory returns one enrollment's day records for a month in date order.
func (r *AttendanceRepository) MonthHistory(ctx context.Context, enrollmentID string, month models.Month) ([]models.DayRecord, error) {
	const stmt = `SELECT da.date, da.status
FROM daily_attendance da
WHERE da.enrollment_id = $1 AND da.date >= $2 AND da.date < $3
ORDER BY da.date ASC`
	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, stmt, enrollmentID, month.Start(), month.End()); err != nil {
		return nil, fmt.Errorf("attendance month history: %w", err)
	}
	records := make([]models.DayRecord, len(rows))
	for i, row := range rows {
		records[i] = models.DayRecord{Date: row.Date.UTC(), Status: dayStatus(row.Status)}
	}
	return records, nil
}
