package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

func TestAttendanceRepositorySubmitBatch(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)INSERT INTO daily_attendance .* VALUES \(\$1, .*\$7\), \(\$8, .*\$14\), \(\$15, .*\$21\)\s+ON CONFLICT \(enrollment_id, date\) DO NOTHING RETURNING id`).
		WithArgs(
			sqlmock.AnyArg(), "e1", date, codeAbsent, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), "e2", date, codePresent, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), "e3", date, codeAbsent, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("row-e1").AddRow("row-e2").AddRow("row-e3"))
	mock.ExpectCommit()

	err := repo.SubmitBatch(context.Background(), date, models.SubmissionPayload{
		AllStudentIDs:    []string{"e1", "e2", "e3"},
		AbsentStudentIDs: []string{"e1", "e3"},
	}, "teacher-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySubmitBatchRollsBackOnExistingMark(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO daily_attendance").
		WithArgs(
			sqlmock.AnyArg(), "e1", date, codePresent, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), "e2", date, codePresent, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("row-e1"))
	mock.ExpectRollback()

	err := repo.SubmitBatch(context.Background(), date, models.SubmissionPayload{AllStudentIDs: []string{"e1", "e2"}}, "teacher-1")
	assert.ErrorIs(t, err, ErrAlreadyMarked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySubmitBatchRollsBackOnInsertError(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO daily_attendance").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.SubmitBatch(context.Background(), time.Now(), models.SubmissionPayload{AllStudentIDs: []string{"e1"}}, "teacher-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyMarked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySubmitEmptyBatch(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	require.NoError(t, repo.SubmitBatch(context.Background(), time.Now(), models.SubmissionPayload{}, "teacher-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMonthHistory(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	month := models.Month{Year: 2024, Month: time.January}

	rows := sqlmock.NewRows([]string{"date", "status"}).
		AddRow(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "H").
		AddRow(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), "A").
		AddRow(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), "I")
	mock.ExpectQuery("SELECT da.date, da.status").
		WithArgs("e1", month.Start(), month.End()).
		WillReturnRows(rows)

	records, err := repo.MonthHistory(context.Background(), "e1", month)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, models.AttendancePresent, records[0].Status)
	assert.Equal(t, models.AttendanceAbsent, records[1].Status)
	assert.False(t, records[2].Status.Valid())
	assert.NoError(t, mock.ExpectationsWereMet())
}
