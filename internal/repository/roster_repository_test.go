package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRosterRepositoryFetchRoster(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)
	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"enrollment_id", "roll_number", "display_name", "status"}).
		AddRow("e1", "01", "Ada", "").
		AddRow("e2", "02", "Ben", "H").
		AddRow("e3", "03", "Cy", "A").
		AddRow("e4", "04", "Di", "S")
	mock.ExpectQuery("SELECT e.id AS enrollment_id, e.roll_number, s.full_name AS display_name").
		WithArgs("class-1", date).
		WillReturnRows(rows)

	entries, err := repo.FetchRoster(context.Background(), models.RosterQuery{ClassID: "class-1", Date: date})
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, models.StudentRef{EnrollmentID: "e1", RollNumber: "01", DisplayName: "Ada"}, entries[0].Student)
	assert.Equal(t, models.AttendanceUnmarked, entries[0].Status)
	assert.Equal(t, models.AttendancePresent, entries[1].Status)
	assert.Equal(t, models.AttendanceAbsent, entries[2].Status)
	assert.Equal(t, models.AttendanceAbsent, entries[3].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryEnrollmentScope(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery("FROM enrollments e\\s+JOIN classes c").
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "class_id", "branch_id"}).AddRow("e1", "class-1", "branch-1"))
	scope, err := repo.EnrollmentScope(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, &models.EnrollmentScope{EnrollmentID: "e1", ClassID: "class-1", BranchID: "branch-1"}, scope)

	mock.ExpectQuery("FROM enrollments e").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.EnrollmentScope(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
