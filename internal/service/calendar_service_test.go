package service

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type scoperStub struct {
	scope *models.EnrollmentScope
	err   error
}

func (s scoperStub) EnrollmentScope(ctx context.Context, enrollmentID string) (*models.EnrollmentScope, error) {
	return s.scope, s.err
}

type historyStub struct {
	days  []models.DayRecord
	err   error
	calls int32
}

func (s *historyStub) MonthHistory(ctx context.Context, enrollmentID string, month models.Month) ([]models.DayRecord, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.days, s.err
}

type holidayStub struct {
	records  []models.HolidayRecord
	branchID string
}

func (s *holidayStub) ListForMonth(ctx context.Context, branchID string, month models.Month) ([]models.HolidayRecord, error) {
	s.branchID = branchID
	return s.records, nil
}

func newCalendarFixture(cacheEnabled bool) (*CalendarService, *historyStub, *holidayStub) {
	history := &historyStub{days: []models.DayRecord{
		{Date: day(1), Status: models.AttendanceAbsent},
		{Date: day(2), Status: models.AttendancePresent},
		{Date: day(3), Status: models.AttendanceAbsent},
	}}
	holidays := &holidayStub{records: []models.HolidayRecord{{Date: day(1), Category: models.HolidayForAll}}}
	cache := NewCacheService(&cacheRepoStub{}, nil, time.Minute, nil, cacheEnabled)
	svc := NewCalendarService(
		scoperStub{scope: &models.EnrollmentScope{EnrollmentID: "e1", ClassID: "class-a", BranchID: "branch-1"}},
		history, holidays, cache, NewMetricsService(), nil,
	)
	return svc, history, holidays
}

func TestCalendarServiceMonth(t *testing.T) {
	svc, _, holidays := newCalendarFixture(false)

	view, err := svc.Month(context.Background(), "e1", "2024-01", teacherClaims)
	require.NoError(t, err)
	assert.Equal(t, "branch-1", holidays.branchID)
	assert.Equal(t, "class-a", view.ClassID)
	assert.Equal(t, "2024-01", view.Month)
	assert.Equal(t, 1, view.Overlay.PresentCount)
	assert.Equal(t, 1, view.Overlay.AbsentCount)
	assert.Equal(t, []models.CalendarDay{
		{Date: "2024-01-01", Tag: models.TagHolidayAll},
		{Date: "2024-01-02", Tag: models.TagPresent},
		{Date: "2024-01-03", Tag: models.TagAbsent},
	}, view.Days)
}

func TestCalendarServiceUsesCache(t *testing.T) {
	svc, history, _ := newCalendarFixture(true)

	_, err := svc.Month(context.Background(), "e1", "2024-01", teacherClaims)
	require.NoError(t, err)
	view, err := svc.Month(context.Background(), "e1", "2024-01", teacherClaims)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&history.calls))
	assert.Equal(t, 1, view.Overlay.AbsentCount)
}

func TestCalendarServiceAccessAndValidation(t *testing.T) {
	svc, _, _ := newCalendarFixture(false)
	ctx := context.Background()

	student := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent, EnrollmentIDs: []string{"e1"}}
	_, err := svc.Month(ctx, "e1", "2024-01", student)
	require.NoError(t, err)

	_, err = svc.Month(ctx, "e2", "2024-01", student)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Month(ctx, "e1", "January", teacherClaims)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarServiceErrors(t *testing.T) {
	svc := NewCalendarService(scoperStub{err: repository.ErrEnrollmentNotFound}, &historyStub{}, &holidayStub{}, nil, nil, nil)
	_, err := svc.Month(context.Background(), "e9", "2024-01", teacherClaims)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	svc = NewCalendarService(
		scoperStub{scope: &models.EnrollmentScope{EnrollmentID: "e1", ClassID: "c", BranchID: "b"}},
		&historyStub{err: errors.New("timeout")}, &holidayStub{}, nil, nil, nil,
	)
	_, err = svc.Month(context.Background(), "e1", "2024-01", teacherClaims)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestCalendarServiceExport(t *testing.T) {
	svc, _, _ := newCalendarFixture(false)

	file, err := svc.Export(context.Background(), "e1", "2024-01", "CSV", teacherClaims)
	require.NoError(t, err)
	assert.Equal(t, "attendance-e1-2024-01.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("date,status\n2024-01-01,HOLIDAY_ALL\n")))
	assert.Contains(t, string(file.Body), "absent: 1")

	_, err = svc.Export(context.Background(), "e1", "2024-01", "docx", teacherClaims)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
