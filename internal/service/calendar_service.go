package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-attendance-api/internal/dto"
	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/export"
	"github.com/noah-isme/sma-attendance-api/pkg/logger"
)

type enrollmentScoper interface {
	EnrollmentScope(ctx context.Context, enrollmentID string) (*models.EnrollmentScope, error)
}

type historyFetcher interface {
	MonthHistory(ctx context.Context, enrollmentID string, month models.Month) ([]models.DayRecord, error)
}

type holidayFetcher interface {
	ListForMonth(ctx context.Context, branchID string, month models.Month) ([]models.HolidayRecord, error)
}

// CalendarService builds a student's reconciled month calendar.
type CalendarService struct {
	scopes    enrollmentScoper
	history   historyFetcher
	holidays  holidayFetcher
	cache     *CacheService
	metrics   *MetricsService
	renderers map[string]export.Renderer
	logger    *zap.Logger
}

// NewCalendarService constructs the calendar service. cache and metrics may be nil.
func NewCalendarService(scopes enrollmentScoper, history historyFetcher, holidays holidayFetcher, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderers := map[string]export.Renderer{}
	for _, r := range []export.Renderer{export.NewCSVExporter(), export.NewPDFExporter(), export.NewXLSXExporter()} {
		renderers[r.Extension()] = r
	}
	return &CalendarService{
		scopes:    scopes,
		history:   history,
		holidays:  holidays,
		cache:     cache,
		metrics:   metrics,
		renderers: renderers,
		logger:    logger,
	}
}

// Month returns the reconciled calendar of an enrollment for a YYYY-MM month.
func (s *CalendarService) Month(ctx context.Context, enrollmentID, rawMonth string, claims *models.JWTClaims) (*dto.CalendarView, error) {
	if !claims.CanReadEnrollment(enrollmentID) {
		return nil, appErrors.ErrForbidden
	}
	month, err := models.ParseMonth(rawMonth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM")
	}

	key := overlayKey(enrollmentID, month)
	var cached dto.CalendarView
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	scope, err := s.scopes.EnrollmentScope(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve enrollment")
	}

	var (
		days     []models.DayRecord
		holidays []models.HolidayRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		days, err = s.history.MonthHistory(gctx, enrollmentID, month)
		return err
	})
	g.Go(func() error {
		var err error
		holidays, err = s.holidays.ListForMonth(gctx, scope.BranchID, month)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.WithContext(ctx, s.logger).Error("calendar fetch failed",
			zap.String("enrollment_id", enrollmentID), zap.String("month", month.String()), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}

	overlay := ReconcileCalendar(days, holidays, scope.ClassID)
	s.metrics.RecordReconciliation()

	view := &dto.CalendarView{
		EnrollmentID: enrollmentID,
		ClassID:      scope.ClassID,
		Month:        month.String(),
		Overlay:      overlay,
		Days:         overlay.SortedDays(),
	}
	s.cache.Set(ctx, key, view, 0)
	return view, nil
}

// ExportFile is a rendered calendar download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Export renders the month calendar as csv, pdf or xlsx.
func (s *CalendarService) Export(ctx context.Context, enrollmentID, rawMonth, format string, claims *models.JWTClaims) (*ExportFile, error) {
	renderer, ok := s.renderers[strings.ToLower(format)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, expected csv, pdf or xlsx")
	}
	view, err := s.Month(ctx, enrollmentID, rawMonth, claims)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   fmt.Sprintf("Attendance %s", view.Month),
		Headers: []string{"date", "status"},
		Rows:    make([]map[string]string, len(view.Days)),
		Summary: []string{
			fmt.Sprintf("present: %d", view.Overlay.PresentCount),
			fmt.Sprintf("absent: %d", view.Overlay.AbsentCount),
		},
	}
	for i, d := range view.Days {
		data.Rows[i] = map[string]string{"date": d.Date, "status": string(d.Tag)}
	}

	body, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("attendance-%s-%s.%s", enrollmentID, view.Month, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
