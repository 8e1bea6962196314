package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/dto"
	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/logger"
)

type rosterFetcher interface {
	FetchRoster(ctx context.Context, query models.RosterQuery) ([]models.RosterEntry, error)
}

type attendanceSubmitter interface {
	SubmitBatch(ctx context.Context, date time.Time, payload models.SubmissionPayload, markedBy string) error
}

// SessionStore stages marking sessions between requests. Save is a
// compare-and-set on StagedSession.Version and fails with
// repository.ErrVersionConflict when the stored session moved on.
type SessionStore interface {
	Save(ctx context.Context, session *models.StagedSession, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.StagedSession, error)
	Delete(ctx context.Context, id string) error
}

// MarkingService runs the roster selection, confirmation and submission
// workflow. Sessions are staged in a SessionStore between requests and are
// only visible to the user who opened them.
type MarkingService struct {
	roster    rosterFetcher
	submitter attendanceSubmitter
	store     SessionStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// MarkingOptions carries the optional collaborators of MarkingService.
type MarkingOptions struct {
	Cache      *CacheService
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	SessionTTL time.Duration
}

// NewMarkingService constructs the marking workflow service.
func NewMarkingService(roster rosterFetcher, submitter attendanceSubmitter, store SessionStore, opts MarkingOptions) *MarkingService {
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	return &MarkingService{
		roster:    roster,
		submitter: submitter,
		store:     store,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		validator: opts.Validator,
		logger:    opts.Logger,
		ttl:       opts.SessionTTL,
		now:       time.Now,
	}
}

// Open fetches the roster of a class for a day and stages a new session for it.
func (s *MarkingService) Open(ctx context.Context, req dto.OpenSessionRequest, claims *models.JWTClaims) (*dto.SessionView, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session request")
	}
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}

	entries, err := s.roster.FetchRoster(ctx, models.RosterQuery{ClassID: req.ClassID, Date: date})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch roster")
	}

	session := NewRosterSelectionSession(entries)
	staged := &models.StagedSession{
		ID:        uuid.NewString(),
		ClassID:   req.ClassID,
		Date:      req.Date,
		OwnerID:   claims.UserID,
		Snapshot:  session.Snapshot(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, staged, s.ttl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage marking session")
	}

	logger.WithContext(ctx, s.logger).Info("marking session opened",
		zap.String("session_id", staged.ID),
		zap.String("class_id", req.ClassID),
		zap.String("date", req.Date),
		zap.Int("students", session.TotalCount()),
		zap.Bool("locked", session.Locked()),
	)
	return sessionView(staged, session), nil
}

// Get returns the current state of a staged session.
func (s *MarkingService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*dto.SessionView, error) {
	staged, err := s.load(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	return sessionView(staged, RestoreSession(staged.Snapshot)), nil
}

// Toggle flags or clears a single student.
func (s *MarkingService) Toggle(ctx context.Context, id string, req dto.ToggleAbsenceRequest, claims *models.JWTClaims) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid toggle request")
	}
	return s.mutate(ctx, id, claims, func(session *RosterSelectionSession) error {
		return session.ToggleAbsence(req.EnrollmentID, req.Absent)
	})
}

// MarkAll applies ABSENT or PRESENT to every student.
func (s *MarkingService) MarkAll(ctx context.Context, id string, req dto.MarkAllRequest, claims *models.JWTClaims) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark all request")
	}
	return s.mutate(ctx, id, claims, func(session *RosterSelectionSession) error {
		if models.AttendanceStatus(req.Status) == models.AttendanceAbsent {
			return session.BulkMarkAllAbsent()
		}
		return session.BulkMarkAllPresent()
	})
}

// Confirm moves the session into review.
func (s *MarkingService) Confirm(ctx context.Context, id string, claims *models.JWTClaims) (*dto.SessionView, error) {
	return s.mutate(ctx, id, claims, func(session *RosterSelectionSession) error {
		return session.BeginConfirmation()
	})
}

// Cancel leaves review and returns to editing.
func (s *MarkingService) Cancel(ctx context.Context, id string, claims *models.JWTClaims) (*dto.SessionView, error) {
	return s.mutate(ctx, id, claims, func(session *RosterSelectionSession) error {
		session.CancelConfirmation()
		return nil
	})
}

// Submit persists a confirmed session as one batch and discards it.
func (s *MarkingService) Submit(ctx context.Context, id string, claims *models.JWTClaims) (*models.SubmissionResult, error) {
	staged, err := s.load(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	session := RestoreSession(staged.Snapshot)
	payload, err := session.BuildSubmissionPayload()
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(models.DateLayout, staged.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "staged session has an invalid date")
	}

	log := logger.WithContext(ctx, s.logger).With(zap.String("session_id", id), zap.String("class_id", staged.ClassID), zap.String("date", staged.Date))

	err = s.submitter.SubmitBatch(ctx, date, payload, claims.UserID)
	s.metrics.RecordSubmission(err, session.PresentCount(), len(payload.AbsentStudentIDs))
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyMarked) {
			log.Warn("roster already marked", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "attendance already marked for this day, reload the roster")
		}
		log.Error("attendance submission failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit attendance")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		log.Warn("failed to discard submitted session", zap.Error(err))
	}
	s.cache.Invalidate(ctx, overlayMonthPattern(date))

	result := &models.SubmissionResult{
		ClassID:  staged.ClassID,
		Date:     staged.Date,
		Present:  session.PresentCount(),
		Absent:   len(payload.AbsentStudentIDs),
		MarkedBy: claims.UserID,
		MarkedAt: s.now().UTC(),
	}
	log.Info("attendance submitted", zap.Int("present", result.Present), zap.Int("absent", result.Absent))
	return result, nil
}

// maxMutateAttempts bounds how often a mutation is replayed on a fresh
// snapshot after losing a concurrent save.
const maxMutateAttempts = 3

func (s *MarkingService) mutate(ctx context.Context, id string, claims *models.JWTClaims, fn func(*RosterSelectionSession) error) (*dto.SessionView, error) {
	for attempt := 1; ; attempt++ {
		staged, err := s.load(ctx, id, claims)
		if err != nil {
			return nil, err
		}
		session := RestoreSession(staged.Snapshot)
		if err := fn(session); err != nil {
			return nil, err
		}
		staged.Snapshot = session.Snapshot()
		err = s.store.Save(ctx, staged, s.ttl)
		switch {
		case err == nil:
			return sessionView(staged, session), nil
		case errors.Is(err, repository.ErrVersionConflict) && attempt < maxMutateAttempts:
			continue
		case errors.Is(err, repository.ErrVersionConflict):
			logger.WithContext(ctx, s.logger).Warn("marking session contended", zap.String("session_id", id), zap.Int("attempts", attempt))
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "marking session was changed concurrently, reload it")
		case errors.Is(err, repository.ErrSessionNotFound):
			return nil, appErrors.ErrSessionNotFound
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage marking session")
		}
	}
}

func (s *MarkingService) load(ctx context.Context, id string, claims *models.JWTClaims) (*models.StagedSession, error) {
	staged, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marking session")
	}
	if claims == nil || staged.OwnerID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "marking session belongs to another user")
	}
	return staged, nil
}

func sessionView(staged *models.StagedSession, session *RosterSelectionSession) *dto.SessionView {
	entries := session.Entries()
	view := &dto.SessionView{
		ID:           staged.ID,
		ClassID:      staged.ClassID,
		Date:         staged.Date,
		Locked:       session.Locked(),
		Phase:        session.Phase(),
		Entries:      make([]dto.SessionEntry, len(entries)),
		AbsentIDs:    session.AbsentIDs(),
		PresentCount: session.PresentCount(),
		TotalCount:   session.TotalCount(),
	}
	for i, entry := range entries {
		view.Entries[i] = dto.SessionEntry{
			Student:      entry.Student,
			ServerStatus: entry.Status,
			Absent:       session.IsAbsent(entry.Student.EnrollmentID),
		}
	}
	return view
}

func overlayKey(enrollmentID string, month models.Month) string {
	return fmt.Sprintf("calendar:overlay:%s:%s", month, enrollmentID)
}

func overlayMonthPattern(date time.Time) string {
	return fmt.Sprintf("calendar:overlay:%s:*", date.Format("2006-01"))
}
