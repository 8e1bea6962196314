package service

import (
	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

// RosterSelectionSession stages which students of one roster fetch are
// slated to be submitted as absent.
//
// A roster is locked when any entry was already marked server-side. Locked
// sessions mirror the server statuses and ignore every mutation. Unlocked
// sessions move between EDITING and CONFIRMING; mutations are only accepted
// while EDITING and the submission payload only while CONFIRMING.
//
// The session is owned by a single caller and is not safe for concurrent use.
type RosterSelectionSession struct {
	entries []models.RosterEntry
	index   map[string]struct{}
	absent  map[string]struct{}
	locked  bool
	phase   models.SelectionPhase
}

// NewRosterSelectionSession builds a session from a fresh roster fetch.
// Entry order is preserved for display and submission.
func NewRosterSelectionSession(entries []models.RosterEntry) *RosterSelectionSession {
	s := &RosterSelectionSession{
		entries: append([]models.RosterEntry(nil), entries...),
		index:   make(map[string]struct{}, len(entries)),
		absent:  make(map[string]struct{}),
		phase:   models.PhaseEditing,
	}
	for _, entry := range s.entries {
		s.index[entry.Student.EnrollmentID] = struct{}{}
		if entry.Status != models.AttendanceUnmarked {
			s.locked = true
		}
		if entry.Status == models.AttendanceAbsent {
			s.absent[entry.Student.EnrollmentID] = struct{}{}
		}
	}
	return s
}

// Locked reports whether the roster was already marked server-side.
func (s *RosterSelectionSession) Locked() bool { return s.locked }

// Phase returns the current workflow phase.
func (s *RosterSelectionSession) Phase() models.SelectionPhase { return s.phase }

// Entries returns a copy of the roster in fetch order.
func (s *RosterSelectionSession) Entries() []models.RosterEntry {
	return append([]models.RosterEntry(nil), s.entries...)
}

// IsAbsent reports whether the enrollment is currently flagged absent.
func (s *RosterSelectionSession) IsAbsent(enrollmentID string) bool {
	_, ok := s.absent[enrollmentID]
	return ok
}

// AbsentIDs returns the absent set in roster order.
func (s *RosterSelectionSession) AbsentIDs() []string {
	ids := make([]string, 0, len(s.absent))
	for _, entry := range s.entries {
		if s.IsAbsent(entry.Student.EnrollmentID) {
			ids = append(ids, entry.Student.EnrollmentID)
		}
	}
	return ids
}

// TotalCount is the roster size.
func (s *RosterSelectionSession) TotalCount() int { return len(s.entries) }

// PresentCount is the roster size minus the absent set.
func (s *RosterSelectionSession) PresentCount() int { return len(s.entries) - len(s.absent) }

// ToggleAbsence flags or clears an enrollment. A nil forceAbsent flips the
// current membership; true and false assert it. Unknown ids are ignored.
func (s *RosterSelectionSession) ToggleAbsence(enrollmentID string, forceAbsent *bool) error {
	if s.locked {
		return nil
	}
	if err := s.requireEditing("toggle absence"); err != nil {
		return err
	}
	if _, ok := s.index[enrollmentID]; !ok {
		return nil
	}
	absent := !s.IsAbsent(enrollmentID)
	if forceAbsent != nil {
		absent = *forceAbsent
	}
	if absent {
		s.absent[enrollmentID] = struct{}{}
	} else {
		delete(s.absent, enrollmentID)
	}
	return nil
}

// BulkMarkAllAbsent flags every roster member absent.
func (s *RosterSelectionSession) BulkMarkAllAbsent() error {
	if s.locked {
		return nil
	}
	if err := s.requireEditing("mark all absent"); err != nil {
		return err
	}
	for id := range s.index {
		s.absent[id] = struct{}{}
	}
	return nil
}

// BulkMarkAllPresent clears the absent set.
func (s *RosterSelectionSession) BulkMarkAllPresent() error {
	if s.locked {
		return nil
	}
	if err := s.requireEditing("mark all present"); err != nil {
		return err
	}
	s.absent = make(map[string]struct{})
	return nil
}

// BeginConfirmation freezes the selection for review.
func (s *RosterSelectionSession) BeginConfirmation() error {
	if s.locked {
		return appErrors.Clone(appErrors.ErrInvalidState, "roster is already marked")
	}
	if len(s.entries) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidState, "roster is empty")
	}
	if err := s.requireEditing("begin confirmation"); err != nil {
		return err
	}
	s.phase = models.PhaseConfirming
	return nil
}

// CancelConfirmation returns to EDITING. It is a no-op in any other phase.
func (s *RosterSelectionSession) CancelConfirmation() {
	if s.phase == models.PhaseConfirming {
		s.phase = models.PhaseEditing
	}
}

// BuildSubmissionPayload returns every roster id and the absent ids, both in
// fetch order. It is only valid while CONFIRMING.
func (s *RosterSelectionSession) BuildSubmissionPayload() (models.SubmissionPayload, error) {
	if s.phase != models.PhaseConfirming {
		return models.SubmissionPayload{}, appErrors.Clone(appErrors.ErrInvalidState, "submission payload requires confirmation")
	}
	all := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		all = append(all, entry.Student.EnrollmentID)
	}
	return models.SubmissionPayload{AllStudentIDs: all, AbsentStudentIDs: s.AbsentIDs()}, nil
}

func (s *RosterSelectionSession) requireEditing(op string) error {
	if s.phase != models.PhaseEditing {
		return appErrors.Clone(appErrors.ErrInvalidState, op+" is not allowed while confirming")
	}
	return nil
}

// Snapshot captures the session for staging between requests.
func (s *RosterSelectionSession) Snapshot() models.SessionSnapshot {
	return models.SessionSnapshot{Entries: s.Entries(), AbsentIDs: s.AbsentIDs(), Phase: s.phase}
}

// RestoreSession rebuilds a session from a snapshot. Lock state and, for
// locked rosters, the absent set are derived from the entries again; staged
// ids that are not on the roster are dropped.
func RestoreSession(snap models.SessionSnapshot) *RosterSelectionSession {
	s := NewRosterSelectionSession(snap.Entries)
	if s.locked {
		return s
	}
	for _, id := range snap.AbsentIDs {
		if _, ok := s.index[id]; ok {
			s.absent[id] = struct{}{}
		}
	}
	if snap.Phase == models.PhaseConfirming && len(s.entries) > 0 {
		s.phase = models.PhaseConfirming
	}
	return s
}
