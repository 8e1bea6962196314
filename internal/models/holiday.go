package models

import (
	"sort"
	"time"
)

// HolidayCategory classifies which students a holiday applies to.
type HolidayCategory string

const (
	HolidayForAll      HolidayCategory = "FOR_ALL"
	HolidayCelebration HolidayCategory = "CELEBRATION"
	HolidayForStudents HolidayCategory = "FOR_STUDENTS"
)

// HolidayRecord is one holiday definition for a single day.
// An empty ApplicableClassIDs set means every class.
type HolidayRecord struct {
	Date               time.Time       `json:"date"`
	Category           HolidayCategory `json:"category"`
	ApplicableClassIDs []string        `json:"applicable_class_ids,omitempty"`
}

// Holiday is a stored holiday spanning one or more days.
type Holiday struct {
	ID        string          `db:"id" json:"id"`
	BranchID  string          `db:"branch_id" json:"branch_id"`
	Title     string          `db:"title" json:"title"`
	Category  HolidayCategory `db:"category" json:"category"`
	StartDate time.Time       `db:"start_date" json:"start_date"`
	EndDate   time.Time       `db:"end_date" json:"end_date"`
	ClassIDs  []string        `db:"-" json:"class_ids,omitempty"`
}

// CalendarTag is the color tag painted on a calendar day.
type CalendarTag string

const (
	TagHolidayAll         CalendarTag = "HOLIDAY_ALL"
	TagHolidayCelebration CalendarTag = "HOLIDAY_CELEBRATION"
	TagHolidayClass       CalendarTag = "HOLIDAY_CLASS"
	TagPresent            CalendarTag = "PRESENT"
	TagAbsent             CalendarTag = "ABSENT"
)

// IsHoliday reports whether the tag came from a holiday record.
func (t CalendarTag) IsHoliday() bool {
	switch t {
	case TagHolidayAll, TagHolidayCelebration, TagHolidayClass:
		return true
	default:
		return false
	}
}

// CalendarOverlay is the reconciled per-day view for one student and month.
// Days are keyed by DateLayout.
type CalendarOverlay struct {
	Days         map[string]CalendarTag `json:"days"`
	PresentCount int                    `json:"present_count"`
	AbsentCount  int                    `json:"absent_count"`
}

// CalendarDay is a single entry of SortedDays.
type CalendarDay struct {
	Date string      `json:"date"`
	Tag  CalendarTag `json:"tag"`
}

// SortedDays returns the overlay days in calendar order.
func (o CalendarOverlay) SortedDays() []CalendarDay {
	days := make([]CalendarDay, 0, len(o.Days))
	for date, tag := range o.Days {
		days = append(days, CalendarDay{Date: date, Tag: tag})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
