package service

import "github.com/noah-isme/sma-attendance-api/internal/models"

// ReconcileCalendar merges one student's month of attendance with the branch
// holidays into a single tag per day.
//
// Holidays are applied first in input order, so the last applicable holiday
// on a date wins. Present records then overwrite any tag. Absent records are
// only counted, and only tag the day, when no holiday tag is present.
// Records with any other status are ignored.
func ReconcileCalendar(days []models.DayRecord, holidays []models.HolidayRecord, classID string) models.CalendarOverlay {
	overlay := models.CalendarOverlay{Days: make(map[string]models.CalendarTag)}

	for _, h := range holidays {
		tag, ok := holidayTag(h, classID)
		if !ok {
			continue
		}
		overlay.Days[h.Date.Format(models.DateLayout)] = tag
	}

	for _, d := range days {
		if d.Status != models.AttendancePresent {
			continue
		}
		overlay.Days[d.Date.Format(models.DateLayout)] = models.TagPresent
		overlay.PresentCount++
	}

	for _, d := range days {
		if d.Status != models.AttendanceAbsent {
			continue
		}
		key := d.Date.Format(models.DateLayout)
		if overlay.Days[key].IsHoliday() {
			continue
		}
		overlay.Days[key] = models.TagAbsent
		overlay.AbsentCount++
	}

	return overlay
}

func holidayTag(h models.HolidayRecord, classID string) (models.CalendarTag, bool) {
	switch h.Category {
	case models.HolidayForAll:
		return models.TagHolidayAll, true
	case models.HolidayCelebration:
		return models.TagHolidayCelebration, true
	case models.HolidayForStudents:
		if len(h.ApplicableClassIDs) == 0 {
			return models.TagHolidayClass, true
		}
		for _, id := range h.ApplicableClassIDs {
			if id == classID {
				return models.TagHolidayClass, true
			}
		}
	}
	return "", false
}
