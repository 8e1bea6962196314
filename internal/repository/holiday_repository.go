package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

// HolidayRepository reads a branch's holiday calendar.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

type holidayRow struct {
	models.Holiday
	ClassIDs pq.StringArray `db:"class_ids"`
}

// List returns holidays of a branch overlapping [from, to).
func (r *HolidayRepository) List(ctx context.Context, branchID string, from, to time.Time) ([]models.Holiday, error) {
	const stmt = `SELECT id, branch_id, title, category, start_date, end_date, class_ids
FROM holidays
WHERE branch_id = $1 AND start_date < $3 AND end_date >= $2
ORDER BY start_date ASC, id ASC`
	var rows []holidayRow
	if err := r.db.SelectContext(ctx, &rows, stmt, branchID, from, to); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	holidays := make([]models.Holiday, len(rows))
	for i, row := range rows {
		h := row.Holiday
		h.ClassIDs = []string(row.ClassIDs)
		holidays[i] = h
	}
	return holidays, nil
}

// ListForMonth expands the branch's holidays into one record per day, clipped
// to the month. Records keep the storage order so overlapping holidays resolve
// by that order.
func (r *HolidayRepository) ListForMonth(ctx context.Context, branchID string, month models.Month) ([]models.HolidayRecord, error) {
	holidays, err := r.List(ctx, branchID, month.Start(), month.End())
	if err != nil {
		return nil, err
	}
	return ExpandHolidays(holidays, month.Start(), month.End()), nil
}

// ExpandHolidays turns multi-day holidays into per-day records within [from, to).
func ExpandHolidays(holidays []models.Holiday, from, to time.Time) []models.HolidayRecord {
	var records []models.HolidayRecord
	for _, h := range holidays {
		start := truncateDay(h.StartDate)
		end := truncateDay(h.EndDate)
		if start.Before(from) {
			start = from
		}
		for d := start; !d.After(end) && d.Before(to); d = d.AddDate(0, 0, 1) {
			records = append(records, models.HolidayRecord{
				Date:               d,
				Category:           h.Category,
				ApplicableClassIDs: h.ClassIDs,
			})
		}
	}
	return records
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
