package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/money"
)

// Month identifies one calendar month, the unit of period close.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses the "2006-01" form used in API paths and storage.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("ParseMonth: %w", ErrInvalidRequest)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month; the month covers
// [Start, End).
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// LastDay returns the final day of the month, used to date closing entries.
func (m Month) LastDay() time.Time {
	return m.End().AddDate(0, 0, -1)
}

func (m Month) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(m.Start()) && u.Before(m.End())
}

// ClosedPeriod locks a month's books. Once a row exists, no journal entry
// dated inside the month may be posted.
type ClosedPeriod struct {
	ID               uuid.UUID
	Month            Month
	NetProfit        money.Money
	TotalAssets      money.Money
	TotalLiabilities money.Money
	ClosedAt         time.Time
	ClosedBy         string
}
