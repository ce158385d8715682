package domain

import (
	"fmt"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/util"
)

// CalendarMonth identifies a month of a year, independent of day and location.
type CalendarMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) CalendarMonth {
	return CalendarMonth{Year: t.Year(), Month: t.Month()}
}

// CurrentMonth returns the calendar month of the local clock.
func CurrentMonth() CalendarMonth {
	return MonthOf(time.Now())
}

// ParseCalendarMonth parses "YYYY-MM".
func ParseCalendarMonth(s string) (CalendarMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return CalendarMonth{}, ErrInvalidMonth
	}
	return MonthOf(t), nil
}

// Contains reports whether t falls in the same calendar year and month.
// The day of month and the time of day are ignored.
func (m CalendarMonth) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// Start returns the first day of the month at midnight UTC.
func (m CalendarMonth) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month at midnight UTC.
func (m CalendarMonth) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

// Next returns the following calendar month.
func (m CalendarMonth) Next() CalendarMonth {
	y, mo := util.NextMonth(m.Year, int(m.Month))
	return CalendarMonth{Year: y, Month: time.Month(mo)}
}

// Previous returns the preceding calendar month.
func (m CalendarMonth) Previous() CalendarMonth {
	y, mo := util.PreviousMonth(m.Year, int(m.Month))
	return CalendarMonth{Year: y, Month: time.Month(mo)}
}

// IsZero reports whether the month was never set.
func (m CalendarMonth) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

func (m CalendarMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
