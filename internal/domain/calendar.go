package domain

import (
	"fmt"
	"strings"
	"time"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// daysInMonth uses 29 for February so the calendar covers leap-day saints.
var daysInMonth = [...]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// CalendarDay is a day of the liturgical calendar without a year.
type CalendarDay struct {
	Month int
	Day   int
}

func (d CalendarDay) String() string {
	return fmt.Sprintf("%02d/%02d", d.Day, d.Month)
}

// Before reports whether d comes earlier in the calendar year than other.
func (d CalendarDay) Before(other CalendarDay) bool {
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// DaysInMonth returns the number of calendar days of month, or 0 when the
// month is out of range.
func DaysInMonth(month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	return daysInMonth[month-1]
}

// SpanishMonth returns the lowercase Spanish month name used by the source sites.
func SpanishMonth(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return spanishMonths[month-1]
}

// MonthFromSpanish maps a Spanish month name (any case) back to its number.
func MonthFromSpanish(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, month := range spanishMonths {
		if month == name {
			return i + 1, true
		}
	}
	return 0, false
}

// ValidateDay checks that month/day names a real calendar day.
func ValidateDay(month, day int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range 1-12", month)
	}
	if day < 1 || day > DaysInMonth(month) {
		return fmt.Errorf("day %d out of range 1-%d for month %d", day, DaysInMonth(month), month)
	}
	return nil
}

// DayRange is an inclusive span of calendar days inside one calendar year.
type DayRange struct {
	From CalendarDay
	To   CalendarDay
}

// NewDayRange validates both ends and their order.
func NewDayRange(from, to CalendarDay) (DayRange, error) {
	if err := ValidateDay(from.Month, from.Day); err != nil {
		return DayRange{}, fmt.Errorf("invalid start: %w", err)
	}
	if err := ValidateDay(to.Month, to.Day); err != nil {
		return DayRange{}, fmt.Errorf("invalid end: %w", err)
	}
	if to.Before(from) {
		return DayRange{}, fmt.Errorf("range end %s is before start %s", to, from)
	}
	return DayRange{From: from, To: to}, nil
}

// YearRange covers every day from January 1 to December 31.
func YearRange() DayRange {
	return DayRange{From: CalendarDay{Month: 1, Day: 1}, To: CalendarDay{Month: 12, Day: 31}}
}

// MonthRange covers every day of month.
func MonthRange(month int) (DayRange, error) {
	return NewDayRange(CalendarDay{Month: month, Day: 1}, CalendarDay{Month: month, Day: DaysInMonth(month)})
}

// SingleDay covers one day.
func SingleDay(month, day int) (DayRange, error) {
	d := CalendarDay{Month: month, Day: day}
	return NewDayRange(d, d)
}

// Days lists the range in calendar order.
func (r DayRange) Days() []CalendarDay {
	days := make([]CalendarDay, 0)
	for month := r.From.Month; month <= r.To.Month; month++ {
		first, last := 1, DaysInMonth(month)
		if month == r.From.Month {
			first = r.From.Day
		}
		if month == r.To.Month {
			last = r.To.Day
		}
		for day := first; day <= last; day++ {
			days = append(days, CalendarDay{Month: month, Day: day})
		}
	}
	return days
}

// WholeMonth reports whether the range is exactly one complete month.
func (r DayRange) WholeMonth() bool {
	return r.From.Month == r.To.Month && r.From.Day == 1 && r.To.Day == DaysInMonth(r.To.Month)
}

// DatesBetween lists the dates from..to inclusive, one per day, at midnight UTC.
func DatesBetween(from, to time.Time) []time.Time {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	dates := make([]time.Time, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
