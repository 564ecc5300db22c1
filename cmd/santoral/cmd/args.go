package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/pkg/errors"
)

// rangeFlags are the mutually exclusive ways to pick saints days.
type rangeFlags struct {
	Year  bool
	Month int
	Day   int
	From  string
	To    string
}

// dayRange turns the flags into a validated range. full reports a whole-year run.
func (f rangeFlags) dayRange() (rng domain.DayRange, full bool, err error) {
	modes := 0
	if f.Year {
		modes++
	}
	if f.Month != 0 {
		modes++
	}
	if f.From != "" || f.To != "" {
		modes++
	}
	if modes != 1 {
		return rng, false, errors.NewValidationError("pick exactly one of --year, --month or --from/--to", "mode", modes)
	}

	switch {
	case f.Year:
		if f.Day != 0 {
			return rng, false, errors.NewValidationError("--day needs --month", "day", f.Day)
		}
		return domain.YearRange(), true, nil

	case f.Month != 0:
		if f.Day != 0 {
			rng, err = domain.SingleDay(f.Month, f.Day)
		} else {
			rng, err = domain.MonthRange(f.Month)
		}
		if err != nil {
			return rng, false, errors.NewValidationError(err.Error(), "month", f.Month)
		}
		return rng, false, nil

	default:
		if f.From == "" || f.To == "" {
			return rng, false, errors.NewValidationError("--from and --to go together", "range", f.From+".."+f.To)
		}
		if f.Day != 0 {
			return rng, false, errors.NewValidationError("--day needs --month", "day", f.Day)
		}
		from, err := parseMonthDay(f.From)
		if err != nil {
			return rng, false, err
		}
		to, err := parseMonthDay(f.To)
		if err != nil {
			return rng, false, err
		}
		rng, err = domain.NewDayRange(from, to)
		if err != nil {
			return rng, false, errors.NewValidationError(err.Error(), "range", f.From+".."+f.To)
		}
		return rng, rng == domain.YearRange(), nil
	}
}

// parseMonthDay reads "MM-DD".
func parseMonthDay(value string) (domain.CalendarDay, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 {
		return domain.CalendarDay{}, errors.NewValidationError("expected MM-DD", "day", value)
	}
	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return domain.CalendarDay{}, errors.NewValidationError("expected MM-DD", "day", value)
	}
	if err := domain.ValidateDay(month, day); err != nil {
		return domain.CalendarDay{}, errors.NewValidationError(err.Error(), "day", value)
	}
	return domain.CalendarDay{Month: month, Day: day}, nil
}

// parseDateRange reads two "YYYY-MM-DD" dates. An empty to means the same day as from.
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, strings.TrimSpace(from))
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewValidationError("expected YYYY-MM-DD", "from", from)
	}
	end := start
	if strings.TrimSpace(to) != "" {
		end, err = time.Parse(time.DateOnly, strings.TrimSpace(to))
		if err != nil {
			return time.Time{}, time.Time{}, errors.NewValidationError("expected YYYY-MM-DD", "to", to)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.NewValidationError("range end is before start", "to", to)
	}
	return start, end, nil
}

func validateYear(year int) error {
	if year < 1900 || year > 2200 {
		return errors.NewValidationError(fmt.Sprintf("year %d out of range 1900-2200", year), "year", year)
	}
	return nil
}

// confirm asks a yes/no question; anything but y/yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s Continue? (y/N) ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true
	default:
		return false
	}
}
