package cmd

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/pkg/errors"
)

func isValidation(err error) bool {
	var target *errors.ValidationError
	return stderrors.As(err, &target)
}

func TestRangeFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags rangeFlags
		want  domain.DayRange
		full  bool
	}{
		{"year", rangeFlags{Year: true}, domain.YearRange(), true},
		{"month", rangeFlags{Month: 2}, domain.DayRange{From: domain.CalendarDay{Month: 2, Day: 1}, To: domain.CalendarDay{Month: 2, Day: 29}}, false},
		{"single day", rangeFlags{Month: 10, Day: 4}, domain.DayRange{From: domain.CalendarDay{Month: 10, Day: 4}, To: domain.CalendarDay{Month: 10, Day: 4}}, false},
		{"range", rangeFlags{From: "12-24", To: "12-31"}, domain.DayRange{From: domain.CalendarDay{Month: 12, Day: 24}, To: domain.CalendarDay{Month: 12, Day: 31}}, false},
		{"range spanning the year", rangeFlags{From: "01-01", To: "12-31"}, domain.YearRange(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, full, err := tt.flags.dayRange()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.full, full)
		})
	}
}

func TestRangeFlagsRejectsBadInput(t *testing.T) {
	bad := map[string]rangeFlags{
		"no mode":           {},
		"two modes":         {Year: true, Month: 3},
		"month too large":   {Month: 13},
		"day too large":     {Month: 4, Day: 31},
		"day without month": {Year: true, Day: 3},
		"half range":        {From: "01-01"},
		"reversed range":    {From: "05-01", To: "04-01"},
		"malformed day":     {From: "5/1", To: "05-02"},
	}
	for name, flags := range bad {
		t.Run(name, func(t *testing.T) {
			_, _, err := flags.dayRange()
			require.Error(t, err)
			assert.True(t, isValidation(err), "got %T", err)
		})
	}
}

func TestParseDateRange(t *testing.T) {
	from, to, err := parseDateRange("2025-10-01", "")
	require.NoError(t, err)
	assert.Equal(t, from, to)

	from, to, err = parseDateRange("2025-10-01", "2025-10-07")
	require.NoError(t, err)
	assert.Equal(t, 6*24*time.Hour, to.Sub(from))

	_, _, err = parseDateRange("2025-10-07", "2025-10-01")
	assert.True(t, isValidation(err))

	_, _, err = parseDateRange("01/10/2025", "")
	assert.True(t, isValidation(err))
}

func TestValidateYearAndSource(t *testing.T) {
	assert.NoError(t, validateYear(2025))
	assert.True(t, isValidation(validateYear(25)))

	assert.NoError(t, validReadingsSource("RSS"))
	assert.True(t, isValidation(validReadingsSource("feedburner")))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("y\n"), &out, "Long run."))
	assert.Contains(t, out.String(), "Continue? (y/N)")

	assert.False(t, confirm(strings.NewReader("\n"), &out, "Long run."))
	assert.False(t, confirm(strings.NewReader(""), &out, "Long run."))
}

func TestFullYearRunCancelledWithoutNetwork(t *testing.T) {
	t.Cleanup(func() { saintsRange, saintsYes = rangeFlags{}, false })

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader("n\n"))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"saints", "run", "--year"})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Cancelled.")
}

func TestInvalidRangeFailsBeforeConfig(t *testing.T) {
	t.Cleanup(func() { saintsRange = rangeFlags{} })
	t.Setenv("SANTORAL_SOURCE", "not-a-source")

	rootCmd.SetArgs([]string{"saints", "run", "--month", "13"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.True(t, isValidation(err), "got %v", err)
}
