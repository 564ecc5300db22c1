package domain

import (
	"fmt"
	"strings"
	"time"
)

// DailyReading is the lectionary set for one dated day.
type DailyReading struct {
	Year             int
	Month            int
	Day              int
	Title            string
	FirstReadingRef  string
	FirstReadingText string
	PsalmRef         string
	PsalmText        string
	GospelRef        string
	GospelText       string
}

type ReadingKey struct {
	Year  int
	Month int
	Day   int
}

func (k ReadingKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
}

// Before orders keys chronologically.
func (k ReadingKey) Before(other ReadingKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.Day < other.Day
}

func KeyForDate(date time.Time) ReadingKey {
	return ReadingKey{Year: date.Year(), Month: int(date.Month()), Day: date.Day()}
}

func (r DailyReading) Key() ReadingKey {
	return ReadingKey{Year: r.Year, Month: r.Month, Day: r.Day}
}

func (r DailyReading) Date() time.Time {
	return time.Date(r.Year, time.Month(r.Month), r.Day, 0, 0, 0, 0, time.UTC)
}

// ReadingTitle is the label given to a day that has no better title.
func ReadingTitle(date time.Time) string {
	return "Evangelio del " + date.Format("02/01/2006")
}

// NewPlaceholderReading creates an empty reading covering date.
func NewPlaceholderReading(date time.Time) DailyReading {
	key := KeyForDate(date)
	return DailyReading{
		Year:  key.Year,
		Month: key.Month,
		Day:   key.Day,
		Title: ReadingTitle(date),
	}
}

// MissingFields lists the blank reading slots.
func (r DailyReading) MissingFields() []Field {
	missing := make([]Field, 0, 3)
	if strings.TrimSpace(r.FirstReadingText) == "" {
		missing = append(missing, FieldFirstReading)
	}
	if strings.TrimSpace(r.PsalmText) == "" {
		missing = append(missing, FieldPsalm)
	}
	if strings.TrimSpace(r.GospelText) == "" {
		missing = append(missing, FieldGospel)
	}
	return missing
}

// IsComplete reports whether the gospel, the one slot every source carries, is filled.
func (r DailyReading) IsComplete() bool {
	return strings.TrimSpace(r.GospelText) != ""
}

// Gaps reports the reading's status for the store.
func (r DailyReading) Gaps() Gaps {
	if r.IsComplete() {
		return Gaps{Status: Complete}
	}
	return Gaps{Status: Incomplete, Missing: r.MissingFields()}
}

// Merge fills blank slots of r from incoming without touching filled ones.
// A placeholder title is replaced by a real one.
func (r DailyReading) Merge(incoming DailyReading) (DailyReading, bool) {
	merged := r
	changed := false

	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
			*dst = src
			changed = true
		}
	}

	if merged.Title == ReadingTitle(merged.Date()) && incoming.Title != "" && incoming.Title != merged.Title {
		merged.Title = incoming.Title
		changed = true
	}
	fill(&merged.Title, incoming.Title)
	fill(&merged.FirstReadingRef, incoming.FirstReadingRef)
	fill(&merged.FirstReadingText, incoming.FirstReadingText)
	fill(&merged.PsalmRef, incoming.PsalmRef)
	fill(&merged.PsalmText, incoming.PsalmText)
	fill(&merged.GospelRef, incoming.GospelRef)
	fill(&merged.GospelText, incoming.GospelText)

	return merged, changed
}
