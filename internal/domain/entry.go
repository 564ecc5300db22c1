package domain

import (
	"strconv"
	"strings"
)

// CalendarEntry is one named figure or feast observed on one calendar day.
type CalendarEntry struct {
	Month        int
	Day          int
	Name         string
	Priority     int // 0 means not scored yet
	Description  string
	ImageRef     string
	ReferenceURL string
	Tags         string
	PrayerText   string
}

// SaintKey is the natural key of a CalendarEntry.
type SaintKey struct {
	Month int
	Day   int
	Name  string
}

func (k SaintKey) String() string {
	return strconv.Itoa(k.Month) + "-" + strconv.Itoa(k.Day) + " " + k.Name
}

func (e CalendarEntry) Key() SaintKey {
	return SaintKey{Month: e.Month, Day: e.Day, Name: strings.TrimSpace(e.Name)}
}

// Field names an optional, augmentable field of a stored record.
type Field string

const (
	FieldPriority     Field = "priority"
	FieldImage        Field = "image_ref"
	FieldDescription  Field = "description"
	FieldReferenceURL Field = "reference_url"
	FieldPrayer       Field = "prayer_text"

	FieldFirstReading Field = "first_reading"
	FieldPsalm        Field = "psalm"
	FieldGospel       Field = "gospel"
)

// SaintFields lists the CalendarEntry gaps in reporting order.
var SaintFields = []Field{FieldPriority, FieldImage, FieldDescription, FieldReferenceURL, FieldPrayer}

// GapStatus is the coarse answer of a store lookup.
type GapStatus int

const (
	NotPresent GapStatus = iota
	Complete
	Incomplete
)

func (s GapStatus) String() string {
	switch s {
	case NotPresent:
		return "not_present"
	case Complete:
		return "complete"
	default:
		return "incomplete"
	}
}

// Gaps describes which fields a stored record still lacks.
type Gaps struct {
	Status  GapStatus
	Missing []Field
}

func (g Gaps) Has(field Field) bool {
	for _, f := range g.Missing {
		if f == field {
			return true
		}
	}
	return false
}

// MissingFields returns the empty fields of e in SaintFields order.
func (e CalendarEntry) MissingFields() []Field {
	missing := make([]Field, 0, len(SaintFields))
	for _, field := range SaintFields {
		if e.isEmpty(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

func (e CalendarEntry) isEmpty(field Field) bool {
	switch field {
	case FieldPriority:
		return e.Priority <= 0
	case FieldImage:
		return strings.TrimSpace(e.ImageRef) == ""
	case FieldDescription:
		return strings.TrimSpace(e.Description) == ""
	case FieldReferenceURL:
		return strings.TrimSpace(e.ReferenceURL) == ""
	case FieldPrayer:
		return strings.TrimSpace(e.PrayerText) == ""
	}
	return false
}

// GapsAgainst reports e's status with respect to the required fields. A nil
// required list means every field in SaintFields.
func (e CalendarEntry) GapsAgainst(required []Field) Gaps {
	if required == nil {
		required = SaintFields
	}
	missing := make([]Field, 0)
	for _, field := range required {
		if e.isEmpty(field) {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return Gaps{Status: Complete}
	}
	return Gaps{Status: Incomplete, Missing: missing}
}

// Merge fills the empty fields of e from incoming. Populated fields of e are
// never replaced. It reports whether anything changed.
func (e CalendarEntry) Merge(incoming CalendarEntry) (CalendarEntry, bool) {
	merged := e
	changed := false

	if merged.Priority <= 0 && incoming.Priority > 0 {
		merged.Priority = incoming.Priority
		changed = true
	}
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
			*dst = src
			changed = true
		}
	}
	fill(&merged.Description, incoming.Description)
	fill(&merged.ImageRef, incoming.ImageRef)
	fill(&merged.ReferenceURL, incoming.ReferenceURL)
	fill(&merged.Tags, incoming.Tags)
	fill(&merged.PrayerText, incoming.PrayerText)

	return merged, changed
}
