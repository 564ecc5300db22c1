package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCalendarEntryMergeNeverClearsFields(t *testing.T) {
	stored := CalendarEntry{Month: 10, Day: 4, Name: "San Francisco de Asís", Description: "X"}
	incoming := CalendarEntry{Month: 10, Day: 4, Name: "San Francisco de Asís", ImageRef: "img.jpg"}

	merged, changed := stored.Merge(incoming)

	want := CalendarEntry{Month: 10, Day: 4, Name: "San Francisco de Asís", Description: "X", ImageRef: "img.jpg"}
	assert.True(t, changed)
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestCalendarEntryMergeKeepsPopulatedValues(t *testing.T) {
	stored := CalendarEntry{Priority: 50, Description: "original", Tags: "major-feast"}
	incoming := CalendarEntry{Priority: 100, Description: "other", Tags: "regional-patron", PrayerText: "Oh Dios"}

	merged, changed := stored.Merge(incoming)

	assert.True(t, changed)
	assert.Equal(t, 50, merged.Priority)
	assert.Equal(t, "original", merged.Description)
	assert.Equal(t, "major-feast", merged.Tags)
	assert.Equal(t, "Oh Dios", merged.PrayerText)
}

func TestCalendarEntryMergeUnchanged(t *testing.T) {
	stored := CalendarEntry{Priority: 50, Description: "X"}
	_, changed := stored.Merge(CalendarEntry{})
	assert.False(t, changed)
}

func TestGapsAgainst(t *testing.T) {
	entry := CalendarEntry{Priority: 50, Description: "d", ReferenceURL: "https://x"}

	assert.Equal(t, Complete, entry.GapsAgainst([]Field{FieldPriority, FieldDescription, FieldReferenceURL}).Status)

	gaps := entry.GapsAgainst(nil)
	assert.Equal(t, Incomplete, gaps.Status)
	assert.Equal(t, []Field{FieldImage, FieldPrayer}, gaps.Missing)
	assert.True(t, gaps.Has(FieldImage))
	assert.False(t, gaps.Has(FieldDescription))
}

func TestDailyReadingMerge(t *testing.T) {
	date := NewPlaceholderReading(mustDate(t, "2025-10-04"))
	assert.Equal(t, "Evangelio del 04/10/2025", date.Title)
	assert.False(t, date.IsComplete())

	incoming := DailyReading{Year: 2025, Month: 10, Day: 4, Title: "Sábado XXVI", GospelRef: "Lc 10, 17-24", GospelText: "En aquel tiempo..."}
	merged, changed := date.Merge(incoming)
	assert.True(t, changed)
	assert.Equal(t, "Sábado XXVI", merged.Title)
	assert.True(t, merged.IsComplete())

	again, changed := merged.Merge(DailyReading{GospelText: "otro texto", Title: "Otro"})
	assert.False(t, changed)
	assert.Equal(t, merged, again)
}
