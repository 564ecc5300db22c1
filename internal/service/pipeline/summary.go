package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kapu/santoral-go/internal/service/store"
)

// Summary counts the outcome of a run.
type Summary struct {
	Kind     string
	RunID    string
	Started  time.Time
	Finished time.Time

	NewUnits       int // units that inserted at least one record
	UpdatedUnits   int // units that only augmented stored records
	UnchangedUnits int // units that ran but found nothing to add
	SkippedUnits   int
	FailedUnits    int

	Records store.MergeResult
}

// Units is the number of units the run looked at.
func (s Summary) Units() int {
	return s.NewUnits + s.UpdatedUnits + s.UnchangedUnits + s.SkippedUnits + s.FailedUnits
}

func (s *Summary) addDone(res store.MergeResult) {
	switch {
	case res.Inserted > 0:
		s.NewUnits++
	case res.Updated > 0:
		s.UpdatedUnits++
	default:
		s.UnchangedUnits++
	}
	s.Records.Inserted += res.Inserted
	s.Records.Updated += res.Updated
	s.Records.Unchanged += res.Unchanged
}

// Render writes the summary as a table.
func (s Summary) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s run %s", s.Kind, s.RunID))
	t.AppendHeader(table.Row{"Outcome", "Units"})
	t.AppendRows([]table.Row{
		{"new", s.NewUnits},
		{"updated", s.UpdatedUnits},
		{"unchanged", s.UnchangedUnits},
		{"skipped", s.SkippedUnits},
		{"failed", s.FailedUnits},
	})
	t.AppendSeparator()
	t.AppendRow(table.Row{"records inserted", s.Records.Inserted})
	t.AppendRow(table.Row{"records updated", s.Records.Updated})
	if !s.Finished.IsZero() {
		t.AppendFooter(table.Row{"elapsed", s.Finished.Sub(s.Started).Round(time.Millisecond).String()})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
