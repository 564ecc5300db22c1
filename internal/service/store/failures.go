package store

import (
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/domain"
)

var failureColumns = []string{"month", "day", "source_url", "reason"}

var failureAliases = map[string]string{
	"mes":    "month",
	"dia":    "day",
	"url":    "source_url",
	"motivo": "reason",
	"razon":  "reason",
	"error":  "reason",
}

// FailureLog is the append-only diagnostics file of days that yielded nothing.
type FailureLog struct {
	table *table
	mu    sync.Mutex
}

func NewFailureLog(path string, opts Options, logger *zap.Logger) *FailureLog {
	return &FailureLog{table: newTable(path, failureColumns, failureAliases, opts, logger)}
}

// Append records failures. Entries are never deduplicated.
func (l *FailureLog) Append(failures ...domain.ExtractionFailure) error {
	if len(failures) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rows := make([]row, len(failures))
	for i, f := range failures {
		rows[i] = row{
			"month":      itoa(f.Month),
			"day":        itoa(f.Day),
			"source_url": f.SourceURL,
			"reason":     f.Reason,
		}
	}
	err := l.table.appendRows(rows)
	if !stderrors.Is(err, errIncompatibleHeader) {
		return err
	}

	existing, err := l.table.read()
	if err != nil {
		return err
	}
	return l.table.rewrite(append(existing, rows...))
}

// Entries reads back every logged failure.
func (l *FailureLog) Entries() ([]domain.ExtractionFailure, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.table.read()
	if err != nil {
		return nil, err
	}
	out := make([]domain.ExtractionFailure, 0, len(rows))
	for _, r := range rows {
		month, _ := atoi(r["month"])
		day, _ := atoi(r["day"])
		out = append(out, domain.ExtractionFailure{
			Month:     month,
			Day:       day,
			SourceURL: r["source_url"],
			Reason:    r["reason"],
		})
	}
	return out, nil
}
