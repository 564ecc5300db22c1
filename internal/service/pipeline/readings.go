package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/internal/service/extractor"
	"github.com/kapu/santoral-go/internal/service/store"
	"github.com/kapu/santoral-go/pkg/errors"
)

type ReadingsDeps struct {
	Source   extractor.ReadingsSource
	Getter   extractor.Getter
	Store    *store.ReadingsStore
	Failures *store.FailureLog
	Pacer    Pacer
}

// ReadingsRunner fills the readings store for a span of dates. A page that
// covers several days (a feed) is fetched once per run.
type ReadingsRunner struct {
	deps   ReadingsDeps
	logger *zap.Logger
	now    func() time.Time

	pages map[string][]byte
}

func NewReadingsRunner(deps ReadingsDeps, logger *zap.Logger) *ReadingsRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadingsRunner{deps: deps, logger: logger, now: time.Now}
}

// Run processes every date from..to inclusive.
func (r *ReadingsRunner) Run(ctx context.Context, from, to time.Time) (Summary, error) {
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))
	summary := Summary{Kind: "readings", RunID: runID, Started: r.now()}
	r.pages = make(map[string][]byte)

	dates := domain.DatesBetween(from, to)
	if len(dates) == 0 {
		summary.Finished = r.now()
		return summary, nil
	}
	first, last := domain.KeyForDate(dates[0]), domain.KeyForDate(dates[len(dates)-1])

	logger.Info("Readings run started",
		zap.String("source", r.deps.Source.Name()),
		zap.String("from", first.String()),
		zap.String("to", last.String()),
		zap.Int("days", len(dates)),
	)

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			summary.Finished = r.now()
			return summary, err
		}

		key := domain.KeyForDate(date)
		u := newUnit(key.String(), logger)
		var (
			res store.MergeResult
			err error
		)
		var catcher panics.Catcher
		catcher.Try(func() {
			res, err = r.runDate(ctx, u, date, first, last)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			err = recovered.AsError()
		}
		if err != nil {
			u.fail()
		}

		fields := []zap.Field{
			zap.Int("year", key.Year), zap.Int("month", key.Month), zap.Int("day", key.Day),
			zap.String("state", string(u.state)),
		}
		switch {
		case err != nil && errors.IsFatal(err):
			logger.Error("Run aborted", append(fields, zap.Error(err))...)
			summary.FailedUnits++
			summary.Finished = r.now()
			return summary, err
		case err != nil && ctx.Err() != nil:
			summary.Finished = r.now()
			return summary, ctx.Err()
		case err != nil:
			summary.FailedUnits++
			logger.Warn("Unit failed", append(fields, zap.Error(err))...)
		case u.state == StateSkipped:
			summary.SkippedUnits++
			logger.Info("Unit skipped", fields...)
		case u.state == StateFailed:
			summary.FailedUnits++
			logger.Warn("Unit failed", fields...)
		default:
			summary.addDone(res)
			logger.Info("Unit fetched", append(fields,
				zap.Int("inserted", res.Inserted),
				zap.Int("updated", res.Updated),
			)...)
		}
	}

	summary.Finished = r.now()
	logger.Info("Readings run finished",
		zap.Int("new", summary.NewUnits),
		zap.Int("updated", summary.UpdatedUnits),
		zap.Int("skipped", summary.SkippedUnits),
		zap.Int("failed", summary.FailedUnits),
	)
	return summary, nil
}

func (r *ReadingsRunner) runDate(ctx context.Context, u *unit, date time.Time, first, last domain.ReadingKey) (store.MergeResult, error) {
	var none store.MergeResult
	key := domain.KeyForDate(date)

	if r.deps.Store.GapsFor(key).Status == domain.Complete {
		return none, u.enter(StateSkipped)
	}

	if err := u.enter(StateFetching); err != nil {
		return none, err
	}
	pageURL := r.deps.Source.URL(date)
	body, err := r.page(ctx, pageURL)
	if err != nil {
		return none, r.recordFailure(u, key, pageURL, err)
	}

	if err := u.enter(StateExtracting); err != nil {
		return none, err
	}
	parsed, err := r.deps.Source.Parse(date, body)
	if err != nil {
		return none, r.recordFailure(u, key, pageURL, err)
	}

	inRange := make([]domain.DailyReading, 0, len(parsed))
	found := false
	for _, reading := range parsed {
		k := reading.Key()
		if k.Before(first) || last.Before(k) {
			continue
		}
		if k == key {
			found = true
		}
		inRange = append(inRange, reading)
	}
	if !found {
		miss := errors.NewExtractionMissError(pageURL, fmt.Sprintf("page has no reading for %s", key))
		if len(inRange) == 0 {
			return none, r.recordFailure(u, key, pageURL, miss)
		}
		// other days of the range still get stored
		if _, err := r.deps.Store.MergeAndPersist(inRange); err != nil {
			return none, err
		}
		return none, r.recordFailure(u, key, pageURL, miss)
	}

	if err := u.enter(StateMerging); err != nil {
		return none, err
	}
	res, err := r.deps.Store.MergeAndPersist(inRange)
	if err != nil {
		return none, err
	}
	return res, u.enter(StateDone)
}

// page returns the body of pageURL, fetching it at most once per run.
func (r *ReadingsRunner) page(ctx context.Context, pageURL string) ([]byte, error) {
	if body, ok := r.pages[pageURL]; ok {
		return body, nil
	}
	if err := pace(ctx, r.deps.Pacer); err != nil {
		return nil, err
	}
	body, err := r.deps.Getter.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	r.pages[pageURL] = body
	return body, nil
}

func (r *ReadingsRunner) recordFailure(u *unit, key domain.ReadingKey, sourceURL string, cause error) error {
	if !errors.IsTransient(cause) {
		return cause
	}
	u.fail()

	reason := cause.Error()
	if miss, ok := errors.IsExtractionMiss(cause); ok {
		reason = miss.Reason
	}
	if r.deps.Failures == nil {
		return nil
	}
	return r.deps.Failures.Append(domain.ExtractionFailure{
		Month:     key.Month,
		Day:       key.Day,
		SourceURL: sourceURL,
		Reason:    reason,
	})
}
