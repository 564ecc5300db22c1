package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/constants"
	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/internal/service/classifier"
	"github.com/kapu/santoral-go/internal/service/extractor"
	"github.com/kapu/santoral-go/internal/service/resolver"
	"github.com/kapu/santoral-go/internal/service/store"
	"github.com/kapu/santoral-go/internal/util"
	"github.com/kapu/santoral-go/pkg/errors"
)

// Resolver enriches a name from the encyclopedia. resolver.Client satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, name string) (resolver.Resolution, bool)
	PageDetails(ctx context.Context, articleURL string) (resolver.PageDetails, error)
	Prayer(ctx context.Context, title string) (string, error)
}

// Downloader stores a remote image. fetch.Fetcher satisfies it.
type Downloader interface {
	Download(ctx context.Context, rawURL, dir, base string) (string, error)
}

// Pacer spaces out network-bound steps. fetch.Pacer satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

func pace(ctx context.Context, p Pacer) error {
	if p == nil {
		return nil
	}
	return p.Wait(ctx)
}

// SaintsDeps are the collaborators of a SaintsRunner. Resolver, Images and
// Pacer may be nil.
type SaintsDeps struct {
	Source     extractor.SaintsSource
	Getter     extractor.Getter
	Resolver   Resolver
	Classifier *classifier.Classifier
	Store      *store.SaintsStore
	Failures   *store.FailureLog
	Images     Downloader
	Pacer      Pacer
}

type SaintsOptions struct {
	DownloadImages bool
	ImagesDir      string
}

// SaintsRunner walks a range of calendar days and fills the saints store.
// Days run one after another; the store is the only shared state.
type SaintsRunner struct {
	deps   SaintsDeps
	opts   SaintsOptions
	logger *zap.Logger
	now    func() time.Time

	monthIndex  map[int]map[int][]domain.SaintCandidate
	monthFailed map[int]bool
}

func NewSaintsRunner(deps SaintsDeps, opts SaintsOptions, logger *zap.Logger) *SaintsRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaintsRunner{
		deps:   deps,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// RequiredFields are the fields a stored entry needs before its day is skipped.
func (r *SaintsRunner) RequiredFields() []domain.Field {
	required := []domain.Field{domain.FieldPriority, domain.FieldDescription, domain.FieldReferenceURL}
	if r.opts.DownloadImages {
		required = append(required, domain.FieldImage)
	}
	return required
}

// Run processes every day of rng. A failed day is logged and the run goes
// on; only a persistence error or a cancelled context stops it early.
func (r *SaintsRunner) Run(ctx context.Context, rng domain.DayRange) (Summary, error) {
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))
	summary := Summary{Kind: "saints", RunID: runID, Started: r.now()}
	r.monthIndex = make(map[int]map[int][]domain.SaintCandidate)
	r.monthFailed = make(map[int]bool)

	days := rng.Days()
	logger.Info("Saints run started",
		zap.String("source", r.deps.Source.Name()),
		zap.String("from", rng.From.String()),
		zap.String("to", rng.To.String()),
		zap.Int("days", len(days)),
		zap.Bool("images", r.opts.DownloadImages),
	)

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			summary.Finished = r.now()
			return summary, err
		}

		u := newUnit(day.String(), logger)
		var (
			res store.MergeResult
			err error
		)
		var catcher panics.Catcher
		catcher.Try(func() {
			res, err = r.runDay(ctx, u, day, rng, logger)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			err = recovered.AsError()
		}
		if err != nil {
			u.fail()
		}

		fields := []zap.Field{zap.Int("month", day.Month), zap.Int("day", day.Day), zap.String("state", string(u.state))}
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
	logger.Info("Saints run finished",
		zap.Int("new", summary.NewUnits),
		zap.Int("updated", summary.UpdatedUnits),
		zap.Int("skipped", summary.SkippedUnits),
		zap.Int("failed", summary.FailedUnits),
	)
	return summary, nil
}

// dayComplete reports whether the store already holds a complete entry set
// for the day.
func (r *SaintsRunner) dayComplete(day domain.CalendarDay) bool {
	entries := r.deps.Store.EntriesForDay(day.Month, day.Day)
	if len(entries) == 0 {
		return false
	}
	required := r.RequiredFields()
	for _, entry := range entries {
		if entry.GapsAgainst(required).Status != domain.Complete {
			return false
		}
	}
	return true
}

func (r *SaintsRunner) runDay(ctx context.Context, u *unit, day domain.CalendarDay, rng domain.DayRange, logger *zap.Logger) (store.MergeResult, error) {
	var none store.MergeResult

	if r.dayComplete(day) {
		return none, u.enter(StateSkipped)
	}

	if err := u.enter(StateFetching); err != nil {
		return none, err
	}
	if err := pace(ctx, r.deps.Pacer); err != nil {
		return none, err
	}
	candidates, sourceURL, err := r.candidates(ctx, day, rng)
	if err != nil {
		if _, miss := errors.IsExtractionMiss(err); miss {
			if err := u.enter(StateExtracting); err != nil {
				return none, err
			}
		}
		return none, r.recordFailure(u, day, sourceURL, err)
	}

	if err := u.enter(StateExtracting); err != nil {
		return none, err
	}
	required := r.RequiredFields()
	entries := make([]domain.CalendarEntry, 0, len(candidates))
	pending := make([]domain.Gaps, 0, len(candidates))
	seen := make(map[string]bool)
	for _, candidate := range candidates {
		candidate.Name = domain.CanonicalSaintName(candidate.Name)
		if candidate.Name == "" || seen[candidate.Name] {
			continue
		}
		seen[candidate.Name] = true

		key := domain.SaintKey{Month: day.Month, Day: day.Day, Name: candidate.Name}
		gaps := r.deps.Store.GapsFor(key, nil)
		if gaps.Status != domain.NotPresent && r.deps.Store.GapsFor(key, required).Status == domain.Complete {
			continue
		}
		entries = append(entries, candidateEntry(candidate))
		pending = append(pending, gaps)
	}

	if len(entries) > 0 {
		if err := u.enter(StateResolving); err != nil {
			return none, err
		}
		for i := range entries {
			if err := ctx.Err(); err != nil {
				return none, err
			}
			enriched, err := r.enrich(ctx, entries[i], candidates, pending[i], logger)
			if err != nil {
				return none, err
			}
			entries[i] = enriched
		}
	}

	if err := u.enter(StateScoring); err != nil {
		return none, err
	}
	for i := range entries {
		entries[i] = r.deps.Classifier.Score(entries[i])
	}

	if err := u.enter(StateMerging); err != nil {
		return none, err
	}
	res, err := r.deps.Store.MergeAndPersist(entries)
	if err != nil {
		return none, err
	}
	return res, u.enter(StateDone)
}

// candidates lists the names of a day, from the month index when the source
// publishes one and the range covers more than one day of that month.
func (r *SaintsRunner) candidates(ctx context.Context, day domain.CalendarDay, rng domain.DayRange) ([]domain.SaintCandidate, string, error) {
	monthSource, ok := r.deps.Source.(extractor.MonthSource)
	if ok && spansMonth(rng, day.Month) && !r.monthFailed[day.Month] {
		index, loaded := r.monthIndex[day.Month]
		if !loaded {
			var err error
			index, err = monthSource.MonthEntries(ctx, day.Month)
			if err != nil {
				if errors.IsFatal(err) || ctx.Err() != nil {
					return nil, monthSource.MonthURL(day.Month), err
				}
				r.logger.Warn("Month index unavailable, reading day pages",
					zap.Int("month", day.Month),
					zap.Error(err),
				)
				r.monthFailed[day.Month] = true
				return r.dayCandidates(ctx, day)
			}
			r.monthIndex[day.Month] = index
		}
		pageURL := monthSource.MonthURL(day.Month)
		if len(index[day.Day]) == 0 {
			return nil, pageURL, errors.NewExtractionMissError(pageURL, extractor.ReasonNoEntries)
		}
		return index[day.Day], pageURL, nil
	}
	return r.dayCandidates(ctx, day)
}

func (r *SaintsRunner) dayCandidates(ctx context.Context, day domain.CalendarDay) ([]domain.SaintCandidate, string, error) {
	pageURL := r.deps.Source.DayURL(day.Month, day.Day)
	candidates, err := r.deps.Source.DayEntries(ctx, day.Month, day.Day)
	return candidates, pageURL, err
}

func spansMonth(rng domain.DayRange, month int) bool {
	count := 0
	for _, day := range rng.Days() {
		if day.Month == month {
			count++
		}
	}
	return count > 1
}

// recordFailure logs a failed day to the failure file. Transient errors end
// the unit; anything else is returned to abort the run.
func (r *SaintsRunner) recordFailure(u *unit, day domain.CalendarDay, sourceURL string, cause error) error {
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
		Month:     day.Month,
		Day:       day.Day,
		SourceURL: sourceURL,
		Reason:    reason,
	})
}

func candidateEntry(c domain.SaintCandidate) domain.CalendarEntry {
	return domain.CalendarEntry{
		Month:        c.Month,
		Day:          c.Day,
		Name:         c.Name,
		Description:  c.Description,
		ReferenceURL: c.ReferenceURL,
	}
}

// enrich fills what the stored entry lacks, cheapest source first: the
// site's own detail page, the encyclopedia search, the linked article, the
// article's prayer section and the portrait download. Only a persistence
// error is returned; lookups that fail just leave the field empty.
func (r *SaintsRunner) enrich(ctx context.Context, entry domain.CalendarEntry, candidates []domain.SaintCandidate, stored domain.Gaps, logger *zap.Logger) (domain.CalendarEntry, error) {
	wants := func(field domain.Field) bool {
		return stored.Status == domain.NotPresent || stored.Has(field)
	}
	fields := []zap.Field{zap.String("name", entry.Name), zap.Int("month", entry.Month), zap.Int("day", entry.Day)}

	var imageURL, title string
	for _, c := range candidates {
		if domain.CanonicalSaintName(c.Name) == entry.Name {
			imageURL = c.ImageURL
			if entry.Description == "" && c.DetailURL != "" && wants(domain.FieldDescription) && r.deps.Getter != nil {
				if err := pace(ctx, r.deps.Pacer); err != nil {
					return entry, err
				}
				if body, err := r.deps.Getter.Get(ctx, c.DetailURL); err == nil {
					entry.Description = extractor.DetailDescription(body, c.DetailURL)
				} else {
					logger.Debug("Detail page unavailable", append(fields, zap.Error(err))...)
				}
			}
			break
		}
	}

	needsLookup := (entry.Description == "" && wants(domain.FieldDescription)) ||
		(entry.ReferenceURL == "" && wants(domain.FieldReferenceURL)) ||
		(r.opts.DownloadImages && imageURL == "" && wants(domain.FieldImage)) ||
		wants(domain.FieldPrayer)

	if r.deps.Resolver != nil && needsLookup {
		resolved := false
		resolve := func() error {
			resolved = true
			if err := pace(ctx, r.deps.Pacer); err != nil {
				return err
			}
			res, ok := r.deps.Resolver.Resolve(ctx, entry.Name)
			if !ok {
				return nil
			}
			title = res.Title
			if entry.ReferenceURL == "" {
				entry.ReferenceURL = res.CanonicalURL
			}
			if entry.Description == "" {
				entry.Description = res.Description
			}
			if imageURL == "" {
				imageURL = res.ImageURL
			}
			logger.Debug("Resolved", append(fields, zap.String("title", res.Title))...)
			return nil
		}

		if entry.ReferenceURL == "" {
			if err := resolve(); err != nil {
				return entry, err
			}
		}

		if entry.ReferenceURL != "" && (entry.Description == "" || (r.opts.DownloadImages && imageURL == "")) {
			if err := pace(ctx, r.deps.Pacer); err != nil {
				return entry, err
			}
			details, err := r.deps.Resolver.PageDetails(ctx, entry.ReferenceURL)
			if err != nil {
				logger.Debug("Article details unavailable", append(fields, zap.Error(err))...)
			}
			if entry.Description == "" {
				entry.Description = details.Description
			}
			if imageURL == "" {
				imageURL = details.ImageURL
			}
		}

		if entry.Description == "" && !resolved {
			if err := resolve(); err != nil {
				return entry, err
			}
		}

		if title == "" {
			title = articleTitle(entry.ReferenceURL)
		}
		if title != "" && wants(domain.FieldPrayer) {
			if err := pace(ctx, r.deps.Pacer); err != nil {
				return entry, err
			}
			prayer, err := r.deps.Resolver.Prayer(ctx, title)
			if err != nil {
				logger.Debug("Prayer lookup failed", append(fields, zap.Error(err))...)
			}
			entry.PrayerText = prayer
		}
	}

	entry.Description = util.TruncateRunes(entry.Description, constants.FieldLimits.DescriptionRunes)

	if r.opts.DownloadImages && imageURL != "" && wants(domain.FieldImage) && r.deps.Images != nil {
		if err := pace(ctx, r.deps.Pacer); err != nil {
			return entry, err
		}
		file, err := r.deps.Images.Download(ctx, imageURL, r.opts.ImagesDir, imageBase(entry))
		switch {
		case err == nil:
			entry.ImageRef = file
		case errors.IsFatal(err):
			return entry, err
		default:
			logger.Warn("Image download failed", append(fields, zap.String("url", imageURL), zap.Error(err))...)
		}
	}
	return entry, nil
}

// imageBase is the file name of an entry's portrait without extension.
func imageBase(entry domain.CalendarEntry) string {
	if slug := util.Slugify(entry.Name); slug != "" {
		return slug
	}
	return fmt.Sprintf("santo_%d_%d", entry.Month, entry.Day)
}

// articleTitle recovers the article title of an encyclopedia link, or "" for
// links that are not /wiki/ articles.
func articleTitle(link string) string {
	parsed, err := url.Parse(link)
	if err != nil || !strings.Contains(parsed.Path, "/wiki/") {
		return ""
	}
	title := path.Base(parsed.Path)
	if unescaped, err := url.PathUnescape(title); err == nil {
		title = unescaped
	}
	return strings.ReplaceAll(title, "_", " ")
}
