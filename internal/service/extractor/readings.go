package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/pkg/errors"
)

// ReadingsSource is a site adapter for daily readings. URL says where the
// readings of date live; Parse turns that page into readings. A page may
// carry several days, so Parse can return more than the one asked for.
type ReadingsSource interface {
	Name() string
	URL(date time.Time) string
	Parse(date time.Time, body []byte) ([]domain.DailyReading, error)
}

// ReadingFromSections fills a reading from extracted sections. An unsectioned
// page keeps its full text in the gospel slot so nothing fetched is dropped.
// It reports false when no slot received text.
func ReadingFromSections(date time.Time, title string, sections []domain.Section) (domain.DailyReading, bool) {
	reading := domain.NewPlaceholderReading(date)
	if title = strings.TrimSpace(title); title != "" {
		reading.Title = title
	}

	if first, ok := FindSection(sections, domain.KindFirstReading); ok {
		reading.FirstReadingRef = first.Reference
		reading.FirstReadingText = first.Body
	}
	if psalm, ok := FindSection(sections, domain.KindPsalm); ok {
		reading.PsalmRef = psalm.Reference
		reading.PsalmText = psalm.Body
	}
	if gospel, ok := FindSection(sections, domain.KindGospel); ok {
		reading.GospelRef = gospel.Reference
		reading.GospelText = gospel.Body
	}
	if full, ok := FindSection(sections, domain.KindUnsectioned); ok && reading.GospelText == "" {
		reading.GospelText = full.Body
	}

	filled := reading.FirstReadingText != "" || reading.PsalmText != "" || reading.GospelText != ""
	return reading, filled
}

func readingOrMiss(date time.Time, pageURL, title string, sections []domain.Section) ([]domain.DailyReading, error) {
	reading, ok := ReadingFromSections(date, title, sections)
	if !ok {
		return nil, errors.NewExtractionMissError(pageURL, "no reading sections")
	}
	return []domain.DailyReading{reading}, nil
}

// DailyPageSource reads a "gospel of the day" page. The page only ever shows
// the current day, so the reading is dated by the clock, not by the request.
type DailyPageSource struct {
	pageURL string
	now     func() time.Time
}

func NewDailyPageSource(pageURL string, now func() time.Time) *DailyPageSource {
	if now == nil {
		now = time.Now
	}
	return &DailyPageSource{pageURL: pageURL, now: now}
}

func (s *DailyPageSource) Name() string { return "daily" }

func (s *DailyPageSource) URL(time.Time) string { return s.pageURL }

func (s *DailyPageSource) Parse(_ time.Time, body []byte) ([]domain.DailyReading, error) {
	sections, err := ExtractHTMLSections(body, s.pageURL, []string{"div.section__content", "article", "div#content"}, ReadingMarkers)
	if err != nil {
		return nil, errors.NewFetchError("malformed page", s.pageURL, 0, err)
	}
	return readingOrMiss(s.now(), s.pageURL, "", sections)
}

// DatedPageSource reads one page per date at <base>/<MMDDYY>.cfm.
type DatedPageSource struct {
	baseURL string
}

func NewDatedPageSource(baseURL string) *DatedPageSource {
	return &DatedPageSource{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DatedPageSource) Name() string { return "usccb" }

func (s *DatedPageSource) URL(date time.Time) string {
	return fmt.Sprintf("%s/%s.cfm", s.baseURL, date.Format("010206"))
}

func (s *DatedPageSource) Parse(date time.Time, body []byte) ([]domain.DailyReading, error) {
	pageURL := s.URL(date)
	sections, err := ExtractHTMLSections(body, pageURL, []string{"div.content-body", "div#content-body", "main"}, ReadingMarkers)
	if err != nil {
		return nil, errors.NewFetchError("malformed page", pageURL, 0, err)
	}
	return readingOrMiss(date, pageURL, "", sections)
}

// FeedSource reads every item of a readings RSS feed; items are dated by pubDate.
type FeedSource struct {
	feedURL string
}

func NewFeedSource(feedURL string) *FeedSource {
	return &FeedSource{feedURL: feedURL}
}

func (s *FeedSource) Name() string { return "rss" }

func (s *FeedSource) URL(time.Time) string { return s.feedURL }

func (s *FeedSource) Parse(_ time.Time, body []byte) ([]domain.DailyReading, error) {
	items, err := ParseFeed(body)
	if err != nil {
		return nil, errors.NewFetchError("malformed feed", s.feedURL, 0, err)
	}

	readings := make([]domain.DailyReading, 0, len(items))
	for _, item := range items {
		if item.Published.IsZero() {
			continue
		}
		sections := ExtractSections(item.Lines, ReadingMarkers)
		if reading, ok := ReadingFromSections(item.Published, item.Title, sections); ok {
			readings = append(readings, reading)
		}
	}
	if len(readings) == 0 {
		return nil, errors.NewExtractionMissError(s.feedURL, "no readable feed items")
	}
	return readings, nil
}
