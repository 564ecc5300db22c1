package extractor

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/pkg/errors"
)

var dayNumber = regexp.MustCompile(`\b(\d{1,2})\b`)

// CalendarSource reads the day and month index pages of a saints calendar
// site laid out as /santoral/<mes>/<dia>/<slug>.
type CalendarSource struct {
	getter  Getter
	baseURL string
	logger  *zap.Logger
}

func NewCalendarSource(getter Getter, baseURL string, logger *zap.Logger) *CalendarSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarSource{
		getter:  getter,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (s *CalendarSource) Name() string { return "calendar" }

func (s *CalendarSource) DayURL(month, day int) string {
	return fmt.Sprintf("%s/%s/%d/", s.baseURL, domain.SpanishMonth(month), day)
}

func (s *CalendarSource) MonthURL(month int) string {
	return fmt.Sprintf("%s/%s", s.baseURL, domain.SpanishMonth(month))
}

func (s *CalendarSource) DayEntries(ctx context.Context, month, day int) ([]domain.SaintCandidate, error) {
	pageURL := s.DayURL(month, day)
	body, err := s.getter.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ParseDayIndex(body, pageURL, month, day)
}

func (s *CalendarSource) MonthEntries(ctx context.Context, month int) (map[int][]domain.SaintCandidate, error) {
	pageURL := s.MonthURL(month)
	body, err := s.getter.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	candidates, err := ParseMonthIndex(body, pageURL, month)
	if err != nil {
		return nil, err
	}

	byDay := make(map[int][]domain.SaintCandidate)
	for _, candidate := range candidates {
		byDay[candidate.Day] = append(byDay[candidate.Day], candidate)
	}
	s.logger.Info("Month index parsed",
		zap.Int("month", month),
		zap.Int("days", len(byDay)),
		zap.Int("entries", len(candidates)),
	)
	return byDay, nil
}

// ParseDayIndex reads a single-day page: every link one level below the
// day's own path is an entry with its detail page.
func ParseDayIndex(body []byte, pageURL string, month, day int) ([]domain.SaintCandidate, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, errors.NewFetchError("malformed page", pageURL, 0, err)
	}

	dayPath := fmt.Sprintf("/%s/%d/", domain.SpanishMonth(month), day)
	paddedPath := fmt.Sprintf("/%s/%02d/", domain.SpanishMonth(month), day)

	candidates := make([]domain.SaintCandidate, 0)
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		path := linkPath(href)
		if !strings.Contains(path, dayPath) && !strings.Contains(path, paddedPath) {
			return
		}
		if strings.Count(strings.Trim(path, "/"), "/") < 3 {
			return
		}
		name := domain.CleanSaintName(a.Text())
		if !isEntryName(name) || seen[name] {
			return
		}
		seen[name] = true
		candidates = append(candidates, domain.SaintCandidate{
			Month:     month,
			Day:       day,
			Name:      name,
			DetailURL: absoluteURL(pageURL, href),
		})
	})

	if len(candidates) == 0 {
		return nil, errors.NewExtractionMissError(pageURL, ReasonNoEntries)
	}
	return candidates, nil
}

// ParseMonthIndex reads a month page where each day is a li.py-6 group. The
// day comes from the entry link path; the group heading is only a fallback
// for links that do not encode it.
func ParseMonthIndex(body []byte, pageURL string, month int) ([]domain.SaintCandidate, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, errors.NewFetchError("malformed page", pageURL, 0, err)
	}

	monthName := domain.SpanishMonth(month)
	dayInPath := regexp.MustCompile(`/` + monthName + `/(\d{1,2})/`)

	candidates := make([]domain.SaintCandidate, 0)
	seen := make(map[domain.SaintKey]bool)

	doc.Find("li.py-6").Each(func(_ int, group *goquery.Selection) {
		headingDay := 0
		if heading := group.Find("h2, h3, h4").First(); heading.Length() > 0 {
			if m := dayNumber.FindStringSubmatch(heading.Text()); m != nil {
				headingDay, _ = strconv.Atoi(m[1])
			}
		}

		group.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			path := linkPath(href)
			if !strings.Contains(path, "/"+monthName+"/") || strings.Count(path, "/") < 4 {
				return
			}

			day := headingDay
			if m := dayInPath.FindStringSubmatch(path); m != nil {
				day, _ = strconv.Atoi(m[1])
			}
			if domain.ValidateDay(month, day) != nil {
				return
			}

			name := domain.CleanSaintName(a.Text())
			if !isEntryName(name) {
				return
			}
			key := domain.SaintKey{Month: month, Day: day, Name: name}
			if seen[key] {
				return
			}
			seen[key] = true
			candidates = append(candidates, domain.SaintCandidate{
				Month:     month,
				Day:       day,
				Name:      name,
				DetailURL: absoluteURL(pageURL, href),
			})
		})
	})

	if len(candidates) == 0 {
		return nil, errors.NewExtractionMissError(pageURL, ReasonNoEntries)
	}
	return candidates, nil
}

func linkPath(href string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return parsed.Path
}

func isEntryName(name string) bool {
	if utf8.RuneCountInString(name) <= 2 {
		return false
	}
	lower := strings.ToLower(name)
	return !strings.HasPrefix(lower, "ver todos") && !strings.Contains(lower, "ver todos los santos")
}
