package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/pkg/errors"
)

const (
	ReasonNoSaintsSection = "no saints section"
	ReasonEmptySection    = "section without entries"
	ReasonNoEntries       = "no entries on page"
)

var (
	yearLink      = regexp.MustCompile(`^/wiki/\d{3,4}$`)
	namespaceLink = regexp.MustCompile(`^/wiki/[A-Z][a-z]+:`)
	yearSpan      = regexp.MustCompile(`\(\d{3,4}[-–]\d{0,4}\)`)
	footnote      = regexp.MustCompile(`\[[^\]]*\]`)
)

// WikipediaDaySource reads the "Santoral católico" section of the
// encyclopedia's day pages ("4_de_octubre").
type WikipediaDaySource struct {
	getter  Getter
	baseURL string
	logger  *zap.Logger
}

func NewWikipediaDaySource(getter Getter, baseURL string, logger *zap.Logger) *WikipediaDaySource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WikipediaDaySource{
		getter:  getter,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (s *WikipediaDaySource) Name() string { return "wikipedia" }

func (s *WikipediaDaySource) DayURL(month, day int) string {
	return fmt.Sprintf("%s/%d_de_%s", s.baseURL, day, domain.SpanishMonth(month))
}

func (s *WikipediaDaySource) DayEntries(ctx context.Context, month, day int) ([]domain.SaintCandidate, error) {
	pageURL := s.DayURL(month, day)
	body, err := s.getter.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	candidates, err := ParseWikipediaDay(body, pageURL, month, day)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Day page parsed",
		zap.Int("month", month),
		zap.Int("day", day),
		zap.Int("entries", len(candidates)),
	)
	return candidates, nil
}

// ParseWikipediaDay extracts the names listed under the saints heading of a day page.
func ParseWikipediaDay(body []byte, pageURL string, month, day int) ([]domain.SaintCandidate, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, errors.NewFetchError("malformed page", pageURL, 0, err)
	}

	heading := findSaintsHeading(doc)
	if heading == nil {
		return nil, errors.NewExtractionMissError(pageURL, ReasonNoSaintsSection)
	}

	lists := listsAfterHeading(heading)
	if len(lists) == 0 {
		lists = listsBeforeNextHeading(doc, heading)
	}

	candidates := make([]domain.SaintCandidate, 0)
	seen := make(map[string]bool)
	for _, list := range lists {
		list.ChildrenFiltered("li").Each(func(_ int, item *goquery.Selection) {
			candidate, ok := parseSaintItem(item, pageURL)
			if !ok || seen[candidate.Name] {
				return
			}
			seen[candidate.Name] = true
			candidate.Month = month
			candidate.Day = day
			candidates = append(candidates, candidate)
		})
	}

	if len(candidates) == 0 {
		return nil, errors.NewExtractionMissError(pageURL, ReasonEmptySection)
	}
	return candidates, nil
}

func findSaintsHeading(doc *goquery.Document) *goquery.Selection {
	matcher := NewSectionMatcher(SaintsSectionMarkers)
	var found *goquery.Selection
	doc.Find("h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if kind, ok := matcher.Match(h.Text()); ok && kind == domain.KindSaints {
			found = h
			return false
		}
		return true
	})
	return found
}

// headingAnchor is the node whose siblings hold the section content. Current
// skins wrap headings in div.mw-heading.
func headingAnchor(heading *goquery.Selection) *goquery.Selection {
	if parent := heading.Parent(); parent.HasClass("mw-heading") {
		return parent
	}
	return heading
}

func isSectionBoundary(sel *goquery.Selection) bool {
	switch goquery.NodeName(sel) {
	case "h1", "h2", "h3":
		return true
	case "div":
		return sel.HasClass("mw-heading2") || sel.HasClass("mw-heading3") ||
			(sel.HasClass("mw-heading") && sel.ChildrenFiltered("h1, h2, h3").Length() > 0)
	}
	return false
}

func listsAfterHeading(heading *goquery.Selection) []*goquery.Selection {
	lists := make([]*goquery.Selection, 0)
	for sibling := headingAnchor(heading).Next(); sibling.Length() > 0; sibling = sibling.Next() {
		if isSectionBoundary(sibling) {
			break
		}
		switch goquery.NodeName(sibling) {
		case "ul", "ol":
			lists = append(lists, sibling)
		case "div", "figure":
			sibling.ChildrenFiltered("ul, ol").Each(func(_ int, l *goquery.Selection) {
				lists = append(lists, l)
			})
		}
	}
	return lists
}

// listsBeforeNextHeading walks the document in order and keeps at most two
// top-level lists between the heading and the next section heading.
func listsBeforeNextHeading(doc *goquery.Document, heading *goquery.Selection) []*goquery.Selection {
	lists := make([]*goquery.Selection, 0, 2)
	started := false
	doc.Find("h2, h3, ul, ol").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !started {
			started = sel.IsSelection(heading)
			return true
		}
		if name := goquery.NodeName(sel); name == "h2" || name == "h3" {
			return false
		}
		if sel.ParentsFiltered("li").Length() > 0 {
			return true
		}
		lists = append(lists, sel)
		return len(lists) < 2
	})
	return lists
}

func parseSaintItem(item *goquery.Selection, pageURL string) (domain.SaintCandidate, bool) {
	item = item.Clone()
	item.Find("ul, ol, sup.reference").Remove()

	var candidate domain.SaintCandidate
	item.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, "/wiki/") || yearLink.MatchString(href) || namespaceLink.MatchString(href) {
			return true
		}
		name := strings.TrimSpace(a.Text())
		if name == "" {
			return true
		}
		candidate.Name = name
		candidate.ReferenceURL = absoluteURL(pageURL, href)
		return false
	})

	if candidate.Name == "" {
		text := yearSpan.ReplaceAllString(item.Text(), "")
		text = footnote.ReplaceAllString(text, "")
		if idx := strings.IndexAny(text, ",("); idx >= 0 {
			text = text[:idx]
		}
		candidate.Name = text
	}

	candidate.Name = domain.CleanSaintName(footnote.ReplaceAllString(candidate.Name, ""))
	if utf8.RuneCountInString(candidate.Name) <= 2 || strings.IndexFunc(candidate.Name, unicode.IsLetter) < 0 {
		return domain.SaintCandidate{}, false
	}
	return candidate, true
}
