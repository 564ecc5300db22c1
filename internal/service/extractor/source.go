package extractor

import (
	"context"
	"net/url"
	"strings"

	"github.com/kapu/santoral-go/internal/domain"
)

// Getter fetches a page body. fetch.Fetcher satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// SaintsSource lists the names a site publishes for a calendar day.
type SaintsSource interface {
	Name() string
	DayURL(month, day int) string
	DayEntries(ctx context.Context, month, day int) ([]domain.SaintCandidate, error)
}

// MonthSource is implemented by sites that publish a whole month on one page.
type MonthSource interface {
	MonthURL(month int) string
	MonthEntries(ctx context.Context, month int) (map[int][]domain.SaintCandidate, error)
}

// absoluteURL resolves href against the page it was found on.
func absoluteURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
