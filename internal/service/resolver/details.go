package resolver

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/constants"
	"github.com/kapu/santoral-go/internal/util"
	"github.com/kapu/santoral-go/pkg/errors"
)

const (
	minLeadParagraph = 50
	minPrayerRunes   = 20
)

// PageDetails is what an article page itself adds to a search result.
type PageDetails struct {
	Description string
	ImageURL    string
}

// PageDetails reads an article page: the first substantial lead paragraph
// and the infobox portrait.
func (c *Client) PageDetails(ctx context.Context, articleURL string) (PageDetails, error) {
	if !c.breaker.CanExecute() {
		return PageDetails{}, errors.NewFetchError("circuit open for encyclopedia", articleURL, 0, nil)
	}

	res, err := c.http.R().SetContext(ctx).Get(articleURL)
	if err != nil {
		c.breaker.RecordFailure()
		return PageDetails{}, errors.NewFetchError("article request failed", articleURL, 0, err)
	}
	if res.IsError() {
		if res.StatusCode() >= 500 {
			c.breaker.RecordFailure()
		}
		return PageDetails{}, errors.NewFetchError(fmt.Sprintf("unexpected status code: %d", res.StatusCode()), articleURL, res.StatusCode(), nil)
	}
	c.breaker.RecordSuccess()

	details, err := ParsePageDetails(res.Body())
	if err != nil {
		return PageDetails{}, err
	}
	details.ImageURL = resolveAgainst(articleURL, details.ImageURL)
	return details, nil
}

// resolveAgainst makes a relative image link absolute.
func resolveAgainst(pageURL, link string) string {
	if link == "" {
		return ""
	}
	ref, err := url.Parse(link)
	if err != nil || ref.IsAbs() {
		return link
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return link
	}
	return base.ResolveReference(ref).String()
}

// ParsePageDetails extracts PageDetails from article HTML.
func ParsePageDetails(body []byte) (PageDetails, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return PageDetails{}, errors.NewFetchError("malformed article", "", 0, err)
	}

	var details PageDetails
	doc.Find("div.mw-parser-output").First().ChildrenFiltered("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		p.Find("sup.reference").Remove()
		text := util.CollapseSpaces(p.Text())
		if utf8.RuneCountInString(text) < minLeadParagraph || isLicenceNoise(text) {
			return true
		}
		details.Description = util.TruncateRunes(text, constants.FieldLimits.DescriptionRunes)
		return false
	})

	if src, ok := doc.Find("table.infobox img").First().Attr("src"); ok {
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		if !IsPlaceholderImage(src) {
			details.ImageURL = src
		}
	}
	return details, nil
}

func isLicenceNoise(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "creativecommons.org") ||
		strings.Contains(text, "PDMCreative Commons") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://")
}

var (
	prayerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)==\s*Oración\s*==\s*\n(.*?)(?:\n==|$)`),
		regexp.MustCompile(`(?is)==\s*Plegaria\s*==\s*\n(.*?)(?:\n==|$)`),
		regexp.MustCompile(`(?i)\[\[Oración\]\]\s*:\s*(.*?)(?:\n|$)`),
	}
	pipedLink    = regexp.MustCompile(`\[\[[^\]|]*\|`)
	plainLink    = regexp.MustCompile(`\[\[(.*?)\]\]`)
	template     = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	refTag       = regexp.MustCompile(`(?s)<ref[^>]*>.*?</ref>|<ref[^>]*/>`)
	emphasisMark = regexp.MustCompile(`'{2,}`)
)

type parseResponse struct {
	Parse struct {
		Wikitext string `json:"wikitext"`
	} `json:"parse"`
}

// Prayer returns the prayer section of an article, or "" when it has none.
func (c *Client) Prayer(ctx context.Context, title string) (string, error) {
	var resp parseResponse
	err := c.getJSON(ctx, map[string]string{
		"action": "parse",
		"page":   title,
		"prop":   "wikitext",
	}, &resp)
	if err != nil {
		return "", err
	}

	prayer := PrayerFromWikitext(resp.Parse.Wikitext)
	if prayer != "" {
		c.logger.Debug("Prayer found", zap.String("title", title))
	}
	return prayer, nil
}

// PrayerFromWikitext finds a prayer section in raw wikitext and strips the markup.
func PrayerFromWikitext(wikitext string) string {
	for _, pattern := range prayerPatterns {
		m := pattern.FindStringSubmatch(wikitext)
		if m == nil {
			continue
		}
		prayer := refTag.ReplaceAllString(m[1], "")
		prayer = pipedLink.ReplaceAllString(prayer, "")
		prayer = plainLink.ReplaceAllString(prayer, "$1")
		prayer = strings.ReplaceAll(prayer, "]]", "")
		prayer = template.ReplaceAllString(prayer, "")
		prayer = emphasisMark.ReplaceAllString(prayer, "")
		prayer = strings.TrimSpace(prayer)
		if utf8.RuneCountInString(prayer) > minPrayerRunes {
			return util.TruncateRunes(prayer, constants.FieldLimits.PrayerRunes)
		}
	}
	return ""
}
