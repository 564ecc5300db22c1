package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/internal/util"
)

const blockSelector = "p, div, li, h1, h2, h3, h4, h5, h6, tr, blockquote, section, article, dd, dt"

// ParseDocument wraps goquery so every adapter reports parse failures the same way.
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// SelectionLines renders a selection as text lines: one per block element or
// <br>, whitespace collapsed, blanks dropped.
func SelectionLines(sel *goquery.Selection) []string {
	sel = sel.Clone()
	sel.Find("script, style, noscript, nav, footer, form, button").Remove()
	sel.Find("br").ReplaceWithHtml("\n")
	sel.Find(blockSelector).Each(func(_ int, block *goquery.Selection) {
		block.AppendHtml("\n")
	})
	return SplitLines(sel.Text())
}

// SplitLines splits text into trimmed, space-collapsed, non-empty lines.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = util.CollapseSpaces(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ExtractHTMLSections runs ExtractSections over the first container matching
// one of containers (the whole body when none match). When no marker fires,
// the unsectioned unit carries the readable main text of the page instead of
// every navigation line.
func ExtractHTMLSections(body []byte, pageURL string, containers []string, markers []domain.SectionMarker) ([]domain.Section, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, err
	}

	root := doc.Find("body")
	for _, selector := range containers {
		if found := doc.Find(selector).First(); found.Length() > 0 {
			root = found
			break
		}
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	sections := ExtractSections(SelectionLines(root), markers)
	if len(sections) == 1 && sections[0].Kind == domain.KindUnsectioned {
		if text := ReadableText(body, pageURL); text != "" {
			sections[0] = Unsectioned(SplitLines(text))
		}
	}
	return sections, nil
}

// ReadableText returns the main article text of an HTML page, or "" when the
// page has no recognisable article.
func ReadableText(body []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		parsed = &url.URL{Scheme: "https", Host: "localhost"}
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}
