package extractor

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// FeedItem is one RSS item with its description rendered to text lines.
type FeedItem struct {
	Title     string
	Link      string
	Published time.Time
	Lines     []string
}

var pubDateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

// ParseFeed decodes an RSS 2.0 document.
func ParseFeed(body []byte) ([]FeedItem, error) {
	var doc rssDocument
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.Strict = false
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rss: %w", err)
	}

	items := make([]FeedItem, 0, len(doc.Channel.Items))
	for _, raw := range doc.Channel.Items {
		item := FeedItem{
			Title:     strings.TrimSpace(raw.Title),
			Link:      strings.TrimSpace(raw.Link),
			Published: parsePubDate(raw.PubDate),
		}
		html, err := goquery.NewDocumentFromReader(strings.NewReader(raw.Description))
		if err != nil {
			item.Lines = SplitLines(raw.Description)
		} else {
			item.Lines = SelectionLines(html.Selection)
		}
		items = append(items, item)
	}
	return items, nil
}

// parsePubDate returns the publication day at midnight UTC, or the zero time.
func parsePubDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}
