package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/kapu/santoral-go/internal/constants"
	"github.com/kapu/santoral-go/internal/util"
)

var detailSelectors = []string{
	"article p", ".content p", ".entry-content p",
	"main p", ".post-content p", "div.texto p",
}

const (
	detailParagraphs   = 3
	detailMinParagraph = 30
)

// DetailDescription pulls a short description out of an entry's detail page:
// the first selector with substantial paragraphs wins, and the readable main
// text is used when none has any.
func DetailDescription(body []byte, pageURL string) string {
	doc, err := ParseDocument(body)
	if err != nil {
		return ""
	}

	for _, selector := range detailSelectors {
		paragraphs := doc.Find(selector)
		if paragraphs.Length() == 0 {
			continue
		}
		texts := make([]string, 0, detailParagraphs)
		paragraphs.Slice(0, min(detailParagraphs, paragraphs.Length())).Each(func(_ int, p *goquery.Selection) {
			text := util.CollapseSpaces(p.Text())
			if utf8.RuneCountInString(text) > detailMinParagraph {
				texts = append(texts, text)
			}
		})
		if len(texts) > 0 {
			return util.TruncateRunes(strings.Join(texts, " "), constants.FieldLimits.DescriptionRunes)
		}
	}

	text := util.CollapseSpaces(ReadableText(body, pageURL))
	return util.TruncateRunes(text, constants.FieldLimits.DescriptionRunes)
}
