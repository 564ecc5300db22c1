package extractor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kapu/santoral-go/internal/constants"
	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/internal/util"
)

// A trigger phrase only counts inside a line shorter than this; longer lines
// are body text that happens to mention it.
const headingRunes = 100

type trigger struct {
	kind   domain.SectionKind
	phrase string
}

// SectionMatcher tests lines against section triggers, most specific first.
type SectionMatcher struct {
	triggers []trigger
}

func NewSectionMatcher(markers []domain.SectionMarker) *SectionMatcher {
	triggers := make([]trigger, 0)
	for _, marker := range markers {
		for _, phrase := range marker.Triggers {
			phrase = util.FoldForCompare(phrase)
			if phrase == "" {
				continue
			}
			triggers = append(triggers, trigger{kind: marker.Kind, phrase: phrase})
		}
	}
	// Stable keeps the marker order for triggers of equal length.
	sort.SliceStable(triggers, func(i, j int) bool {
		return utf8.RuneCountInString(triggers[i].phrase) > utf8.RuneCountInString(triggers[j].phrase)
	})
	return &SectionMatcher{triggers: triggers}
}

// Match reports the section kind a line opens, if any. A line opens a section
// when it starts with a trigger, or when it is heading-sized and contains one.
func (m *SectionMatcher) Match(line string) (domain.SectionKind, bool) {
	folded := util.FoldForCompare(line)
	if folded == "" {
		return "", false
	}
	short := utf8.RuneCountInString(folded) < headingRunes

	for _, t := range m.triggers {
		if hasWordPrefix(folded, t.phrase) {
			return t.kind, true
		}
		if short && util.ContainsWord(folded, t.phrase) {
			return t.kind, true
		}
	}
	return "", false
}

func hasWordPrefix(folded, phrase string) bool {
	if !strings.HasPrefix(folded, phrase) {
		return false
	}
	rest := folded[len(phrase):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

type openSection struct {
	kind      domain.SectionKind
	reference string
	body      []string
}

func (s *openSection) empty() bool {
	return s.reference == "" && len(s.body) == 0
}

// ExtractSections partitions lines into the sections opened by markers. Lines
// before the first marker are ignored. When nothing is recognised the whole
// content comes back as a single unsectioned unit.
func ExtractSections(lines []string, markers []domain.SectionMarker) []domain.Section {
	return NewSectionMatcher(markers).Extract(lines)
}

func (m *SectionMatcher) Extract(lines []string) []domain.Section {
	sections := make([]domain.Section, 0)
	var current *openSection

	flush := func() {
		if current == nil || current.empty() {
			return
		}
		sections = append(sections, domain.Section{
			Kind:      current.kind,
			Reference: current.reference,
			Body:      strings.Join(current.body, "\n\n"),
		})
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if kind, ok := m.Match(line); ok {
			// A citation line repeating the heading of a still empty section,
			// e.g. "Evangelio" followed by "Lectura del santo evangelio según san Lucas 10, 17-24".
			if current != nil && current.kind == kind && current.empty() && isShort(line) {
				current.reference = line
				continue
			}

			flush()
			current = &openSection{kind: kind}
			if i+1 < len(lines) && m.isReference(lines[i+1]) {
				current.reference = strings.TrimSpace(lines[i+1])
				i++
			} else if isShort(line) && containsDigit(line) {
				current.reference = line
			}
			continue
		}

		if current != nil && utf8.RuneCountInString(line) > constants.FieldLimits.MinBodyLineRunes {
			current.body = append(current.body, line)
		}
	}
	flush()

	if len(sections) == 0 {
		return []domain.Section{Unsectioned(lines)}
	}
	return sections
}

func (m *SectionMatcher) isReference(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || !isShort(line) {
		return false
	}
	_, isTrigger := m.Match(line)
	return !isTrigger
}

// Unsectioned wraps every non-empty line into one full-content unit.
func Unsectioned(lines []string) domain.Section {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return domain.Section{Kind: domain.KindUnsectioned, Body: strings.Join(kept, "\n\n")}
}

// FindSection returns the first section of kind.
func FindSection(sections []domain.Section, kind domain.SectionKind) (domain.Section, bool) {
	for _, section := range sections {
		if section.Kind == kind {
			return section, true
		}
	}
	return domain.Section{}, false
}

func isShort(line string) bool {
	return utf8.RuneCountInString(line) < constants.FieldLimits.ReferenceRunes
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
