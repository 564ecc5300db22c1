package classifier

import (
	"strings"

	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/internal/util"
)

// Tag labels, in the order Tags emits them.
const (
	TagMajorFeast     = "major-feast"
	TagFeastDay       = "feast-day"
	TagRegionalPatron = "regional-patron"
	TagScoutPatron    = "scout-patron"
	TagRegionAffinity = "region-affinity"
)

type tier struct {
	prefixes []string
	priority int
}

type phrase struct {
	folded   string
	priority int
	exact    bool
}

// Classifier scores and tags calendar entries from curated tables. The
// tables are folded once at construction and then only read, so a Classifier
// is safe for concurrent use.
type Classifier struct {
	tiers            []tier
	feasts           []phrase
	patrons          []phrase
	scouts           []string
	datedFeasts      map[domain.CalendarDay]bool
	regionKeywords   []string
	regionPriority   int
	sanctityPrefixes []string
	sanctityPriority int
	defaultPriority  int
}

// New builds a Classifier. Every list keeps the order of the tables.
func New(tables *domain.ClassifierTables) *Classifier {
	c := &Classifier{
		datedFeasts:      make(map[domain.CalendarDay]bool, len(tables.DatedFeasts)),
		regionPriority:   tables.RegionPriority,
		sanctityPriority: tables.SanctityPriority,
		defaultPriority:  tables.DefaultPriority,
	}

	for _, t := range tables.LowerTiers {
		c.tiers = append(c.tiers, tier{prefixes: foldAll(t.Prefixes), priority: t.Priority})
	}
	for _, f := range tables.Feasts {
		c.feasts = append(c.feasts, phrase{folded: util.FoldForCompare(f.Phrase), priority: f.Priority, exact: f.Exact})
	}
	for _, p := range tables.Patrons {
		c.patrons = append(c.patrons, phrase{folded: util.NormalizeForLookup(p.Phrase), priority: p.Priority, exact: p.Exact})
	}
	for _, s := range tables.Scouts {
		c.scouts = append(c.scouts, util.NormalizeForLookup(s))
	}
	for _, d := range tables.DatedFeasts {
		c.datedFeasts[domain.CalendarDay{Month: d.Month, Day: d.Day}] = true
	}
	c.regionKeywords = foldAll(tables.RegionKeywords)
	c.sanctityPrefixes = foldAll(tables.SanctityPrefixes)
	return c
}

// LoadTables reads the tables file at path (embedded defaults when empty) and
// builds a Classifier from it.
func LoadTables(path string) (*Classifier, error) {
	tables, err := domain.LoadClassifierTables(path)
	if err != nil {
		return nil, err
	}
	return New(tables), nil
}

// Classify returns the priority of an entry. Rules are tried in a fixed order
// and the first one that matches decides:
//
//  1. blessed/venerable honorific tiers
//  2. major feast phrase in the name
//  3. regional patron phrase in the name
//  4. region keyword in the description
//  5. generic sanctity honorific
//  6. default
func (c *Classifier) Classify(name, description string) int {
	folded := util.FoldForCompare(name)

	for _, t := range c.tiers {
		if hasAnyPrefix(folded, t.prefixes) {
			return t.priority
		}
	}
	// Feast phrases keep the honorific: "san jose" is the feast, "jose de calasanz" is not.
	if p, ok := matchPhrase(folded, c.feasts); ok {
		return p.priority
	}
	if p, ok := matchPhrase(folded, c.patrons); ok {
		return p.priority
	}
	if c.hasRegionKeyword(description) {
		return c.regionPriority
	}
	if hasAnyPrefix(folded, c.sanctityPrefixes) {
		return c.sanctityPriority
	}
	return c.defaultPriority
}

// Tags returns the comma-joined labels of an entry observed on month/day.
func (c *Classifier) Tags(name, description string, month, day int) string {
	folded := util.FoldForCompare(name)
	tags := make([]string, 0, 5)

	if _, ok := matchPhrase(folded, c.feasts); ok {
		tags = append(tags, TagMajorFeast)
	}
	if c.datedFeasts[domain.CalendarDay{Month: month, Day: day}] {
		tags = append(tags, TagFeastDay)
	}
	if _, ok := matchPhrase(folded, c.patrons); ok {
		tags = append(tags, TagRegionalPatron)
	}
	for _, scout := range c.scouts {
		if util.ContainsWord(folded, scout) {
			tags = append(tags, TagScoutPatron)
			break
		}
	}
	if c.hasRegionKeyword(description) {
		tags = append(tags, TagRegionAffinity)
	}
	return strings.Join(tags, ",")
}

// Score fills priority and tags of entry.
func (c *Classifier) Score(entry domain.CalendarEntry) domain.CalendarEntry {
	entry.Priority = c.Classify(entry.Name, entry.Description)
	entry.Tags = c.Tags(entry.Name, entry.Description, entry.Month, entry.Day)
	return entry
}

func (c *Classifier) hasRegionKeyword(description string) bool {
	if description == "" {
		return false
	}
	folded := util.FoldForCompare(description)
	for _, keyword := range c.regionKeywords {
		if util.ContainsWord(folded, keyword) {
			return true
		}
	}
	return false
}

func matchPhrase(folded string, phrases []phrase) (phrase, bool) {
	for _, p := range phrases {
		if p.exact {
			if folded == p.folded {
				return p, true
			}
			continue
		}
		if util.ContainsWord(folded, p.folded) {
			return p, true
		}
	}
	return phrase{}, false
}

// hasAnyPrefix matches whole leading words only, so "santiago" is not "santa".
func hasAnyPrefix(folded string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if folded == prefix || strings.HasPrefix(folded, prefix+" ") {
			return true
		}
	}
	return false
}

func foldAll(values []string) []string {
	folded := make([]string, 0, len(values))
	for _, v := range values {
		if f := util.FoldForCompare(v); f != "" {
			folded = append(folded, f)
		}
	}
	return folded
}
