package domain

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/classifier_tables.yaml
var classifierTablesYAML []byte

// PhraseScore is a curated phrase with the priority it grants.
type PhraseScore struct {
	Phrase   string `yaml:"phrase"`
	Priority int    `yaml:"priority"`
	Exact    bool   `yaml:"exact"`
}

// PrefixTier groups honorific prefixes sharing one priority.
type PrefixTier struct {
	Prefixes []string `yaml:"prefixes"`
	Priority int      `yaml:"priority"`
}

// DatedFeast pins a major feast to a calendar day.
type DatedFeast struct {
	Month int    `yaml:"month"`
	Day   int    `yaml:"day"`
	Name  string `yaml:"name"`
}

// ClassifierTables holds the ordered curated data behind priorities and tags.
type ClassifierTables struct {
	LowerTiers       []PrefixTier  `yaml:"lower_tiers"`
	Feasts           []PhraseScore `yaml:"feasts"`
	DatedFeasts      []DatedFeast  `yaml:"dated_feasts"`
	Patrons          []PhraseScore `yaml:"patrons"`
	Scouts           []string      `yaml:"scouts"`
	RegionKeywords   []string      `yaml:"region_keywords"`
	RegionPriority   int           `yaml:"region_priority"`
	SanctityPrefixes []string      `yaml:"sanctity_prefixes"`
	SanctityPriority int           `yaml:"sanctity_priority"`
	DefaultPriority  int           `yaml:"default_priority"`
}

// LoadClassifierTables parses the tables file at path, or the embedded
// defaults when path is empty.
func LoadClassifierTables(path string) (*ClassifierTables, error) {
	data := classifierTablesYAML
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read classifier tables %s: %w", path, err)
		}
		data = raw
	}
	return ParseClassifierTables(data)
}

// ParseClassifierTables decodes and validates a tables document.
func ParseClassifierTables(data []byte) (*ClassifierTables, error) {
	var tables ClassifierTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse classifier tables: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &tables, nil
}

// Validate checks every score is a usable priority. 0 is reserved for "unscored".
func (t *ClassifierTables) Validate() error {
	check := func(where string, priority int) error {
		if priority < 1 || priority > 100 {
			return fmt.Errorf("classifier tables: %s priority %d out of range 1-100", where, priority)
		}
		return nil
	}

	for _, tier := range t.LowerTiers {
		if err := check("lower tier", tier.Priority); err != nil {
			return err
		}
	}
	for _, feast := range t.Feasts {
		if err := check("feast "+feast.Phrase, feast.Priority); err != nil {
			return err
		}
	}
	for _, patron := range t.Patrons {
		if err := check("patron "+patron.Phrase, patron.Priority); err != nil {
			return err
		}
	}
	for _, feast := range t.DatedFeasts {
		if err := ValidateDay(feast.Month, feast.Day); err != nil {
			return fmt.Errorf("classifier tables: dated feast %s: %w", feast.Name, err)
		}
	}
	if len(t.RegionKeywords) > 0 {
		if err := check("region", t.RegionPriority); err != nil {
			return err
		}
	}
	if err := check("sanctity", t.SanctityPriority); err != nil {
		return err
	}
	return check("default", t.DefaultPriority)
}
