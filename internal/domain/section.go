package domain

// SectionKind labels a block of page content.
type SectionKind string

const (
	KindFirstReading  SectionKind = "first_reading"
	KindSecondReading SectionKind = "second_reading"
	KindPsalm         SectionKind = "psalm"
	KindGospel        SectionKind = "gospel"
	KindSaints        SectionKind = "saints"
	KindUnsectioned   SectionKind = "full_content"
)

// Section is one labeled block found on a page.
type Section struct {
	Kind      SectionKind
	Reference string
	Body      string
}

// SectionMarker pairs a kind with the phrases that open it.
type SectionMarker struct {
	Kind     SectionKind
	Triggers []string
}

// SaintCandidate is a name found on a calendar page before enrichment.
type SaintCandidate struct {
	Month        int
	Day          int
	Name         string
	ReferenceURL string
	DetailURL    string
	Description  string
	ImageURL     string
}
