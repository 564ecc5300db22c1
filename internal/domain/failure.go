package domain

// ExtractionFailure is one diagnostic line for a day whose page yielded nothing.
type ExtractionFailure struct {
	Month     int
	Day       int
	SourceURL string
	Reason    string
}
