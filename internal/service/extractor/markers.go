package extractor

import "github.com/kapu/santoral-go/internal/domain"

// ReadingMarkers opens the lectionary sections of a readings page. The
// matcher tries the longest trigger first, so "lectura del santo evangelio"
// wins over "lectura del libro" and plain "evangelio".
var ReadingMarkers = []domain.SectionMarker{
	{Kind: domain.KindFirstReading, Triggers: []string{
		"primera lectura", "lectura del libro", "lectura de la carta",
		"lectura de la profecia", "lectura de los hechos", "first reading",
	}},
	{Kind: domain.KindSecondReading, Triggers: []string{
		"segunda lectura", "second reading",
	}},
	{Kind: domain.KindPsalm, Triggers: []string{
		"salmo responsorial", "responsorial psalm", "salmo", "psalm",
	}},
	{Kind: domain.KindGospel, Triggers: []string{
		"lectura del santo evangelio", "evangelio segun", "santo evangelio",
		"evangelio", "gospel",
	}},
}

// SaintsSectionMarkers recognises the saints heading of a day page.
var SaintsSectionMarkers = []domain.SectionMarker{
	{Kind: domain.KindSaints, Triggers: []string{
		"santoral catolico", "catholic calendar of saints", "santoral",
	}},
}
