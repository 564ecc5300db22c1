package constants

import "time"

var FieldLimits = struct {
	DescriptionRunes int
	PrayerRunes      int
	SlugRunes        int
	ReferenceRunes   int
	MinBodyLineRunes int
	MinNameRunes     int
}{
	DescriptionRunes: 400, // CalendarEntry.description
	PrayerRunes:      300, // CalendarEntry.prayer_text
	SlugRunes:        50,  // image file base name
	ReferenceRunes:   100, // a citation line is shorter than this
	MinBodyLineRunes: 10,  // body lines this short are navigation noise
	MinNameRunes:     3,
}

var PacingConfig = struct {
	Default time.Duration
	Min     time.Duration
	Max     time.Duration
}{
	Default: 1 * time.Second,
	Min:     500 * time.Millisecond,
	Max:     2 * time.Second,
}

var HTTPConfig = struct {
	Timeout        time.Duration
	MaxBodyBytes   int64
	UserAgent      string
	AcceptLanguage string
}{
	Timeout:        10 * time.Second,
	MaxBodyBytes:   10 * 1024 * 1024,
	UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	AcceptLanguage: "es-ES,es;q=0.9,en;q=0.6",
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 5,                // 5 consecutive failures open the circuit
	ResetTimeout:     60 * time.Second, // wait before probing the host again
}

var ResolverConfig = struct {
	SearchLimit   int
	ThumbnailSize int
	CacheTTL      time.Duration
	CachePrefix   string
}{
	SearchLimit:   5,
	ThumbnailSize: 300,
	CacheTTL:      7 * 24 * time.Hour,
	CachePrefix:   "santoral:resolve:",
}

var SourceURLs = struct {
	SaintsWiki      string
	Calendar        string
	EncyclopediaAPI string
	ReadingsRSS     string
	ReadingsDaily   string
	ReadingsDated   string
}{
	SaintsWiki:      "https://es.wikipedia.org/wiki",
	Calendar:        "https://calendariodesantos.com/santoral",
	EncyclopediaAPI: "https://es.wikipedia.org/w/api.php",
	ReadingsRSS:     "https://www.vaticannews.va/es/evangelio-de-hoy.rss.xml",
	ReadingsDaily:   "https://www.vaticannews.va/es/evangelio-de-hoy.html",
	ReadingsDated:   "https://bible.usccb.org/es/bible/lecturas",
}
