package store

import (
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/domain"
)

var readingColumns = []string{
	"year", "month", "day", "title",
	"first_reading_ref", "first_reading_text",
	"psalm_ref", "psalm_text",
	"gospel_ref", "gospel_text",
}

var readingAliases = map[string]string{
	"ano":                   "year",
	"anio":                  "year",
	"mes":                   "month",
	"dia":                   "day",
	"titulo":                "title",
	"primera_lectura_ref":   "first_reading_ref",
	"primera_lectura_texto": "first_reading_text",
	"salmo_ref":             "psalm_ref",
	"salmo_texto":           "psalm_text",
	"evangelio_ref":         "gospel_ref",
	"evangelio_texto":       "gospel_text",
}

// ReadingsStore is the in-memory index of the readings file.
type ReadingsStore struct {
	table  *table
	logger *zap.Logger

	mu       sync.Mutex
	readings map[domain.ReadingKey]domain.DailyReading
	loaded   bool
}

func NewReadingsStore(path string, opts Options, logger *zap.Logger) *ReadingsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadingsStore{
		table:    newTable(path, readingColumns, readingAliases, opts, logger),
		logger:   logger,
		readings: make(map[domain.ReadingKey]domain.DailyReading),
	}
}

func (s *ReadingsStore) Path() string {
	return s.table.path
}

// Load reads the file into the index and returns the number of readings.
func (s *ReadingsStore) Load() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *ReadingsStore) loadLocked() (int, error) {
	rows, err := s.table.read()
	if err != nil {
		return 0, err
	}

	s.readings = make(map[domain.ReadingKey]domain.DailyReading, len(rows))
	for _, r := range rows {
		reading, ok := readingFromRow(r)
		if !ok {
			s.logger.Warn("Skipping invalid readings row",
				zap.String("path", s.table.path),
				zap.String("line", r.line()),
			)
			continue
		}
		if _, exists := s.readings[reading.Key()]; exists {
			s.logger.Warn("Duplicate readings row ignored", zap.String("key", reading.Key().String()))
			continue
		}
		s.readings[reading.Key()] = reading
	}
	s.loaded = true
	return len(s.readings), nil
}

func (s *ReadingsStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	_, err := s.loadLocked()
	return err
}

// GapsFor reports whether the reading for key is stored and complete.
func (s *ReadingsStore) GapsFor(key domain.ReadingKey) domain.Gaps {
	s.mu.Lock()
	defer s.mu.Unlock()

	reading, ok := s.readings[key]
	if !ok {
		return domain.Gaps{Status: domain.NotPresent}
	}
	return reading.Gaps()
}

func (s *ReadingsStore) Get(key domain.ReadingKey) (domain.DailyReading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reading, ok := s.readings[key]
	return reading, ok
}

// MergeAndPersist inserts unknown readings and fills blank slots of stored
// ones. Inserts are appended; any update rewrites the file newest first.
func (s *ReadingsStore) MergeAndPersist(incoming []domain.DailyReading) (MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result MergeResult
	if err := s.ensureLoaded(); err != nil {
		return result, err
	}

	next := make(map[domain.ReadingKey]domain.DailyReading, len(s.readings)+len(incoming))
	for k, v := range s.readings {
		next[k] = v
	}

	insertedKeys := make([]domain.ReadingKey, 0)
	for _, reading := range incoming {
		key := reading.Key()
		if domain.ValidateDay(key.Month, key.Day) != nil {
			continue
		}
		stored, exists := next[key]
		if !exists {
			next[key] = reading
			insertedKeys = append(insertedKeys, key)
			result.Inserted++
			continue
		}
		merged, changed := stored.Merge(reading)
		if !changed {
			result.Unchanged++
			continue
		}
		next[key] = merged
		if _, wasStored := s.readings[key]; wasStored {
			result.Updated++
		}
	}

	if !result.Changed() {
		return result, nil
	}

	var err error
	if result.Updated > 0 {
		err = s.table.rewrite(readingsToRows(next))
	} else {
		rows := make([]row, len(insertedKeys))
		for i, key := range insertedKeys {
			rows[i] = readingToRow(next[key])
		}
		err = s.table.appendRows(rows)
		if stderrors.Is(err, errIncompatibleHeader) {
			err = s.table.rewrite(readingsToRows(next))
		}
	}
	if err != nil {
		return MergeResult{}, err
	}

	s.readings = next
	return result, nil
}

// CreateYear adds a placeholder for every day of year that has no reading
// yet and rewrites the file newest first. Stored readings are kept as they
// are. It returns the number of placeholders created.
func (s *ReadingsStore) CreateYear(year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}

	next := make(map[domain.ReadingKey]domain.DailyReading, len(s.readings)+366)
	for k, v := range s.readings {
		next[k] = v
	}

	created := 0
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for date := start; date.Year() == year; date = date.AddDate(0, 0, 1) {
		key := domain.KeyForDate(date)
		if _, exists := next[key]; exists {
			continue
		}
		next[key] = domain.NewPlaceholderReading(date)
		created++
	}

	if created == 0 {
		return 0, nil
	}
	if err := s.table.rewrite(readingsToRows(next)); err != nil {
		return 0, err
	}
	s.readings = next
	return created, nil
}

func readingFromRow(r row) (domain.DailyReading, bool) {
	year, okYear := atoi(r["year"])
	month, okMonth := atoi(r["month"])
	day, okDay := atoi(r["day"])
	if !okYear || !okMonth || !okDay || year <= 0 || domain.ValidateDay(month, day) != nil {
		return domain.DailyReading{}, false
	}
	return domain.DailyReading{
		Year:             year,
		Month:            month,
		Day:              day,
		Title:            r["title"],
		FirstReadingRef:  r["first_reading_ref"],
		FirstReadingText: r["first_reading_text"],
		PsalmRef:         r["psalm_ref"],
		PsalmText:        r["psalm_text"],
		GospelRef:        r["gospel_ref"],
		GospelText:       r["gospel_text"],
	}, true
}

func readingToRow(reading domain.DailyReading) row {
	return row{
		"year":               itoa(reading.Year),
		"month":              itoa(reading.Month),
		"day":                itoa(reading.Day),
		"title":              reading.Title,
		"first_reading_ref":  reading.FirstReadingRef,
		"first_reading_text": reading.FirstReadingText,
		"psalm_ref":          reading.PsalmRef,
		"psalm_text":         reading.PsalmText,
		"gospel_ref":         reading.GospelRef,
		"gospel_text":        reading.GospelText,
	}
}

// readingsToRows orders readings newest first.
func readingsToRows(readings map[domain.ReadingKey]domain.DailyReading) []row {
	keys := make([]domain.ReadingKey, 0, len(readings))
	for key := range readings {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[j].Before(keys[i]) })

	rows := make([]row, len(keys))
	for i, key := range keys {
		rows[i] = readingToRow(readings[key])
	}
	return rows
}
