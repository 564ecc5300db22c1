package store

import (
	stderrors "errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/domain"
)

var saintColumns = []string{
	"month", "day", "name", "priority", "description",
	"image_ref", "reference_url", "tags", "prayer_text",
}

var saintAliases = map[string]string{
	"mes":           "month",
	"dia":           "day",
	"nombre":        "name",
	"prioridad":     "priority",
	"descripcion":   "description",
	"imagen":        "image_ref",
	"image":         "image_ref",
	"url_wikipedia": "reference_url",
	"url":           "reference_url",
	"etiquetas":     "tags",
	"oracion":       "prayer_text",
	"prayer":        "prayer_text",
}

// MergeResult counts what a merge did to the store.
type MergeResult struct {
	Inserted  int
	Updated   int
	Unchanged int
}

func (r MergeResult) Changed() bool {
	return r.Inserted > 0 || r.Updated > 0
}

// SaintsStore is the in-memory index of the saints file. It is the single
// writer of that file: lookups and write-backs happen under one lock.
type SaintsStore struct {
	table  *table
	logger *zap.Logger

	mu         sync.Mutex
	entries    []domain.CalendarEntry
	index      map[domain.SaintKey]int
	duplicates int
	loaded     bool
}

func NewSaintsStore(path string, opts Options, logger *zap.Logger) *SaintsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaintsStore{
		table:  newTable(path, saintColumns, saintAliases, opts, logger),
		logger: logger,
		index:  make(map[domain.SaintKey]int),
	}
}

func (s *SaintsStore) Path() string {
	return s.table.path
}

// Load reads the file into the index and returns the number of entries.
// Rows without a valid date or name are skipped; of several rows sharing a
// key the first one wins.
func (s *SaintsStore) Load() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *SaintsStore) loadLocked() (int, error) {
	rows, err := s.table.read()
	if err != nil {
		return 0, err
	}

	s.entries = make([]domain.CalendarEntry, 0, len(rows))
	s.index = make(map[domain.SaintKey]int, len(rows))
	s.duplicates = 0

	for _, r := range rows {
		entry, ok := entryFromRow(r)
		if !ok {
			s.logger.Warn("Skipping invalid saints row",
				zap.String("path", s.table.path),
				zap.String("line", r.line()),
				zap.String("month", r["month"]),
				zap.String("day", r["day"]),
			)
			continue
		}
		key := entry.Key()
		if _, exists := s.index[key]; exists {
			s.duplicates++
			s.logger.Warn("Duplicate saints row ignored",
				zap.String("key", key.String()),
				zap.String("line", r.line()),
			)
			continue
		}
		s.index[key] = len(s.entries)
		s.entries = append(s.entries, entry)
	}

	s.loaded = true
	s.logger.Debug("Saints store loaded",
		zap.String("path", s.table.path),
		zap.Int("entries", len(s.entries)),
		zap.Int("duplicates", s.duplicates),
	)
	return len(s.entries), nil
}

func (s *SaintsStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	_, err := s.loadLocked()
	return err
}

// GapsFor reports whether key is stored and which of the required fields it
// lacks. A nil required list checks every optional field.
func (s *SaintsStore) GapsFor(key domain.SaintKey, required []domain.Field) domain.Gaps {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[normalizeKey(key)]
	if !ok {
		return domain.Gaps{Status: domain.NotPresent}
	}
	return s.entries[i].GapsAgainst(required)
}

// Get returns the stored entry for key.
func (s *SaintsStore) Get(key domain.SaintKey) (domain.CalendarEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[normalizeKey(key)]
	if !ok {
		return domain.CalendarEntry{}, false
	}
	return s.entries[i], true
}

// EntriesForDay returns the stored entries of one calendar day in file order.
func (s *SaintsStore) EntriesForDay(month, day int) []domain.CalendarEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CalendarEntry, 0)
	for _, entry := range s.entries {
		if entry.Month == month && entry.Day == day {
			out = append(out, entry)
		}
	}
	return out
}

// All returns a copy of every stored entry in file order.
func (s *SaintsStore) All() []domain.CalendarEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CalendarEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Duplicates is the number of duplicate rows seen by the last Load.
func (s *SaintsStore) Duplicates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duplicates
}

// MergeAndPersist inserts unknown entries and fills empty fields of known
// ones. Populated fields are never overwritten. Pure inserts are appended;
// any update rewrites the file after a backup.
func (s *SaintsStore) MergeAndPersist(incoming []domain.CalendarEntry) (MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result MergeResult
	if err := s.ensureLoaded(); err != nil {
		return result, err
	}

	entries := make([]domain.CalendarEntry, len(s.entries))
	copy(entries, s.entries)
	index := make(map[domain.SaintKey]int, len(s.index))
	for k, v := range s.index {
		index[k] = v
	}

	inserted := make([]row, 0)
	for _, entry := range incoming {
		entry.Name = strings.TrimSpace(entry.Name)
		if entry.Name == "" {
			continue
		}
		key := entry.Key()

		i, exists := index[key]
		if !exists {
			index[key] = len(entries)
			entries = append(entries, entry)
			inserted = append(inserted, entryToRow(entry))
			result.Inserted++
			continue
		}

		merged, changed := entries[i].Merge(entry)
		if !changed {
			result.Unchanged++
			continue
		}
		entries[i] = merged
		if i >= len(s.entries) {
			// merged into an entry inserted by this same batch
			inserted[i-len(s.entries)] = entryToRow(merged)
			continue
		}
		result.Updated++
	}

	if !result.Changed() {
		return result, nil
	}

	var err error
	if result.Updated > 0 {
		err = s.table.rewrite(entriesToRows(entries))
	} else {
		err = s.table.appendRows(inserted)
		if stderrors.Is(err, errIncompatibleHeader) {
			s.logger.Info("Upgrading saints file header", zap.String("path", s.table.path))
			err = s.table.rewrite(entriesToRows(entries))
		}
	}
	if err != nil {
		return MergeResult{}, err
	}

	s.entries = entries
	s.index = index
	return result, nil
}

// Rewrite writes the whole index back to disk after a backup. Duplicate and
// unreadable rows of the old file do not survive it.
func (s *SaintsStore) Rewrite() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if err := s.table.rewrite(entriesToRows(s.entries)); err != nil {
		return err
	}
	s.duplicates = 0
	return nil
}

// Rescore recomputes priority and tags of every entry with score and
// rewrites the file. It returns how many entries changed.
func (s *SaintsStore) Rescore(score func(domain.CalendarEntry) domain.CalendarEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}

	rescored := make([]domain.CalendarEntry, len(s.entries))
	changed := 0
	for i, entry := range s.entries {
		scored := score(entry)
		updated := entry
		updated.Priority = scored.Priority
		updated.Tags = scored.Tags
		if updated != entry {
			changed++
		}
		rescored[i] = updated
	}

	if err := s.table.rewrite(entriesToRows(rescored)); err != nil {
		return 0, err
	}
	s.entries = rescored
	return changed, nil
}

// Dedupe reloads the file and rewrites it keeping the first row of each key.
// It returns the number of rows dropped.
func (s *SaintsStore) Dedupe() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadLocked(); err != nil {
		return 0, err
	}
	removed := s.duplicates
	if removed == 0 {
		return 0, nil
	}
	if err := s.table.rewrite(entriesToRows(s.entries)); err != nil {
		return 0, err
	}
	s.duplicates = 0
	return removed, nil
}

// SortedDays returns the distinct days that have entries, in calendar order.
func (s *SaintsStore) SortedDays() []domain.CalendarDay {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[domain.CalendarDay]bool)
	days := make([]domain.CalendarDay, 0)
	for _, entry := range s.entries {
		day := domain.CalendarDay{Month: entry.Month, Day: entry.Day}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func normalizeKey(key domain.SaintKey) domain.SaintKey {
	key.Name = strings.TrimSpace(key.Name)
	return key
}

func entryFromRow(r row) (domain.CalendarEntry, bool) {
	month, okMonth := atoi(r["month"])
	day, okDay := atoi(r["day"])
	name := strings.TrimSpace(r["name"])
	if !okMonth || !okDay || name == "" || domain.ValidateDay(month, day) != nil {
		return domain.CalendarEntry{}, false
	}
	return domain.CalendarEntry{
		Month:        month,
		Day:          day,
		Name:         name,
		Priority:     priorityFrom(r["priority"]),
		Description:  r["description"],
		ImageRef:     r["image_ref"],
		ReferenceURL: r["reference_url"],
		Tags:         r["tags"],
		PrayerText:   r["prayer_text"],
	}, true
}

func entryToRow(e domain.CalendarEntry) row {
	return row{
		"month":         itoa(e.Month),
		"day":           itoa(e.Day),
		"name":          e.Name,
		"priority":      priorityString(e.Priority),
		"description":   e.Description,
		"image_ref":     e.ImageRef,
		"reference_url": e.ReferenceURL,
		"tags":          e.Tags,
		"prayer_text":   e.PrayerText,
	}
}

func entriesToRows(entries []domain.CalendarEntry) []row {
	rows := make([]row, len(entries))
	for i, e := range entries {
		rows[i] = entryToRow(e)
	}
	return rows
}
