package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/domain"
	"github.com/kapu/santoral-go/pkg/errors"
)

var fixedNow = time.Date(2025, 10, 4, 12, 30, 0, 0, time.UTC)

func newTestSaints(t *testing.T) (*SaintsStore, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "santos.csv")
	opts := Options{BackupDir: filepath.Join(dir, "backups"), Now: func() time.Time { return fixedNow }}
	return NewSaintsStore(path, opts, zap.NewNop()), dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSaintsLoadMissingFile(t *testing.T) {
	s, _ := newTestSaints(t)
	n, err := s.Load()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, domain.NotPresent, s.GapsFor(domain.SaintKey{Month: 1, Day: 1, Name: "San Basilio"}, nil).Status)
}

func TestSaintsInsertWritesHeaderOnce(t *testing.T) {
	s, _ := newTestSaints(t)

	res, err := s.MergeAndPersist([]domain.CalendarEntry{{Month: 10, Day: 4, Name: "San Francisco de Asís", Priority: 50}})
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Inserted: 1}, res)

	res, err = s.MergeAndPersist([]domain.CalendarEntry{{Month: 10, Day: 5, Name: "Santa Faustina Kowalska", Priority: 50}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	content := readFile(t, s.Path())
	assert.Equal(t, 1, strings.Count(content, "month,day,name"))
	assert.Equal(t, "month,day,name,priority,description,image_ref,reference_url,tags,prayer_text\n"+
		"10,4,San Francisco de Asís,50,,,,,\n"+
		"10,5,Santa Faustina Kowalska,50,,,,,\n", content)
}

func TestSaintsMergeNeverOverwrites(t *testing.T) {
	s, dir := newTestSaints(t)
	_, err := s.MergeAndPersist([]domain.CalendarEntry{{Month: 10, Day: 4, Name: "San Francisco de Asís", Description: "X"}})
	require.NoError(t, err)

	res, err := s.MergeAndPersist([]domain.CalendarEntry{{Month: 10, Day: 4, Name: "San Francisco de Asís", Description: "", ImageRef: "img.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Updated: 1}, res)

	got, ok := s.Get(domain.SaintKey{Month: 10, Day: 4, Name: "San Francisco de Asís"})
	require.True(t, ok)
	assert.Equal(t, "X", got.Description)
	assert.Equal(t, "img.jpg", got.ImageRef)

	// the rewrite left a backup of the previous file behind
	backups, err := filepath.Glob(filepath.Join(dir, "backups", "santos.csv.*.bak"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
	assert.NotContains(t, readFile(t, backups[0]), "img.jpg")

	reloaded := NewSaintsStore(s.Path(), Options{}, nil)
	_, err = reloaded.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(s.All(), reloaded.All()); diff != "" {
		t.Errorf("reloaded entries differ (-want +got):\n%s", diff)
	}
}

func TestSaintsMergeIsIdempotent(t *testing.T) {
	s, _ := newTestSaints(t)
	batch := []domain.CalendarEntry{
		{Month: 10, Day: 4, Name: "San Francisco de Asís", Priority: 50, Description: "Fundador"},
		{Month: 10, Day: 4, Name: "San Petronio de Bolonia", Priority: 50},
	}
	_, err := s.MergeAndPersist(batch)
	require.NoError(t, err)
	before := readFile(t, s.Path())

	res, err := s.MergeAndPersist(batch)
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Unchanged: 2}, res)
	assert.Equal(t, before, readFile(t, s.Path()))
}

func TestSaintsBatchDuplicatesCollapse(t *testing.T) {
	s, _ := newTestSaints(t)
	res, err := s.MergeAndPersist([]domain.CalendarEntry{
		{Month: 3, Day: 19, Name: "San José", Priority: 100},
		{Month: 3, Day: 19, Name: " San José ", Description: "Esposo de María"},
	})
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Inserted: 1}, res)

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Esposo de María", all[0].Description)
	assert.Equal(t, 100, all[0].Priority)
}

func TestSaintsGaps(t *testing.T) {
	s, _ := newTestSaints(t)
	_, err := s.MergeAndPersist([]domain.CalendarEntry{
		{Month: 4, Day: 23, Name: "San Jorge", Priority: 50, Description: "Mártir", ReferenceURL: "https://es.wikipedia.org/wiki/Jorge_de_Capadocia"},
	})
	require.NoError(t, err)

	key := domain.SaintKey{Month: 4, Day: 23, Name: "San Jorge"}
	required := []domain.Field{domain.FieldPriority, domain.FieldDescription, domain.FieldReferenceURL}
	assert.Equal(t, domain.Complete, s.GapsFor(key, required).Status)

	gaps := s.GapsFor(key, nil)
	assert.Equal(t, domain.Incomplete, gaps.Status)
	assert.Equal(t, []domain.Field{domain.FieldImage, domain.FieldPrayer}, gaps.Missing)
}

func TestSaintsLoadLegacyAndCorruptRows(t *testing.T) {
	s, _ := newTestSaints(t)
	writeFile(t, s.Path(), "\xEF\xBB\xBFmes,dia,nombre,descripcion,imagen,url_wikipedia,url_vatican,oracion\n"+
		"10,4,San Francisco de Asís,Fundador,francisco.jpg,https://es.wikipedia.org/wiki/Francisco_de_As%C3%ADs,,\n"+
		"trece,4,Nombre sin mes,,,,,\n"+
		"2,30,Fecha imposible,,,,,\n"+
		"10,4,San Francisco de Asís,Duplicado,,,,\n"+
		"10,4,\"San Petronio \"de\" Bolonia\",,,,\n"+
		"10,5\n")

	n, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, s.Duplicates())

	got, ok := s.Get(domain.SaintKey{Month: 10, Day: 4, Name: "San Francisco de Asís"})
	require.True(t, ok)
	assert.Equal(t, "Fundador", got.Description)
	assert.Equal(t, "francisco.jpg", got.ImageRef)
	assert.Zero(t, got.Priority)
	assert.Empty(t, got.Tags)
}

func TestSaintsAppendUpgradesLegacyHeader(t *testing.T) {
	s, dir := newTestSaints(t)
	writeFile(t, s.Path(), "mes,dia,nombre,descripcion\n10,4,San Francisco de Asís,Fundador")

	_, err := s.MergeAndPersist([]domain.CalendarEntry{{Month: 10, Day: 5, Name: "Santa Faustina Kowalska", Priority: 50}})
	require.NoError(t, err)

	content := readFile(t, s.Path())
	assert.True(t, strings.HasPrefix(content, "month,day,name,priority,"))
	assert.Contains(t, content, "10,4,San Francisco de Asís,,Fundador,,,,\n")
	assert.Contains(t, content, "10,5,Santa Faustina Kowalska,50,,,,,\n")

	backups, _ := filepath.Glob(filepath.Join(dir, "backups", "*.bak"))
	assert.Len(t, backups, 1)
}

func TestSaintsAppendRepairsMissingNewline(t *testing.T) {
	s, _ := newTestSaints(t)
	writeFile(t, s.Path(), strings.Join(saintColumns, ",")+"\n1,1,Santa María Madre de Dios,100,,,,,")

	_, err := s.MergeAndPersist([]domain.CalendarEntry{{Month: 1, Day: 2, Name: "San Basilio Magno", Priority: 50}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(readFile(t, s.Path())), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1,2,San Basilio Magno,50,,,,,", lines[2])
}

func TestSaintsAppendDropsUnterminatedRow(t *testing.T) {
	s, dir := newTestSaints(t)
	writeFile(t, s.Path(), strings.Join(saintColumns, ",")+"\n"+
		`10,3,San Francisco de Borja,50,"Fue duque de Gandía, luego`)

	res, err := s.MergeAndPersist([]domain.CalendarEntry{
		{Month: 10, Day: 4, Name: "San Francisco de Asís", Priority: 50, Description: "x"},
		{Month: 10, Day: 5, Name: "Santa Faustina Kowalska", Priority: 50, Description: "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	reloaded := NewSaintsStore(s.Path(), Options{BackupDir: filepath.Join(dir, "backups")}, zap.NewNop())
	n, err := reloaded.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	asis, ok := reloaded.Get(domain.SaintKey{Month: 10, Day: 4, Name: "San Francisco de Asís"})
	require.True(t, ok)
	assert.Equal(t, "x", asis.Description)
	_, ok = reloaded.Get(domain.SaintKey{Month: 10, Day: 5, Name: "Santa Faustina Kowalska"})
	assert.True(t, ok)

	assert.NotContains(t, readFile(t, s.Path()), "Gandía")
	backups, _ := filepath.Glob(filepath.Join(dir, "backups", "*.bak"))
	require.Len(t, backups, 1)
	assert.Contains(t, readFile(t, backups[0]), "Gandía")
}

func TestSaintsLoadRecoversRowsAfterUnterminatedQuote(t *testing.T) {
	s, _ := newTestSaints(t)
	writeFile(t, s.Path(), strings.Join(saintColumns, ",")+"\n"+
		`10,3,San Francisco de Borja,50,"Fue duque de Gandía, luego`+"\n"+
		"10,4,San Francisco de Asís,50,x,,,,\n"+
		"10,5,Santa Faustina Kowalska,50,y,,,,\n")

	n, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	asis, ok := s.Get(domain.SaintKey{Month: 10, Day: 4, Name: "San Francisco de Asís"})
	require.True(t, ok)
	assert.Equal(t, "x", asis.Description)
}

func TestSaintsKeepsMultilineDescriptions(t *testing.T) {
	s, _ := newTestSaints(t)
	writeFile(t, s.Path(), strings.Join(saintColumns, ",")+"\n"+
		"10,4,San Francisco de Asís,50,\"Fundador.\nPatrono de Italia, \"\"il Poverello\"\".\",,,,\n")

	_, err := s.MergeAndPersist([]domain.CalendarEntry{{Month: 10, Day: 5, Name: "Santa Faustina Kowalska", Priority: 50}})
	require.NoError(t, err)

	reloaded := NewSaintsStore(s.Path(), Options{}, zap.NewNop())
	n, err := reloaded.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	asis, ok := reloaded.Get(domain.SaintKey{Month: 10, Day: 4, Name: "San Francisco de Asís"})
	require.True(t, ok)
	assert.Equal(t, "Fundador.\nPatrono de Italia, \"il Poverello\".", asis.Description)
}

func TestSaintsBacksUpOncePerStore(t *testing.T) {
	dir := t.TempDir()
	now := fixedNow
	s := NewSaintsStore(filepath.Join(dir, "santos.csv"), Options{
		BackupDir: filepath.Join(dir, "backups"),
		Now: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	}, zap.NewNop())

	_, err := s.MergeAndPersist([]domain.CalendarEntry{{Month: 10, Day: 4, Name: "San Francisco de Asís"}})
	require.NoError(t, err)
	_, err = s.MergeAndPersist([]domain.CalendarEntry{{Month: 10, Day: 4, Name: "San Francisco de Asís", Description: "Fundador"}})
	require.NoError(t, err)
	_, err = s.MergeAndPersist([]domain.CalendarEntry{{Month: 10, Day: 4, Name: "San Francisco de Asís", Priority: 50}})
	require.NoError(t, err)

	backups, _ := filepath.Glob(filepath.Join(dir, "backups", "*.bak"))
	require.Len(t, backups, 1)
	assert.NotContains(t, readFile(t, backups[0]), "Fundador", "the copy holds the file from before the first rewrite")

	stored, ok := s.Get(domain.SaintKey{Month: 10, Day: 4, Name: "San Francisco de Asís"})
	require.True(t, ok)
	assert.Equal(t, 50, stored.Priority)
}

func TestSaintsDedupe(t *testing.T) {
	s, dir := newTestSaints(t)
	writeFile(t, s.Path(), strings.Join(saintColumns, ",")+"\n"+
		"10,4,San Francisco de Asís,50,Primero,,,,\n"+
		"10,4,San Francisco de Asís,50,Segundo,,,,\n"+
		"10,4,San Francisco de Asís,50,Tercero,,,,\n")

	removed, err := s.Dedupe()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NotContains(t, readFile(t, s.Path()), "Segundo")
	assert.Contains(t, readFile(t, s.Path()), "Primero")

	backups, _ := filepath.Glob(filepath.Join(dir, "backups", "*.bak"))
	require.Len(t, backups, 1)
	assert.Contains(t, readFile(t, backups[0]), "Tercero")

	removed, err = s.Dedupe()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSaintsRescore(t *testing.T) {
	s, _ := newTestSaints(t)
	_, err := s.MergeAndPersist([]domain.CalendarEntry{
		{Month: 12, Day: 25, Name: "Navidad", Priority: 25, Description: "Nacimiento"},
		{Month: 1, Day: 1, Name: "Marco", Priority: 25},
	})
	require.NoError(t, err)

	changed, err := s.Rescore(func(e domain.CalendarEntry) domain.CalendarEntry {
		if e.Name == "Navidad" {
			e.Priority = 100
			e.Tags = "major-feast"
		}
		e.Description = "ignored"
		return e
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, _ := s.Get(domain.SaintKey{Month: 12, Day: 25, Name: "Navidad"})
	assert.Equal(t, 100, got.Priority)
	assert.Equal(t, "major-feast", got.Tags)
	assert.Equal(t, "Nacimiento", got.Description)
}

func TestSaintsPersistenceErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "not a directory")

	s := NewSaintsStore(filepath.Join(blocker, "santos.csv"), Options{}, nil)
	_, err := s.MergeAndPersist([]domain.CalendarEntry{{Month: 1, Day: 1, Name: "Santa María"}})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestSaintsEntriesForDayAndDays(t *testing.T) {
	s, _ := newTestSaints(t)
	_, err := s.MergeAndPersist([]domain.CalendarEntry{
		{Month: 10, Day: 4, Name: "San Francisco de Asís"},
		{Month: 1, Day: 2, Name: "San Basilio Magno"},
		{Month: 10, Day: 4, Name: "San Petronio de Bolonia"},
	})
	require.NoError(t, err)

	day := s.EntriesForDay(10, 4)
	require.Len(t, day, 2)
	assert.Equal(t, "San Francisco de Asís", day[0].Name)
	assert.Equal(t, []domain.CalendarDay{{Month: 1, Day: 2}, {Month: 10, Day: 4}}, s.SortedDays())
}
