package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/config"
	"github.com/kapu/santoral-go/internal/service/extractor"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Storage: config.StorageConfig{
			DataDir:      t.TempDir(),
			SaintsFile:   "santos.csv",
			ReadingsFile: "evangelios.csv",
			FailuresFile: "wikiproblematica.csv",
			ImagesDir:    "images",
			BackupDir:    "backups",
		},
		Sources: config.SourcesConfig{
			Saints:          config.SourceWikipedia,
			SaintsBaseURL:   "https://es.wikipedia.org/wiki",
			CalendarBaseURL: "https://calendariodesantos.com/santoral",
			EncyclopediaAPI: "https://es.wikipedia.org/w/api.php",
			ReadingsRSS:     "https://example.org/feed.rss",
			ReadingsDaily:   "https://example.org/hoy.html",
			ReadingsBaseURL: "https://example.org/lecturas",
		},
		HTTP: config.HTTPConfig{Pacing: 500 * time.Millisecond, Timeout: time.Second},
	}
}

func TestBuildWithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	c, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.Nil(t, c.Cache)
	assert.Equal(t, filepath.Join(cfg.Storage.DataDir, "santos.csv"), c.Saints.Path())
	assert.Equal(t, filepath.Join(cfg.Storage.DataDir, "evangelios.csv"), c.Readings.Path())

	_, err = c.ClearCache(context.Background())
	assert.Error(t, err)
}

func TestBuildRejectsMissingInputs(t *testing.T) {
	_, err := Build(context.Background(), nil, zap.NewNop())
	assert.Error(t, err)
	_, err = Build(context.Background(), testConfig(t), nil)
	assert.Error(t, err)
}

func TestBuildFailsOnBadClassifierTables(t *testing.T) {
	cfg := testConfig(t)
	cfg.Classifier.TablesFile = filepath.Join(cfg.Storage.DataDir, "missing.yaml")
	_, err := Build(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestSourcesByName(t *testing.T) {
	c, err := Build(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)

	saints, err := c.SaintsSource("")
	require.NoError(t, err)
	assert.IsType(t, &extractor.WikipediaDaySource{}, saints)

	saints, err = c.SaintsSource("Calendar")
	require.NoError(t, err)
	assert.IsType(t, &extractor.CalendarSource{}, saints)

	_, err = c.SaintsSource("almanac")
	assert.Error(t, err)

	for _, name := range ReadingsSources {
		src, err := c.ReadingsSource(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, src.Name())
	}
	_, err = c.ReadingsSource("feedburner")
	assert.Error(t, err)

	runner, err := c.NewSaintsRunner(config.SourceCalendar, false)
	require.NoError(t, err)
	assert.NotNil(t, runner)

	readings, err := c.NewReadingsRunner(ReadingsRSS)
	require.NoError(t, err)
	assert.NotNil(t, readings)
}
