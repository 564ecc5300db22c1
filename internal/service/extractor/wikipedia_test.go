package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/service/fetch"
	"github.com/kapu/santoral-go/pkg/errors"
)

func TestParseWikipediaDay(t *testing.T) {
	body, err := os.ReadFile("testdata/4_de_octubre.html")
	require.NoError(t, err)

	got, err := ParseWikipediaDay(body, "https://es.wikipedia.org/wiki/4_de_octubre", 10, 4)
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
		assert.Equal(t, 10, c.Month)
		assert.Equal(t, 4, c.Day)
	}
	assert.Equal(t, []string{
		"San Francisco de Asís",
		"Áurea de París",
		"San Petronio de Bolonia",
		"Beato Francisco Javier Seelos",
	}, names)
	assert.Equal(t, "https://es.wikipedia.org/wiki/Francisco_de_As%C3%ADs", got[0].ReferenceURL)
	assert.Empty(t, got[2].ReferenceURL)
}

func TestParseWikipediaDayWithoutSaintsHeading(t *testing.T) {
	page := `<html><body><h2>Acontecimientos</h2><ul><li>Algo</li></ul></body></html>`

	_, err := ParseWikipediaDay([]byte(page), "https://x/wiki/1_de_enero", 1, 1)

	miss, ok := errors.IsExtractionMiss(err)
	require.True(t, ok)
	assert.Equal(t, ReasonNoSaintsSection, miss.Reason)
}

func TestParseWikipediaDayEmptySection(t *testing.T) {
	page := `<html><body><h2>Santoral católico</h2><p>Sin datos.</p><h2>Véase también</h2><ul><li><a href="/wiki/X">X</a></li></ul></body></html>`

	_, err := ParseWikipediaDay([]byte(page), "https://x/wiki/1_de_enero", 1, 1)

	miss, ok := errors.IsExtractionMiss(err)
	require.True(t, ok)
	assert.Equal(t, ReasonEmptySection, miss.Reason)
}

func TestParseWikipediaDayNestedLists(t *testing.T) {
	page := `<html><body><h2>Santoral católico</h2>
<div class="columns"><ul><li>San Jorge, mártir</li></ul></div>
<h2>Otros</h2></body></html>`

	got, err := ParseWikipediaDay([]byte(page), "https://x/wiki/23_de_abril", 4, 23)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "San Jorge", got[0].Name)
}

func TestWikipediaDaySourceDayEntries(t *testing.T) {
	fixture, err := os.ReadFile("testdata/4_de_octubre.html")
	require.NoError(t, err)

	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		_, _ = w.Write(fixture)
	}))
	defer server.Close()

	source := NewWikipediaDaySource(fetch.NewFetcher(fetch.Options{}, zap.NewNop()), server.URL+"/wiki", zap.NewNop())
	got, err := source.DayEntries(context.Background(), 10, 4)

	require.NoError(t, err)
	assert.Equal(t, "/wiki/4_de_octubre", requested)
	assert.Equal(t, server.URL+"/wiki/Francisco_de_As%C3%ADs", got[0].ReferenceURL)
}
