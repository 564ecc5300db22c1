package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePage struct {
	Extract   string
	Thumbnail string
	Missing   bool
}

// encyclopedia serves the search and extract API from fixed tables.
type encyclopedia struct {
	search   map[string][]string
	pages    map[string]fakePage
	wikitext map[string]string

	mu       sync.Mutex
	searches []string
}

func (e *encyclopedia) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case q.Get("action") == "parse":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"parse": map[string]any{"wikitext": e.wikitext[q.Get("page")]},
		})
	case q.Get("list") == "search":
		e.mu.Lock()
		e.searches = append(e.searches, q.Get("srsearch"))
		e.mu.Unlock()
		hits := make([]map[string]string, 0)
		for _, title := range e.search[q.Get("srsearch")] {
			hits = append(hits, map[string]string{"title": title})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"search": hits}})
	default:
		title := q.Get("titles")
		page, ok := e.pages[title]
		entry := map[string]any{"title": title, "missing": !ok || page.Missing}
		if ok {
			entry["extract"] = page.Extract
			if page.Thumbnail != "" {
				entry["thumbnail"] = map[string]string{"source": page.Thumbnail}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"pages": []any{entry}}})
	}
}

func newTestClient(t *testing.T, e *encyclopedia, cache Cache) *Client {
	t.Helper()
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{APIURL: server.URL + "/w/api.php"}, cache, zap.NewNop())
}

func TestQueryVariants(t *testing.T) {
	assert.Equal(t, []string{"San Francisco de Asís", "Francisco de Asís santo", "Francisco de Asís beato"}, QueryVariants("San Francisco de Asís"))
	assert.Equal(t, []string{"Beata Mama Antula", "Mama Antula beato", "Mama Antula santo"}, QueryVariants("Beata Mama Antula"))
	assert.Equal(t, []string{"Marco el Pescador", "Marco el Pescador santo", "Marco el Pescador beato"}, QueryVariants("Marco el Pescador"))
}

func TestResolveAppliesFiltersInOrder(t *testing.T) {
	e := &encyclopedia{
		search: map[string][]string{
			"San Francisco de Asís": {
				"Francisco de Asís (desambiguación)",
				"Iglesia de San Francisco de Asís",
				"Clara de Montefalco",
				"Francisco de Asís (película)",
				"Francisco de Asís (futbolista)",
				"Francisco de Asís",
			},
		},
		pages: map[string]fakePage{
			"Francisco de Asís (futbolista)": {Extract: "Francisco de Asís es un futbolista español que juega como delantero."},
			"Francisco de Asís": {
				Extract:   "Francisco de Asís fue un religioso y santo italiano, diácono y fundador de la Orden Franciscana.",
				Thumbnail: "https://upload.example.org/Francisco.jpg",
			},
		},
	}
	client := newTestClient(t, e, nil)

	res, ok := client.Resolve(context.Background(), "San Francisco de Asís")

	require.True(t, ok)
	assert.Equal(t, "Francisco de Asís", res.Title)
	assert.Contains(t, res.Description, "Orden Franciscana")
	assert.Equal(t, "https://upload.example.org/Francisco.jpg", res.ImageURL)
	assert.Contains(t, res.CanonicalURL, "/wiki/Francisco_de_As%C3%ADs")
}

func TestResolveTriesNextVariant(t *testing.T) {
	e := &encyclopedia{
		search: map[string][]string{
			"Cayetano santo": {"Cayetano de Thiene"},
		},
		pages: map[string]fakePage{
			"Cayetano de Thiene": {
				Extract:   "Cayetano de Thiene fue un sacerdote italiano, canonizado en 1671.",
				Thumbnail: "https://upload.example.org/Commons/No_image_available.svg",
			},
		},
	}
	client := newTestClient(t, e, nil)

	res, ok := client.Resolve(context.Background(), "San Cayetano")

	require.True(t, ok)
	assert.Equal(t, "Cayetano de Thiene", res.Title)
	assert.Empty(t, res.ImageURL, "placeholder icons are never stored as portraits")
	assert.Equal(t, []string{"San Cayetano", "Cayetano santo"}, e.searches)
}

func TestResolveNotFound(t *testing.T) {
	client := newTestClient(t, &encyclopedia{}, nil)

	res, ok := client.Resolve(context.Background(), "Marco el Pescador")

	assert.False(t, ok)
	assert.False(t, res.Found())
}

func TestResolveRejectsNamesWithoutSignificantTokens(t *testing.T) {
	e := &encyclopedia{
		search: map[string][]string{"Santa Ia": {"Ia de Cornualles"}},
		pages: map[string]fakePage{
			"Ia de Cornualles": {Extract: "Ia de Cornualles fue una virgen y mártir del siglo V."},
		},
	}
	client := newTestClient(t, e, nil)

	_, ok := client.Resolve(context.Background(), "Santa Ia")

	assert.False(t, ok)
	assert.Empty(t, e.searches)
}

func TestResolveSurvivesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIURL: server.URL}, nil, zap.NewNop())
	_, ok := client.Resolve(context.Background(), "San Jorge")
	assert.False(t, ok)
}

type memoryCache struct {
	data map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func TestResolveUsesCache(t *testing.T) {
	e := &encyclopedia{
		search: map[string][]string{"San Jorge": {"Jorge de Capadocia"}},
		pages: map[string]fakePage{
			"Jorge de Capadocia": {Extract: "Jorge de Capadocia fue un soldado romano y mártir cristiano."},
		},
	}
	cache := &memoryCache{data: map[string][]byte{}}
	client := newTestClient(t, e, cache)

	first, ok := client.Resolve(context.Background(), "San Jorge")
	require.True(t, ok)
	second, ok := client.Resolve(context.Background(), "san jorge")
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Len(t, e.searches, 1)
	assert.Contains(t, cache.data, "santoral:resolve:jorge")
}

func TestPrayerFromWikitext(t *testing.T) {
	wikitext := "Intro.\n== Vida ==\nTexto.\n== Oración ==\n'''Oh [[Dios]]''', que hiciste a [[Francisco de Asís|san Francisco]] semejante a Cristo{{cita}}.\n== Referencias ==\n"

	got := PrayerFromWikitext(wikitext)

	assert.Equal(t, "Oh Dios, que hiciste a san Francisco semejante a Cristo.", got)
	assert.Empty(t, PrayerFromWikitext("== Oración ==\nBreve.\n"))
}

func TestPrayer(t *testing.T) {
	e := &encyclopedia{wikitext: map[string]string{
		"Jorge de Capadocia": "== Plegaria ==\nGlorioso San Jorge, protege a quienes te invocan con fe.",
	}}
	client := newTestClient(t, e, nil)

	got, err := client.Prayer(context.Background(), "Jorge de Capadocia")
	require.NoError(t, err)
	assert.Equal(t, "Glorioso San Jorge, protege a quienes te invocan con fe.", got)
}

func TestParsePageDetails(t *testing.T) {
	page := `<html><body><div class="mw-parser-output">
<table class="infobox"><tr><td><img src="//upload.wikimedia.org/Ambox_important.svg"></td></tr></table>
<p>Corto.</p>
<p>https://creativecommons.org/licenses/by-sa/4.0/ texto de licencia muy largo para superar el mínimo</p>
<p>Teresa de Jesús fue una religiosa, doctora de la Iglesia y fundadora de las carmelitas descalzas.<sup class="reference">[1]</sup></p>
</div></body></html>`

	details, err := ParsePageDetails([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Teresa de Jesús fue una religiosa, doctora de la Iglesia y fundadora de las carmelitas descalzas.", details.Description)
	assert.Empty(t, details.ImageURL)
}

func TestPageDetailsInfoboxImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><table class="infobox"><tr><td><img src="//upload.wikimedia.org/Teresa.jpg"></td></tr></table></body></html>`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIURL: server.URL + "/w/api.php"}, nil, zap.NewNop())
	details, err := client.PageDetails(context.Background(), server.URL+"/wiki/Teresa")

	require.NoError(t, err)
	assert.Equal(t, "https://upload.wikimedia.org/Teresa.jpg", details.ImageURL)
}

func TestFilters(t *testing.T) {
	assert.True(t, IsNoiseTitle("Catedral de San Jorge"))
	assert.False(t, IsNoiseTitle("Jorge de Capadocia"))
	assert.True(t, TitleMatchesName("Jorge de Capadocia", []string{"jorge"}))
	assert.False(t, TitleMatchesName("Clara de Asís", []string{"jorge"}))
	assert.False(t, TitleMatchesName("Ia de Cornualles", nil))
	assert.True(t, HasSanctityVocabulary("Fue MÁRTIR en Lida"))
	assert.False(t, HasSanctityVocabulary("Es un delantero"))
	assert.True(t, IsPlaceholderImage("https://x/Sin_foto.svg.png"))
}
