package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/constants"
	"github.com/kapu/santoral-go/internal/util"
	"github.com/kapu/santoral-go/pkg/errors"
)

// Resolution is the enrichment found for a name.
type Resolution struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	CanonicalURL string `json:"canonical_url"`
	ImageURL     string `json:"image_url"`
}

func (r Resolution) Found() bool {
	return r.Title != ""
}

// Cache stores resolutions between runs. cache.CacheService satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type ClientConfig struct {
	APIURL    string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// Client looks names up in the encyclopedia's search and extract API.
type Client struct {
	http     *resty.Client
	apiURL   string
	wikiBase string
	cache    Cache
	cacheTTL time.Duration
	breaker  *util.CircuitBreaker
	logger   *zap.Logger
}

// NewClient builds a resolver. cache may be nil.
func NewClient(cfg ClientConfig, cache Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.HTTPConfig.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.HTTPConfig.UserAgent
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = constants.ResolverConfig.CacheTTL
	}

	client := resty.New()
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept-Language", constants.HTTPConfig.AcceptLanguage)
	client.SetTimeout(cfg.Timeout)

	return &Client{
		http:     client,
		apiURL:   cfg.APIURL,
		wikiBase: wikiBaseFor(cfg.APIURL),
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		breaker: util.NewCircuitBreaker(
			"encyclopedia",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		logger: logger,
	}
}

// wikiBaseFor derives https://host/wiki/ from https://host/w/api.php.
func wikiBaseFor(apiURL string) string {
	parsed, err := url.Parse(apiURL)
	if err != nil || parsed.Host == "" {
		return "https://es.wikipedia.org/wiki/"
	}
	return parsed.Scheme + "://" + parsed.Host + "/wiki/"
}

// QueryVariants lists the search strings tried for name, most literal first.
// The role hint matching the name's own honorific goes first.
func QueryVariants(name string) []string {
	name = util.CollapseSpaces(name)
	stripped := util.StripHonorific(name)

	hints := []string{"santo", "beato"}
	folded := util.FoldForCompare(name)
	for _, prefix := range []string{"beato", "beata", "bienaventurad", "venerable", "blessed"} {
		if strings.HasPrefix(folded, prefix) {
			hints = []string{"beato", "santo"}
			break
		}
	}

	variants := make([]string, 0, 3)
	seen := make(map[string]bool)
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToLower(v)] {
			return
		}
		seen[strings.ToLower(v)] = true
		variants = append(variants, v)
	}

	add(name)
	if stripped != "" {
		for _, hint := range hints {
			add(stripped + " " + hint)
		}
	}
	return variants
}

// Resolve finds the best article for name. Network and parse failures only
// move on to the next candidate or variant; false means nothing passed the filters.
func (c *Client) Resolve(ctx context.Context, name string) (Resolution, bool) {
	key := constants.ResolverConfig.CachePrefix + util.NormalizeForLookup(name)
	if cached, ok := c.cached(ctx, key); ok {
		return cached, cached.Found()
	}

	tokens := util.SignificantTokens(util.NormalizeForLookup(name), 2)
	if len(tokens) == 0 {
		c.logger.Debug("Name too short to look up", zap.String("name", name))
		return Resolution{}, false
	}

	var result Resolution
	incomplete := false
	for _, variant := range QueryVariants(name) {
		titles, err := c.search(ctx, variant)
		if err != nil {
			c.logger.Warn("Encyclopedia search failed", zap.String("query", variant), zap.Error(err))
			incomplete = true
			continue
		}
		if res, ok := c.firstAccepted(ctx, titles, tokens); ok {
			result = res
			break
		}
		if ctx.Err() != nil {
			return Resolution{}, false
		}
	}

	// A miss is only remembered when every variant was actually searched.
	if result.Found() || !incomplete {
		c.store(ctx, key, result)
	}
	if !result.Found() {
		c.logger.Debug("No encyclopedia match", zap.String("name", name))
	}
	return result, result.Found()
}

func (c *Client) firstAccepted(ctx context.Context, titles []string, tokens []string) (Resolution, bool) {
	for _, title := range titles {
		if isDisambiguation(title, "") || IsNoiseTitle(title) || !TitleMatchesName(title, tokens) {
			continue
		}

		page, err := c.page(ctx, title)
		if err != nil {
			c.logger.Warn("Encyclopedia extract failed", zap.String("title", title), zap.Error(err))
			continue
		}
		if page.Missing || isDisambiguation(page.Title, page.Extract) || !HasSanctityVocabulary(page.Extract) {
			continue
		}

		res := Resolution{
			Title:        page.Title,
			Description:  util.TruncateRunes(util.CollapseSpaces(page.Extract), constants.FieldLimits.DescriptionRunes),
			CanonicalURL: page.FullURL,
		}
		if res.CanonicalURL == "" {
			res.CanonicalURL = c.ArticleURL(page.Title)
		}
		if page.Thumbnail != nil && !IsPlaceholderImage(page.Thumbnail.Source) {
			res.ImageURL = page.Thumbnail.Source
		}
		return res, true
	}
	return Resolution{}, false
}

// ArticleURL builds the canonical link of an article title.
func (c *Client) ArticleURL(title string) string {
	return c.wikiBase + url.PathEscape(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type pageResponse struct {
	Query struct {
		Pages []pageInfo `json:"pages"`
	} `json:"query"`
}

type pageInfo struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	FullURL   string `json:"fullurl"`
	Missing   bool   `json:"missing"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

func (c *Client) search(ctx context.Context, query string) ([]string, error) {
	var resp searchResponse
	err := c.getJSON(ctx, map[string]string{
		"action":   "query",
		"list":     "search",
		"srsearch": query,
		"srlimit":  strconv.Itoa(constants.ResolverConfig.SearchLimit),
	}, &resp)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		if hit.Title != "" {
			titles = append(titles, hit.Title)
		}
	}
	return titles, nil
}

func (c *Client) page(ctx context.Context, title string) (pageInfo, error) {
	var resp pageResponse
	err := c.getJSON(ctx, map[string]string{
		"action":      "query",
		"prop":        "extracts|pageimages|info",
		"exintro":     "1",
		"explaintext": "1",
		"inprop":      "url",
		"redirects":   "1",
		"pithumbsize": strconv.Itoa(constants.ResolverConfig.ThumbnailSize),
		"titles":      title,
	}, &resp)
	if err != nil {
		return pageInfo{}, err
	}
	if len(resp.Query.Pages) == 0 {
		return pageInfo{Missing: true}, nil
	}
	return resp.Query.Pages[0], nil
}

// getJSON runs one API call guarded by the circuit breaker.
func (c *Client) getJSON(ctx context.Context, params map[string]string, dest any) error {
	if !c.breaker.CanExecute() {
		return errors.NewFetchError("circuit open for encyclopedia", c.apiURL, 0, nil)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("format", "json").
		SetQueryParam("formatversion", "2").
		Get(c.apiURL)
	if err != nil {
		c.breaker.RecordFailure()
		return errors.NewFetchError("encyclopedia request failed", c.apiURL, 0, err)
	}
	if res.IsError() {
		if res.StatusCode() >= 500 || res.StatusCode() == 429 {
			c.breaker.RecordFailure()
		}
		return errors.NewFetchError(fmt.Sprintf("unexpected status code: %d", res.StatusCode()), c.apiURL, res.StatusCode(), nil)
	}
	c.breaker.RecordSuccess()

	if err := json.Unmarshal(res.Body(), dest); err != nil {
		return errors.NewFetchError("malformed encyclopedia response", c.apiURL, res.StatusCode(), err)
	}
	return nil
}

func (c *Client) cached(ctx context.Context, key string) (Resolution, bool) {
	if c.cache == nil {
		return Resolution{}, false
	}
	var res Resolution
	found, err := c.cache.Get(ctx, key, &res)
	if err != nil {
		c.logger.Debug("Resolver cache read skipped", zap.String("key", key), zap.Error(err))
		return Resolution{}, false
	}
	return res, found
}

func (c *Client) store(ctx context.Context, key string, res Resolution) {
	if c.cache == nil || ctx.Err() != nil {
		return
	}
	if err := c.cache.Set(ctx, key, res, c.cacheTTL); err != nil {
		c.logger.Debug("Resolver cache write skipped", zap.String("key", key), zap.Error(err))
	}
}
