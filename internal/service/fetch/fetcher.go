package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/constants"
	"github.com/kapu/santoral-go/internal/util"
	"github.com/kapu/santoral-go/pkg/errors"
)

// Fetcher performs the GET requests of a run: one User-Agent, a bounded body
// and a circuit breaker per host. Every failure comes back as a FetchError.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	logger    *zap.Logger

	mu       sync.Mutex
	breakers map[string]*util.CircuitBreaker
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
}

func NewFetcher(opts Options, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.HTTPConfig.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constants.HTTPConfig.UserAgent
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Fetcher{
		client:    client,
		userAgent: opts.UserAgent,
		maxBody:   constants.HTTPConfig.MaxBodyBytes,
		logger:    logger,
		breakers:  make(map[string]*util.CircuitBreaker),
	}
}

// Get fetches rawURL and returns its body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.do(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		f.breakerFor(rawURL).RecordFailure()
		return nil, errors.NewFetchError("failed to read body", rawURL, resp.StatusCode, err)
	}
	return body, nil
}

// do runs the request and checks the status. The caller closes the body.
func (f *Fetcher) do(ctx context.Context, rawURL string) (*http.Response, error) {
	breaker := f.breakerFor(rawURL)
	if !breaker.CanExecute() {
		return nil, errors.NewFetchError("circuit open for host", rawURL, 0, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewFetchError("invalid request", rawURL, 0, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", constants.HTTPConfig.AcceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		breaker.RecordFailure()
		return nil, errors.NewFetchError("request failed", rawURL, 0, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		// 404 is a page that does not exist, not a struggling host.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			breaker.RecordFailure()
		}
		return nil, errors.NewFetchError(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), rawURL, resp.StatusCode, nil)
	}

	breaker.RecordSuccess()
	f.logger.Debug("Fetched", zap.String("url", rawURL))
	return resp, nil
}

func (f *Fetcher) breakerFor(rawURL string) *util.CircuitBreaker {
	host := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	breaker, ok := f.breakers[host]
	if !ok {
		breaker = util.NewCircuitBreaker(
			host,
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			f.logger,
		)
		f.breakers[host] = breaker
	}
	return breaker
}
