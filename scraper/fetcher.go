package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/use-agent/oppscout/models"
)

// browserUA identifies the crawler the way a desktop browser does. It is a
// disclosed crawling posture: requests are still paced by the RequestLimiter.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 10 << 20 // 10 MB

// FetcherConfig controls the shared connection pool.
type FetcherConfig struct {
	// Timeout is the deadline for one request including the body read.
	Timeout time.Duration // default: 15s

	// MaxConns caps in-flight requests across all hosts.
	MaxConns int // default: 10

	// MaxConnsPerHost caps connections to a single host.
	MaxConnsPerHost int // default: 2

	// UserAgent overrides the browser-like default.
	UserAgent string
}

// Page is a successfully fetched response.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        string
}

// Fetcher issues bounded, timeout-protected GET requests. It is safe for
// concurrent use and is shared by all source goroutines.
type Fetcher struct {
	client    *http.Client
	slots     *semaphore.Weighted
	timeout   time.Duration
	userAgent string
}

// NewFetcher creates a Fetcher with its own pooled transport.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 10
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = 2
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = browserUA
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		slots:     semaphore.NewWeighted(int64(cfg.MaxConns)),
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves target. Failures are returned as *models.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.slots.Acquire(ctx, 1); err != nil {
		return nil, classify(target, err)
	}
	defer f.slots.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &models.FetchError{Kind: models.FetchConnection, URL: target, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/rss+xml;q=0.8,*/*;q=0.7")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, &models.FetchError{Kind: models.FetchStatus, URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, &models.FetchError{Kind: models.FetchTimeout, URL: target, Err: err}
		}
		return nil, &models.FetchError{Kind: models.FetchBody, URL: target, Err: err}
	}

	return &Page{
		URL:         target,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}

// Close releases idle pooled connections.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

func classify(target string, err error) *models.FetchError {
	if isTimeout(err) {
		return &models.FetchError{Kind: models.FetchTimeout, URL: target, Err: err}
	}
	return &models.FetchError{Kind: models.FetchConnection, URL: target, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
