package chart

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryBase is the first backoff delay after a failed request.
	DefaultRetryBase = 500 * time.Millisecond

	// maxRetryDelay caps the doubling backoff.
	maxRetryDelay = 10 * time.Second
)

// Fetcher loads chart payloads from a file, stdin or an HTTP endpoint.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	retries   int
	retryBase time.Duration
	userAgent string
	stdin     io.Reader
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithRetry sets how many times a failed HTTP load is retried and the
// initial backoff delay, which doubles after each attempt.
func WithRetry(n int, base time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if n < 0 {
			n = 0
		}
		f.retries = n
		if base > 0 {
			f.retryBase = base
		}
	}
}

// WithUserAgent sets the User-Agent header on HTTP requests.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithStdin sets the reader used for the "-" source.
func WithStdin(r io.Reader) FetcherOption {
	return func(f *Fetcher) {
		f.stdin = r
	}
}

// NewFetcher creates a new chart loader.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultTimeout,
		retryBase: DefaultRetryBase,
		userAgent: "ls-natal/1.0 (Chart Wheel Viewer)",
		stdin:     os.Stdin,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}

	return f
}

// LoadResult contains the result of a load operation.
type LoadResult struct {
	Source   string
	Chart    *Chart
	Raw      []byte
	LoadedAt time.Time
	Duration time.Duration
	Attempts int
	Error    error
}

// Load reads and decodes the chart at source.
func (f *Fetcher) Load(ctx context.Context, source string) LoadResult {
	start := time.Now()

	raw, attempts, err := f.loadRaw(ctx, source)
	if err != nil {
		return LoadResult{
			Source:   source,
			LoadedAt: start,
			Duration: time.Since(start),
			Attempts: attempts,
			Error:    err,
		}
	}

	result := LoadBytes(source, raw)
	result.LoadedAt = start
	result.Duration = time.Since(start)
	result.Attempts = attempts
	return result
}

// LoadBytes decodes a payload that was read elsewhere, such as a copy
// kept in the chart library.
func LoadBytes(source string, raw []byte) LoadResult {
	start := time.Now()
	result := LoadResult{
		Source:   source,
		Raw:      raw,
		LoadedAt: start,
		Attempts: 1,
	}

	c, err := DecodeBytes(raw)
	if err != nil {
		result.Error = fmt.Errorf("parse chart %s: %w", source, err)
		result.Duration = time.Since(start)
		return result
	}
	if c.Name == "" {
		c.Name = sourceName(source)
	}
	result.Chart = c
	result.Duration = time.Since(start)

	return result
}

// IsRemote reports whether source is an HTTP(S) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (f *Fetcher) loadRaw(ctx context.Context, source string) ([]byte, int, error) {
	switch {
	case source == "":
		return nil, 0, fmt.Errorf("no chart source given")
	case source == "-":
		data, err := io.ReadAll(f.stdin)
		if err != nil {
			return nil, 1, fmt.Errorf("read stdin: %w", err)
		}
		return data, 1, nil
	case IsRemote(source):
		return f.fetchWithRetry(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, 1, fmt.Errorf("read chart file: %w", err)
		}
		return data, 1, nil
	}
}

// fetchWithRetry retries failed requests with a doubling delay. The wait is
// abandoned as soon as ctx is cancelled.
func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) ([]byte, int, error) {
	delay := f.retryBase
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, attempt, fmt.Errorf("fetch chart: %w", ctx.Err())
			case <-timer.C:
			}
			delay *= 2
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}

		data, err := f.fetchRaw(ctx, url)
		if err == nil {
			return data, attempt + 1, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, attempt + 1, lastErr
		}
	}

	return nil, f.retries + 1, lastErr
}

func (f *Fetcher) fetchRaw(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// sourceName derives a display name from a path or URL.
func sourceName(source string) string {
	if source == "-" {
		return "stdin"
	}
	s := strings.TrimRight(source, "/")
	if i := strings.LastIndexAny(s, "/\\"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".json")
	if s == "" {
		return source
	}
	return s
}
