package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/observability"
)

const maxRetryDelay = 10 * time.Second

// HTTPClient is the subset of *http.Client used by HTTPStore.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPStore reads objects from a public bucket URL. Requests are retried
// with exponential backoff behind a circuit breaker.
type HTTPStore struct {
	baseURL    string
	httpClient HTTPClient
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// HTTPOptions configures an HTTPStore.
type HTTPOptions struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	BreakerTimeout time.Duration
}

// NewHTTPStore creates a store rooted at baseURL.
func NewHTTPStore(baseURL string, opts HTTPOptions, logger *slog.Logger, metrics *observability.Metrics) *HTTPStore {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	return &HTTPStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    newBreaker("object-storage", opts.BreakerTimeout, logger),
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     logger,
		metrics:    metrics,
	}
}

func newBreaker(name string, timeout time.Duration, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		// Missing objects do not count as failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	})
}

// Get fetches the object at path, decompressing it if needed.
func (s *HTTPStore) Get(ctx context.Context, path string) ([]byte, error) {
	u, err := s.objectURL(path)
	if err != nil {
		return nil, err
	}

	body, err := s.breaker.Execute(func() (any, error) {
		return s.getWithRetry(ctx, u)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			s.metrics.StorageRequests.WithLabelValues("not_found").Inc()
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			s.metrics.StorageRequests.WithLabelValues("breaker_open").Inc()
		default:
			s.metrics.StorageRequests.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	s.metrics.StorageRequests.WithLabelValues("success").Inc()

	return decompress(body.([]byte))
}

func (s *HTTPStore) objectURL(path string) (string, error) {
	if s.baseURL == "" {
		return "", errors.New("storage base URL is not configured")
	}
	u, err := url.JoinPath(s.baseURL, path)
	if err != nil {
		return "", fmt.Errorf("build object url: %w", err)
	}
	return u, nil
}

func (s *HTTPStore) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	delay := s.retryDelay
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Debug("retrying object fetch", "url", u, "attempt", attempt, "delay", delay)
			s.metrics.StorageRequests.WithLabelValues("retry").Inc()
			if !retry.SleepWithContext(ctx, delay) {
				return nil, ctx.Err()
			}
			delay = retry.NextBackoff(delay, maxRetryDelay)
		}

		body, retryable, err := s.do(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		s.logger.Warn("object fetch failed", "url", u, "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do performs one request and reports whether a failure is worth retrying.
func (s *HTTPStore) do(ctx context.Context, u string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("request object: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("storage error: status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("storage error: status %d: %s", resp.StatusCode, msg)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read object: %w", err)
	}
	return body, false, nil
}
