package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"listing-harvester/metrics"
	"listing-harvester/utils"
)

// DefaultMaxAttempts is the per-URL attempt budget for transport failures.
const DefaultMaxAttempts = 3

// Result is the per-URL outcome of FetchMany. Exactly one of Response and
// Err is set.
type Result struct {
	URL      string
	Response *Response
	Err      error
}

// OK reports whether the fetch produced a 200 response.
func (r Result) OK() bool {
	return r.Err == nil && r.Response != nil && r.Response.Status == 200
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// RetryStatuses lists response statuses that are retried like transport
	// failures. After the budget is spent the last response is returned as data.
	RetryStatuses []int
	// RateLimit is the minimum interval between request starts in FetchMany.
	RateLimit time.Duration
}

// Fetcher issues retried requests through an explicitly owned Transport.
type Fetcher struct {
	transport     Transport
	logger        *utils.Logger
	metrics       *metrics.Metrics
	retry         *utils.RetryConfig
	retryStatuses map[int]struct{}
	rateLimit     time.Duration
}

// NewFetcher creates a Fetcher. m may be nil.
func NewFetcher(transport Transport, cfg FetcherConfig, logger *utils.Logger, m *metrics.Metrics) *Fetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	statuses := make(map[int]struct{}, len(cfg.RetryStatuses))
	for _, s := range cfg.RetryStatuses {
		statuses[s] = struct{}{}
	}
	return &Fetcher{
		transport: transport,
		logger:    logger,
		metrics:   m,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			Logger:      logger,
			IsRetryable: func(err error) bool {
				var rs *retryableStatus
				return errors.As(err, &rs) || IsTransportError(err)
			},
		},
		retryStatuses: statuses,
		rateLimit:     cfg.RateLimit,
	}
}

// retryableStatus carries a response whose status was opted into retry.
type retryableStatus struct {
	resp *Response
}

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("retryable status %d", e.resp.Status)
}

// Fetch requests url, retrying transport failures. Non-2xx statuses are
// returned as data. The returned error wraps a *TransportError once the
// attempt budget is spent, or is the context error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	var resp *Response
	start := time.Now()

	err := f.retry.Do(ctx, "fetch "+url, func(attempt int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.logger.Info("requesting url", zap.String("url", url), zap.Int("attempt", attempt))

		r, err := f.transport.Fetch(ctx, url)
		if errors.Is(err, ErrBodyTooLarge) {
			return err
		}
		if err != nil {
			return &TransportError{URL: url, Err: err}
		}
		resp = r
		if _, retry := f.retryStatuses[r.Status]; retry {
			return &retryableStatus{resp: r}
		}
		return nil
	})

	var exhausted *retryableStatus
	if errors.As(err, &exhausted) {
		err = nil
	}

	if err != nil {
		f.logger.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		f.metrics.ObserveFetch("error", time.Since(start))
		return nil, err
	}

	f.logger.Debug("fetched url",
		zap.String("url", url),
		zap.Int("status", resp.Status),
		zap.Int("bytes", len(resp.Body)))
	f.metrics.ObserveFetch(statusClass(resp.Status), time.Since(start))
	return resp, nil
}

// FetchMany fetches every url with at most concurrency requests in flight.
// Results are in input order; a failed URL never aborts its siblings.
func (f *Fetcher) FetchMany(ctx context.Context, urls []string, concurrency int) []Result {
	results := make([]Result, len(urls))
	pool := utils.NewWorkerPool(concurrency, f.rateLimit)

	for i, u := range urls {
		pool.Submit(ctx, func() {
			resp, err := f.Fetch(ctx, u)
			results[i] = Result{URL: u, Response: resp, Err: err}
		})
	}
	pool.Wait()

	return results
}

func statusClass(status int) string {
	switch {
	case status == 200:
		return "ok"
	case status >= 300 && status < 400:
		return "redirect"
	default:
		return fmt.Sprintf("status_%dxx", status/100)
	}
}
