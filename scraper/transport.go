package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// Response is the outcome of one request that reached the remote site.
type Response struct {
	URL    string
	Status int
	Body   string
}

// IsRedirect reports whether the site answered with a 3xx status.
func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}

// Transport is the opaque fetch(url) → (body, status) capability.
// Implementations return an error only when no response was obtained.
type Transport interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// HTTPTransport fetches pages with net/http. It never follows redirects so
// that a 3xx reaches the caller as data.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
	sizeCap   int64
}

// HTTPTransportConfig configures an HTTPTransport.
type HTTPTransportConfig struct {
	Timeout   time.Duration
	UserAgent string
	SizeCap   int64
}

// NewHTTPTransport builds a transport with its own client and connection pool.
func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SizeCap <= 0 {
		cfg.SizeCap = 10 * 1024 * 1024
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPTransport{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: cfg.UserAgent,
		sizeCap:   cfg.SizeCap,
	}
}

// Fetch issues a GET and returns the decoded body with its status.
func (h *HTTPTransport) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "lt,en-US;q=0.7,en;q=0.3")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.sizeCap+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > h.sizeCap {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, rawURL, h.sizeCap)
	}

	return &Response{URL: rawURL, Status: resp.StatusCode, Body: decode(data, resp.Header.Get("Content-Type"))}, nil
}

// decode converts data to UTF-8 using the declared or sniffed charset.
func decode(data []byte, contentType string) string {
	if len(data) == 0 {
		return ""
	}
	enc, _, certain := charset.DetermineEncoding(data, contentType)
	if !certain && utf8.Valid(data) {
		return string(data)
	}
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(utf8data)
}
