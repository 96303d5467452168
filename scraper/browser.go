package scraper

import (
	"context"
	"fmt"
	neturl "net/url"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserTransport fetches pages through a headless Chrome instance. It is
// used for sites that only serve listings to a real browser. One browser is
// allocated lazily and shared; every Fetch opens its own tab.
type BrowserTransport struct {
	chromeBin string
	userAgent string
	timeout   time.Duration
	settle    time.Duration

	once      sync.Once
	browser   context.Context
	cancelAll func()
}

// NewBrowserTransport creates a transport; the browser starts on first use.
func NewBrowserTransport(chromeBin, userAgent string, timeout time.Duration) *BrowserTransport {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrowserTransport{
		chromeBin: chromeBin,
		userAgent: userAgent,
		timeout:   timeout,
		settle:    2 * time.Second,
	}
}

func (b *BrowserTransport) start() {
	bin := b.chromeBin
	if bin == "" {
		bin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if b.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.userAgent))
	}
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	browser, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	b.browser = browser
	b.cancelAll = func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// Fetch navigates a fresh tab to url and returns the rendered document.
func (b *BrowserTransport) Fetch(ctx context.Context, url string) (*Response, error) {
	b.once.Do(b.start)

	tab, cancelTab := chromedp.NewContext(b.browser)
	defer cancelTab()

	tab, cancelTimeout := context.WithTimeout(tab, b.timeout)
	defer cancelTimeout()

	// Propagate caller cancellation into the tab.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html, location string
	resp, err := chromedp.RunResponse(tab, chromedp.Navigate(url))
	if err != nil {
		return nil, fmt.Errorf("chromedp navigate: %w", err)
	}
	if err := chromedp.Run(tab,
		chromedp.Sleep(b.settle),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("chromedp read document: %w", err)
	}

	status := 200
	if resp != nil {
		status = int(resp.Status)
	}
	// The browser follows redirects itself; surface them the way an HTTP
	// client that does not follow redirects would.
	if redirected(url, location) {
		status = 302
	}
	return &Response{URL: url, Status: status, Body: html}, nil
}

// redirected reports whether the browser ended up on a different page than
// requested. Scheme, a leading "www.", host case, query, fragment and a
// trailing slash are ignored.
func redirected(requested, location string) bool {
	if location == "" {
		return false
	}
	a, errA := neturl.Parse(requested)
	b, errB := neturl.Parse(location)
	if errA != nil || errB != nil {
		return strings.TrimRight(location, "/") != strings.TrimRight(requested, "/")
	}
	return pageKey(a) != pageKey(b)
}

func pageKey(u *neturl.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.TrimRight(u.EscapedPath(), "/")
	return host + path
}

// Close shuts the browser down.
func (b *BrowserTransport) Close() {
	if b.cancelAll != nil {
		b.cancelAll()
	}
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
