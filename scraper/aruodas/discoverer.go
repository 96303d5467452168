package aruodas

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"listing-harvester/metrics"
	"listing-harvester/models"
	"listing-harvester/scraper"
	"listing-harvester/utils"
)

// StopReason records why discovery of a category ended.
type StopReason string

const (
	StopRedirect  StopReason = "redirect"
	StopStatus    StopReason = "status"
	StopError     StopReason = "error"
	StopPageLimit StopReason = "page_limit"
)

// Discovery is the result of walking one category's index pages.
type Discovery struct {
	URLs []string
	// Pages is the number of index pages that were read successfully.
	Pages  int
	Reason StopReason
	// Err is set when discovery ended on a failed fetch. It is informational:
	// a short discovery is not a run failure.
	Err error
}

// PageFetcher is the subset of scraper.Fetcher discovery needs.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Response, error)
}

// DiscovererConfig configures a Discoverer.
type DiscovererConfig struct {
	BaseURL  string
	MaxPages int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Discoverer collects unique detail-page URLs from paginated index pages.
type Discoverer struct {
	fetcher  PageFetcher
	cfg      DiscovererConfig
	logger   *utils.Logger
	metrics  *metrics.Metrics
	sleep    func(context.Context, time.Duration) error
	jitterFn func() float64
}

// NewDiscoverer creates a Discoverer. m may be nil.
func NewDiscoverer(fetcher PageFetcher, cfg DiscovererConfig, logger *utils.Logger, m *metrics.Metrics) *Discoverer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Discoverer{
		fetcher:  fetcher,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		sleep:    utils.Sleep,
		jitterFn: rand.Float64,
	}
}

// Discover walks page 1, 2, ... of cat until the site redirects, a page
// cannot be fetched, or MaxPages (when positive) is reached. Between pages
// it waits a random delay in [MinDelay, MaxDelay].
func (d *Discoverer) Discover(ctx context.Context, cat models.Category) *Discovery {
	seen := utils.NewURLSet()
	out := &Discovery{}
	log := d.logger.With(zap.String("category", cat.Name))

	for page := 1; ; page++ {
		if d.cfg.MaxPages > 0 && page > d.cfg.MaxPages {
			log.Warn("page limit reached, stopping discovery", zap.Int("max_pages", d.cfg.MaxPages))
			out.Reason = StopPageLimit
			break
		}

		pageURL := IndexPageURL(d.cfg.BaseURL, cat, page)
		resp, err := d.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			log.Info("index page failed, ending discovery", zap.Int("page", page), zap.Error(err))
			out.Reason, out.Err = StopError, err
			break
		}
		if resp.IsRedirect() {
			log.Info("redirected past the last page", zap.Int("page", page), zap.Int("status", resp.Status))
			out.Reason = StopRedirect
			break
		}
		if resp.Status >= 400 {
			log.Info("index page returned error status, ending discovery",
				zap.Int("page", page), zap.Int("status", resp.Status))
			out.Reason = StopStatus
			out.Err = &scraper.RemoteStatusError{URL: pageURL, Status: resp.Status}
			break
		}

		links, err := ExtractLinks(resp.Body, d.cfg.BaseURL)
		if err != nil {
			log.Info("index page unparsable, ending discovery", zap.Int("page", page), zap.Error(err))
			out.Reason, out.Err = StopError, err
			break
		}
		added := 0
		for _, l := range links {
			if seen.Add(l) {
				out.URLs = append(out.URLs, l)
				added++
			}
		}
		out.Pages = page
		log.Debug("index page read", zap.Int("page", page), zap.Int("links", len(links)), zap.Int("new", added))

		if err := d.sleep(ctx, d.delay()); err != nil {
			out.Reason, out.Err = StopError, err
			break
		}
	}

	d.metrics.AddPages(cat.Name, out.Pages)
	log.Info("discovery finished",
		zap.Int("pages", out.Pages),
		zap.Int("urls", len(out.URLs)),
		zap.String("reason", string(out.Reason)))
	return out
}

func (d *Discoverer) delay() time.Duration {
	span := d.cfg.MaxDelay - d.cfg.MinDelay
	return d.cfg.MinDelay + time.Duration(d.jitterFn()*float64(span))
}

// ExtractLinks returns the listing-thumbnail links of an index page as
// absolute URLs with query and fragment removed, deduplicated by path in
// page order.
func ExtractLinks(body, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	var links []string
	seen := make(map[string]struct{})
	doc.Find(thumbnailSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.RawQuery = ""
		abs.Fragment = ""
		if _, dup := seen[abs.Path]; dup {
			return
		}
		seen[abs.Path] = struct{}{}
		links = append(links, abs.String())
	})
	return links, nil
}
