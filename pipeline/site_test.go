package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"listing-harvester/models"
	"listing-harvester/scraper"
	"listing-harvester/scraper/aruodas"
)

// fakeSite serves category index pages and detail pages. Any other path
// redirects to the root, which ends pagination.
type fakeSite struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newFakeSite(t *testing.T) (*fakeSite, *httptest.Server) {
	t.Helper()
	s := &fakeSite{pages: map[string]string{}, hits: map[string]int{}}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		body, ok := s.pages[r.URL.Path]
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		if !ok {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return s, ts
}

// addCategory publishes n listings spread over index pages of perPage
// links. Listing codes start at firstCode.
func (s *fakeSite) addCategory(baseURL string, cat models.Category, n, perPage, firstCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hrefs []string
	for i := 0; i < n; i++ {
		code := fmt.Sprintf("4-%d", firstCode+i)
		href := "/" + code + "/"
		hrefs = append(hrefs, href)
		s.pages[href] = detailHTML("Vilnius, Antakalnis, Saulėtekio al.", "450 €", code)
	}
	for page := 1; len(hrefs) > 0; page++ {
		take := min(perPage, len(hrefs))
		path := strings.TrimPrefix(aruodas.IndexPageURL(baseURL, cat, page), baseURL)
		s.pages[path] = indexHTML(hrefs[:take])
		hrefs = hrefs[take:]
	}
}

func indexHTML(hrefs []string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<a class="object-image-link-big_thumbs" href="%s?from=list"><img></a>`, h)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func detailHTML(heading, price, code string) string {
	return fmt.Sprintf(`<html><body>
<div class="advert-heading-col title-col"><h1>%s</h1></div>
<span class="main-price">%s</span>
<dl>
<dt>Plotas</dt><dd>52 m²</dd>
<dt>Kambarių sk.</dt><dd>2</dd>
<dt>Nuoroda</dt><dd>www.aruodas.lt/%s</dd>
<dt>Ypatybės</dt><dd><span>Balkonas</span><span>Rūsys</span></dd>
</dl>
</body></html>`, heading, price, code)
}

// chunkRecorder wraps a BatchFetcher and records each chunk's size.
type chunkRecorder struct {
	BatchFetcher
	mu     sync.Mutex
	chunks []int
}

func (c *chunkRecorder) FetchMany(ctx context.Context, urls []string, concurrency int) []scraper.Result {
	c.mu.Lock()
	c.chunks = append(c.chunks, len(urls))
	c.mu.Unlock()
	return c.BatchFetcher.FetchMany(ctx, urls, concurrency)
}
