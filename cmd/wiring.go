package cmd

import (
	"context"
	"time"

	"listing-harvester/config"
	"listing-harvester/pipeline"
	"listing-harvester/scraper"
	"listing-harvester/scraper/aruodas"
	"listing-harvester/storage"
)

func (a *app) openDB(ctx context.Context) (*storage.DB, error) {
	return storage.Open(ctx, a.cfg.DBDriver, a.cfg.DSN())
}

// newTransport returns the configured transport and a release func.
func (a *app) newTransport() (scraper.Transport, func()) {
	if a.cfg.Transport == config.TransportBrowser {
		b := scraper.NewBrowserTransport(a.cfg.ChromeBin, a.cfg.UserAgent, a.cfg.RequestTimeout)
		return b, b.Close
	}
	return scraper.NewHTTPTransport(scraper.HTTPTransportConfig{
		Timeout:   a.cfg.RequestTimeout,
		UserAgent: a.cfg.UserAgent,
		SizeCap:   a.cfg.MaxBodyBytes,
	}), func() {}
}

// newOrchestrator assembles fetcher, discoverer, dispatcher, store and
// ledger over db.
func (a *app) newOrchestrator(db *storage.DB, transport scraper.Transport) *pipeline.Orchestrator {
	cfg := a.cfg
	fetcher := scraper.NewFetcher(transport, scraper.FetcherConfig{
		MaxAttempts:   cfg.MaxRetries,
		BaseDelay:     500 * time.Millisecond,
		RetryStatuses: cfg.RetryStatuses,
		RateLimit:     cfg.RateLimit(),
	}, a.logger, a.metrics)

	minDelay, maxDelay := cfg.PageDelayRange()
	discoverer := aruodas.NewDiscoverer(fetcher, aruodas.DiscovererConfig{
		BaseURL:  cfg.BaseURL,
		MaxPages: cfg.MaxPages,
		MinDelay: minDelay,
		MaxDelay: maxDelay,
	}, a.logger, a.metrics)

	store := storage.NewStagedStore(db)
	dispatcher := pipeline.NewDispatcher(fetcher, aruodas.NewExtractor(), store, a.logger, a.metrics)

	return pipeline.New(discoverer, dispatcher, store, storage.NewLedger(db), pipeline.Options{
		ChunkSize:   cfg.ChunkSize,
		Concurrency: cfg.MaxConcurrency,
	}, a.logger, a.metrics)
}
