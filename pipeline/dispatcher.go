package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"listing-harvester/metrics"
	"listing-harvester/models"
	"listing-harvester/scraper"
	"listing-harvester/scraper/aruodas"
	"listing-harvester/utils"
)

// BatchFetcher fetches a set of URLs with a concurrency ceiling, returning
// one result per URL in input order.
type BatchFetcher interface {
	FetchMany(ctx context.Context, urls []string, concurrency int) []scraper.Result
}

// RecordExtractor turns a detail page into a record.
type RecordExtractor interface {
	Extract(body string) (*aruodas.Extraction, error)
}

// RecordSink receives extracted records.
type RecordSink interface {
	InsertStaging(ctx context.Context, rec *models.Record) error
}

// Stats summarises one Process call.
type Stats struct {
	Chunks       int
	Fetched      int
	Skipped      int
	Loaded       int
	Unrecognized int
}

// Dispatcher drives URLs through fetch, extract and staging in fixed-size
// chunks. Chunks run one after another; fetches inside a chunk run
// concurrently.
type Dispatcher struct {
	fetcher   BatchFetcher
	extractor RecordExtractor
	sink      RecordSink
	logger    *utils.Logger
	metrics   *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(fetcher BatchFetcher, extractor RecordExtractor, sink RecordSink, logger *utils.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		fetcher:   fetcher,
		extractor: extractor,
		sink:      sink,
		logger:    logger,
		metrics:   m,
	}
}

// Process loads every URL whose fetch returns status 200 into the sink.
// Failed fetches, other statuses and unparseable pages are counted and
// dropped. The first sink error aborts processing and is returned.
func (d *Dispatcher) Process(ctx context.Context, category string, urls []string, chunkSize, concurrency int) (Stats, error) {
	var stats Stats
	if chunkSize < 1 {
		return stats, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	log := d.logger.With(zap.String("category", category))

	for start := 0; start < len(urls); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := min(start+chunkSize, len(urls))
		chunk := urls[start:end]
		stats.Chunks++

		log.Debug("dispatching chunk",
			zap.Int("chunk", stats.Chunks),
			zap.Int("size", len(chunk)))

		for _, res := range d.fetcher.FetchMany(ctx, chunk, concurrency) {
			stats.Fetched++
			if !res.OK() {
				stats.Skipped++
				d.metrics.IncSkipped(category, skipReason(res))
				continue
			}

			ex, err := d.extractor.Extract(res.Response.Body)
			if err != nil {
				log.Warn("unparseable page skipped", zap.String("url", res.URL), zap.Error(err))
				stats.Skipped++
				d.metrics.IncSkipped(category, "parse")
				continue
			}
			if len(ex.Unrecognized) > 0 {
				log.Info("unrecognized labels",
					zap.String("url", res.URL),
					zap.Strings("labels", ex.Unrecognized))
				stats.Unrecognized += len(ex.Unrecognized)
				d.metrics.AddUnknownLabels(len(ex.Unrecognized))
			}

			rec := ex.Record
			if !rec.Has(models.FieldURL) {
				rec.Set(models.FieldURL, res.URL)
			}
			if err := d.sink.InsertStaging(ctx, rec); err != nil {
				return stats, fmt.Errorf("chunk %d: %w", stats.Chunks, err)
			}
			stats.Loaded++
			d.metrics.IncStaged(category)
		}
	}
	return stats, nil
}

func skipReason(res scraper.Result) string {
	if res.Err != nil {
		return "fetch_error"
	}
	return "status_" + statusClass(res.Response.Status)
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
