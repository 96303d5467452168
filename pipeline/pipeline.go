// Package pipeline sequences discovery, dispatch, staging and commit for each
// configured category and records every run in the ledger.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"listing-harvester/metrics"
	"listing-harvester/models"
	"listing-harvester/scraper/aruodas"
	"listing-harvester/storage"
	"listing-harvester/utils"
)

// State is a step of the per-category state machine.
type State string

const (
	StateDiscovering State = "discovering"
	StateDispatching State = "dispatching"
	StateCommitting  State = "committing"
	StateDone        State = "done"
)

// LinkDiscoverer finds the detail pages of a category.
type LinkDiscoverer interface {
	Discover(ctx context.Context, cat models.Category) *aruodas.Discovery
}

// Options tunes the orchestrator.
type Options struct {
	ChunkSize   int
	Concurrency int
}

// Outcome is the terminal result of one category run.
type Outcome struct {
	Category string
	RunID    int64
	Status   models.RunStatus
	Pages    int
	Records  int
	Stats    Stats
	Err      error
}

// Orchestrator runs categories one at a time. A failure in one category is
// recorded in the ledger and does not stop the next.
type Orchestrator struct {
	discoverer LinkDiscoverer
	dispatcher *Dispatcher
	store      storage.Stager
	ledger     storage.RunLedger
	opts       Options
	logger     *utils.Logger
	metrics    *metrics.Metrics
}

// New creates an Orchestrator. m may be nil.
func New(discoverer LinkDiscoverer, dispatcher *Dispatcher, store storage.Stager, ledger storage.RunLedger, opts Options, logger *utils.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		discoverer: discoverer,
		dispatcher: dispatcher,
		store:      store,
		ledger:     ledger,
		opts:       opts,
		logger:     logger,
		metrics:    m,
	}
}

// Run processes categories in order and returns one outcome per category.
func (o *Orchestrator) Run(ctx context.Context, categories []models.Category) []Outcome {
	outcomes := make([]Outcome, 0, len(categories))
	for _, cat := range categories {
		if ctx.Err() != nil {
			o.logger.Warn("context cancelled, skipping remaining categories",
				zap.String("next_category", cat.Name))
			break
		}
		outcomes = append(outcomes, o.RunCategory(ctx, cat))
	}
	return outcomes
}

// RunCategory takes one category through
// discovering → dispatching → committing → done.
func (o *Orchestrator) RunCategory(ctx context.Context, cat models.Category) Outcome {
	start := time.Now()
	out := Outcome{Category: cat.Name, Status: models.RunStatusFailed}
	log := o.logger.With(zap.String("category", cat.Name))

	runID, err := o.ledger.StartRun(ctx, cat.Name, 0)
	if err != nil {
		log.Error("cannot open ledger row, category skipped", zap.Error(err))
		out.Err = err
		o.metrics.ObserveRun(cat.Name, string(out.Status), time.Since(start))
		return out
	}
	out.RunID = runID
	log = log.With(zap.Int64("run_id", runID))

	out.Err = o.execute(ctx, runID, cat, &out, log)
	if out.Err == nil {
		out.Status = models.RunStatusSuccess
	} else {
		out.Records = 0
		log.Error("category run failed", zap.Error(out.Err))
	}

	// The ledger row is closed even when ctx has been cancelled.
	if err := o.ledger.FinishRun(context.WithoutCancel(ctx), runID, out.Records, out.Err); err != nil {
		log.Error("cannot close ledger row", zap.Error(err))
	}

	o.metrics.ObserveRun(cat.Name, string(out.Status), time.Since(start))
	log.Info("state",
		zap.String("state", string(StateDone)),
		zap.String("status", string(out.Status)),
		zap.Int("pages", out.Pages),
		zap.Int("records", out.Records),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

func (o *Orchestrator) execute(ctx context.Context, runID int64, cat models.Category, out *Outcome, log *utils.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in category run", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	log.Info("state", zap.String("state", string(StateDiscovering)))
	disc := o.discoverer.Discover(ctx, cat)
	out.Pages = disc.Pages
	if err := o.ledger.SetPages(ctx, runID, disc.Pages); err != nil {
		return err
	}

	log.Info("state", zap.String("state", string(StateDispatching)))
	if err := o.store.BeginRun(ctx, runID, cat.Name); err != nil {
		return err
	}
	stats, err := o.dispatcher.Process(ctx, cat.Name, disc.URLs, o.opts.ChunkSize, o.opts.Concurrency)
	out.Stats = stats
	if err != nil {
		return err
	}
	log.Info("dispatch finished",
		zap.Int("chunks", stats.Chunks),
		zap.Int("loaded", stats.Loaded),
		zap.Int("skipped", stats.Skipped))

	log.Info("state", zap.String("state", string(StateCommitting)))
	n, err := o.store.Commit(ctx)
	if err != nil {
		return err
	}
	out.Records = n
	return nil
}
