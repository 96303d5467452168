package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"listing-harvester/utils"
)

// Scheduler starts harvests on a cron schedule or on demand. At most one
// harvest runs at a time; a trigger that arrives while one is running is
// dropped.
type Scheduler struct {
	run     func(context.Context)
	cron    *cron.Cron
	parser  cron.Parser
	logger  *utils.Logger
	running atomic.Bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler wraps run. ctx bounds every harvest it starts.
func NewScheduler(ctx context.Context, run func(context.Context), logger *utils.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		run:    run,
		cron:   cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		parser: parser,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers spec (5-field cron or a descriptor such as "@daily").
func (s *Scheduler) Schedule(spec string) error {
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if _, err := s.cron.AddFunc(spec, func() {
		if !s.Trigger() {
			s.logger.Warn("previous harvest still running, scheduled run skipped", zap.String("schedule", spec))
		}
	}); err != nil {
		return fmt.Errorf("add schedule: %w", err)
	}
	s.logger.Info("harvest scheduled", zap.String("schedule", spec))
	return nil
}

// Trigger starts a harvest in the background. It returns false when one is
// already running.
func (s *Scheduler) Trigger() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.run(s.ctx)
	}()
	return true
}

// Running reports whether a harvest is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Start begins firing scheduled entries.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule, cancels any running harvest and waits for it.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}
