package cmd

import (
	"context"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"listing-harvester/pipeline"
	"listing-harvester/server"
	"listing-harvester/storage"
)

func serveCommand() *cobra.Command {
	var (
		addr     string
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger and metrics, optionally harvesting on a schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			defer func() { _ = a.logger.Sync() }()
			ctx := cmd.Context()

			if addr == "" {
				addr = a.cfg.MetricsAddr
			}
			if schedule == "" {
				schedule = a.cfg.Schedule
			}

			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			transport, release := a.newTransport()
			defer release()
			orch := a.newOrchestrator(db, transport)

			sched := pipeline.NewScheduler(ctx, func(ctx context.Context) {
				outcomes := orch.Run(ctx, a.cfg.Categories)
				a.logger.Info("harvest finished", zap.Int("categories", len(outcomes)))
			}, a.logger)
			if schedule != "" {
				if err := sched.Schedule(schedule); err != nil {
					return err
				}
			}
			sched.Start()
			defer sched.Stop()

			a.metrics.Registry().MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			router := server.NewRouter(storage.NewLedger(db), a.metrics.Handler(), sched, a.logger)
			return server.Serve(ctx, addr, router, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default METRICS_ADDR)")
	cmd.Flags().StringVar(&schedule, "schedule", "", `cron spec for scheduled harvests, e.g. "0 6 * * *" (default SCHEDULE)`)
	return cmd
}
