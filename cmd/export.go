package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"listing-harvester/services"
	"listing-harvester/storage"
)

func exportCommand() *cobra.Command {
	var (
		latest bool
		runs   int
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the listings and tasks tables to files",
		Long: `export writes listings_all and logs_all into the export directory.
With --latest the export is limited to the most recent runs (--runs, default
LATEST_RUNS) and the files are named listings_latest and logs_latest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			defer func() { _ = a.logger.Sync() }()

			n := 0
			if latest {
				n = runs
				if n == 0 {
					n = a.cfg.LatestRuns
				}
				if n < 1 {
					return fmt.Errorf("--runs must be positive")
				}
			}

			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			exp := services.NewExporter(db, storage.NewLedger(db), a.cfg.ExportDir, a.logger)
			res, err := exp.Export(cmd.Context(), services.ExportOptions{Latest: n, Format: format})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d listings -> %s\n%d tasks -> %s\n",
				res.Listings, res.ListingsPath, res.Tasks, res.TasksPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "export only the most recent runs")
	cmd.Flags().IntVar(&runs, "runs", 0, "number of runs for --latest (default LATEST_RUNS)")
	cmd.Flags().StringVar(&format, "format", services.FormatCSV, "output format: csv or xlsx")
	return cmd
}
