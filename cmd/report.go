package cmd

import (
	"github.com/spf13/cobra"

	"listing-harvester/services"
	"listing-harvester/storage"
)

func reportCommand() *cobra.Command {
	var latest int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise committed listings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			var runIDs []int64
			if latest > 0 {
				runs, err := storage.NewLedger(db).Recent(ctx, latest)
				if err != nil {
					return err
				}
				for _, r := range runs {
					runIDs = append(runIDs, r.ID)
				}
			}

			records, err := db.Listings(ctx, runIDs)
			if err != nil {
				return err
			}

			summaries := services.NewCleaner(a.logger).Clean(records)
			insights := services.NewInsightService(a.logger)
			insights.Print(cmd.OutOrStdout(), insights.Generate(summaries))
			return nil
		},
	}
	cmd.Flags().IntVar(&latest, "latest", 0, "only listings from the N most recent runs")
	return cmd
}
