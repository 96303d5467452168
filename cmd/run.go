package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"listing-harvester/models"
	"listing-harvester/pipeline"
)

func runCommand() *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline for every configured category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			defer func() { _ = a.logger.Sync() }()

			cats, err := selectCategories(a.cfg.Categories, only)
			if err != nil {
				return err
			}

			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			transport, release := a.newTransport()
			defer release()

			a.logger.Info("harvest starting",
				zap.Int("categories", len(cats)),
				zap.Int("concurrency", a.cfg.MaxConcurrency),
				zap.Int("chunk_size", a.cfg.ChunkSize),
				zap.String("transport", a.cfg.Transport))

			outcomes := a.newOrchestrator(db, transport).Run(cmd.Context(), cats)
			printOutcomes(outcomes)

			failed := 0
			for _, o := range outcomes {
				if o.Status != models.RunStatusSuccess {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d categories failed", failed, len(outcomes))
			}
			return cmd.Context().Err()
		},
	}
	cmd.Flags().StringSliceVar(&only, "category", nil, "run only these categories (by name)")
	return cmd
}

func selectCategories(all []models.Category, names []string) ([]models.Category, error) {
	if len(names) == 0 {
		return all, nil
	}
	var out []models.Category
	for _, n := range names {
		i := slices.IndexFunc(all, func(c models.Category) bool { return c.Name == n })
		if i < 0 {
			return nil, fmt.Errorf("unknown category %q", n)
		}
		out = append(out, all[i])
	}
	return out, nil
}

func printOutcomes(outcomes []pipeline.Outcome) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Task", "Category", "Status", "Pages", "Records", "Skipped", "Error"})
	for _, o := range outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		t.AppendRow(table.Row{o.RunID, o.Category, o.Status, o.Pages, o.Records, o.Stats.Skipped, errText})
	}
	t.Render()
}
