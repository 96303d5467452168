package cmd

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"listing-harvester/storage"
)

func tasksCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show the run ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)

			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := storage.NewLedger(db).Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Task", "Date", "Category", "Status", "Pages", "Records", "Duration", "Error"})
			for _, r := range runs {
				errText := ""
				if r.Error != nil {
					errText = *r.Error
				}
				t.AppendRow(table.Row{
					r.ID, r.RunDate, r.Category, r.Status, r.Pages, r.Records,
					r.Duration().Round(time.Second), errText,
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show (0 for all)")
	return cmd
}
