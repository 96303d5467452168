package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"listing-harvester/models"
	"listing-harvester/storage"
	"listing-harvester/utils"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// taskColumns is the header of the exported ledger.
var taskColumns = []string{"task_id", "run_date", "category", "start_time", "end_time", "status", "pages", "records", "error"}

// ExportOptions selects what is exported and how.
type ExportOptions struct {
	// Latest restricts the export to the N most recent runs; 0 exports all.
	Latest int
	Format string
}

// ExportResult describes the files an export produced.
type ExportResult struct {
	ListingsPath string
	TasksPath    string
	Listings     int
	Tasks        int
}

// ListingSource reads committed listings.
type ListingSource interface {
	Listings(ctx context.Context, runIDs []int64) ([]*models.Record, error)
}

// RunSource reads ledger rows, newest first.
type RunSource interface {
	Recent(ctx context.Context, limit int) ([]models.Run, error)
}

// Exporter dumps the final table and the ledger to files.
type Exporter struct {
	listings ListingSource
	runs     RunSource
	dir      string
	logger   *utils.Logger
}

func NewExporter(listings ListingSource, runs RunSource, dir string, logger *utils.Logger) *Exporter {
	return &Exporter{listings: listings, runs: runs, dir: dir, logger: logger}
}

// Export writes listings_{all|latest} and logs_{all|latest} into the export
// directory, creating it if needed.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	if opts.Format == "" {
		opts.Format = FormatCSV
	}
	if opts.Format != FormatCSV && opts.Format != FormatXLSX {
		return nil, fmt.Errorf("unsupported export format %q", opts.Format)
	}

	runs, err := e.runs.Recent(ctx, opts.Latest)
	if err != nil {
		return nil, fmt.Errorf("export: read runs: %w", err)
	}

	var runIDs []int64
	suffix := "all"
	if opts.Latest > 0 {
		suffix = "latest"
		runIDs = make([]int64, 0, len(runs))
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	var records []*models.Record
	// With --latest and an empty ledger there is nothing to select.
	if opts.Latest == 0 || len(runIDs) > 0 {
		records, err = e.listings.Listings(ctx, runIDs)
		if err != nil {
			return nil, fmt.Errorf("export: read listings: %w", err)
		}
	}

	res := &ExportResult{
		ListingsPath: filepath.Join(e.dir, fmt.Sprintf("listings_%s.%s", suffix, opts.Format)),
		TasksPath:    filepath.Join(e.dir, fmt.Sprintf("logs_%s.%s", suffix, opts.Format)),
		Listings:     len(records),
		Tasks:        len(runs),
	}

	if err := writeTable(res.ListingsPath, "listings", opts.Format, listingHeader(), listingRows(records)); err != nil {
		return nil, err
	}
	if err := writeTable(res.TasksPath, "tasks", opts.Format, taskColumns, taskRows(runs)); err != nil {
		return nil, err
	}

	e.logger.Info("export written",
		zap.String("listings_file", res.ListingsPath),
		zap.Int("listings", res.Listings),
		zap.String("tasks_file", res.TasksPath),
		zap.Int("tasks", res.Tasks))
	return res, nil
}

func writeTable(path, sheet, format string, header []string, rows [][]string) error {
	var (
		w   storage.TableWriter
		err error
	)
	switch format {
	case FormatXLSX:
		w, err = storage.NewXLSXWriter(path, sheet)
	default:
		w, err = storage.NewCSVWriter(path)
	}
	if err != nil {
		return err
	}
	if err := w.WriteTable(header, rows); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func listingHeader() []string {
	h := make([]string, len(models.Schema))
	for i, f := range models.Schema {
		h[i] = string(f)
	}
	return h
}

func listingRows(records []*models.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(models.Schema))
		for i, f := range models.Schema {
			row[i], _ = r.Get(f)
		}
		rows = append(rows, row)
	}
	return rows
}

func taskRows(runs []models.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		end, errText := "", ""
		if r.EndTime != nil {
			end = r.EndTime.Format(time.RFC3339)
		}
		if r.Error != nil {
			errText = *r.Error
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.RunDate,
			r.Category,
			r.StartTime.Format(time.RFC3339),
			end,
			string(r.Status),
			strconv.Itoa(r.Pages),
			strconv.Itoa(r.Records),
			errText,
		})
	}
	return rows
}
