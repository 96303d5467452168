package storage

import (
	"context"

	"listing-harvester/models"
)

// Stager is the staging area a category run loads records into.
type Stager interface {
	BeginRun(ctx context.Context, runID int64, category string) error
	InsertStaging(ctx context.Context, rec *models.Record) error
	Commit(ctx context.Context) (int, error)
}

// RunLedger records one row per category run.
type RunLedger interface {
	StartRun(ctx context.Context, category string, pages int) (int64, error)
	SetPages(ctx context.Context, runID int64, pages int) error
	FinishRun(ctx context.Context, runID int64, records int, runErr error) error
}

// TableWriter persists a header and rows to some export format.
type TableWriter interface {
	WriteTable(header []string, rows [][]string) error
	Close() error
}
