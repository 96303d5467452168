package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"listing-harvester/models"
)

// StagedStore loads a category run into listings_stg and promotes it to
// listings in a single transaction.
type StagedStore struct {
	db  *DB
	now func() time.Time

	mu       sync.Mutex
	runID    int64
	category string
	active   bool

	insertSQL string
}

// NewStagedStore returns a store over db.
func NewStagedStore(db *DB) *StagedStore {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(models.Schema)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", StagingTable, listingColumns(), placeholders)
	return &StagedStore{
		db:        db,
		now:       time.Now,
		insertSQL: db.Rebind(insert),
	}
}

// BeginRun clears the staging table and binds the store to runID.
func (s *StagedStore) BeginRun(ctx context.Context, runID int64, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, truncateStatement(s.db.driver, StagingTable)); err != nil {
		return fault("begin run", err)
	}
	s.runID = runID
	s.category = category
	s.active = true
	return nil
}

// InsertStaging stamps listing_id, task_id, category and ext_date onto rec
// and appends it to the staging table. Absent fields are stored as NULL.
func (s *StagedStore) InsertStaging(ctx context.Context, rec *models.Record) error {
	s.mu.Lock()
	runID, category, active := s.runID, s.category, s.active
	s.mu.Unlock()
	if !active {
		return ErrNoActiveRun
	}

	now := s.now()
	u, _ := rec.Get(models.FieldURL)
	if id := models.ListingID(u, now); id != "" {
		rec.Set(models.FieldListingID, id)
	}
	rec.Set(models.FieldTaskID, strconv.FormatInt(runID, 10))
	rec.Set(models.FieldCategory, category)
	rec.Set(models.FieldExtDate, now.Format(time.DateOnly))

	if _, err := s.db.ExecContext(ctx, s.insertSQL, rec.Values()...); err != nil {
		return fault("insert staging", err)
	}
	return nil
}

// Commit copies every staged row into the final table. The copy is
// all-or-nothing: when the copied count disagrees with the staged count the
// transaction is rolled back.
func (s *StagedStore) Commit(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, ErrNoActiveRun
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fault("commit", err)
	}
	defer func() { _ = tx.Rollback() }()

	var staged int
	if err := tx.GetContext(ctx, &staged, "SELECT COUNT(*) FROM "+StagingTable); err != nil {
		return 0, fault("commit", err)
	}

	cols := listingColumns()
	res, err := tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", FinalTable, cols, cols, StagingTable))
	if err != nil {
		return 0, fault("commit", err)
	}
	copied, err := res.RowsAffected()
	if err != nil {
		return 0, fault("commit", err)
	}
	if int(copied) != staged {
		return 0, fault("commit", fmt.Errorf("copied %d rows, staged %d", copied, staged))
	}
	if err := tx.Commit(); err != nil {
		return 0, fault("commit", err)
	}

	s.active = false
	return staged, nil
}

// StagingCount returns the number of rows currently staged.
func (s *StagedStore) StagingCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+StagingTable); err != nil {
		return 0, fault("staging count", err)
	}
	return n, nil
}

// FinalCount returns the number of committed rows carrying runID.
func (s *StagedStore) FinalCount(ctx context.Context, runID int64) (int, error) {
	var n int
	q := s.db.Rebind("SELECT COUNT(*) FROM " + FinalTable + " WHERE task_id = ?")
	if err := s.db.GetContext(ctx, &n, q, strconv.FormatInt(runID, 10)); err != nil {
		return 0, fault("final count", err)
	}
	return n, nil
}
