package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-harvester/models"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestStore(t *testing.T, db *DB) *StagedStore {
	t.Helper()
	s := NewStagedStore(db)
	s.now = func() time.Time { return fixedNow }
	return s
}

func listing(code, city string) *models.Record {
	rec := models.NewRecord()
	rec.Set(models.FieldURL, "https://www.aruodas.lt/"+code)
	rec.Set(models.FieldCity, city)
	rec.Set(models.FieldPrice, "450 €")
	return rec
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.EnsureSchema(context.Background()))
	assert.Equal(t, DriverSQLite, db.Driver())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	require.Error(t, err)
}

func TestInsertBeforeBeginRun(t *testing.T) {
	s := newTestStore(t, newTestDB(t))
	err := s.InsertStaging(context.Background(), listing("4-1", "Vilnius"))
	assert.ErrorIs(t, err, ErrNoActiveRun)

	_, err = s.Commit(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveRun)
}

func TestStageAndCommit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newTestStore(t, db)

	require.NoError(t, s.BeginRun(ctx, 7, "RENT_FLAT"))
	for _, code := range []string{"4-100", "4-101", "4-102"} {
		require.NoError(t, s.InsertStaging(ctx, listing(code, "Vilnius")))
	}

	staged, err := s.StagingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, staged)

	final, err := s.FinalCount(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, final, "nothing is visible before commit")

	n, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	final, err = s.FinalCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, final)

	recs, err := db.Listings(ctx, []int64{7})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	first := recs[0]
	id, _ := first.Get(models.FieldListingID)
	assert.Equal(t, "4-100_2026-03-14", id)
	taskID, _ := first.Get(models.FieldTaskID)
	assert.Equal(t, "7", taskID)
	cat, _ := first.Get(models.FieldCategory)
	assert.Equal(t, "RENT_FLAT", cat)
	ext, _ := first.Get(models.FieldExtDate)
	assert.Equal(t, "2026-03-14", ext)
	assert.False(t, first.Has(models.FieldStreet), "absent fields are stored as NULL")
}

func TestBeginRunClearsStaging(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newTestStore(t, db)

	require.NoError(t, s.BeginRun(ctx, 1, "SELL_FLAT"))
	require.NoError(t, s.InsertStaging(ctx, listing("4-1", "Vilnius")))
	require.NoError(t, s.InsertStaging(ctx, listing("4-2", "Vilnius")))

	// Abandoned run: a new one starts without committing.
	require.NoError(t, s.BeginRun(ctx, 2, "SELL_FLAT"))
	staged, err := s.StagingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, staged)

	require.NoError(t, s.InsertStaging(ctx, listing("4-3", "Kaunas")))
	n, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := db.Listings(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	city, _ := all[0].Get(models.FieldCity)
	assert.Equal(t, "Kaunas", city)
}

func TestCommitEmptyRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newTestDB(t))

	require.NoError(t, s.BeginRun(ctx, 3, "RENT_HOUSE"))
	n, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListingsFiltersByRun(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newTestStore(t, db)

	for run := int64(1); run <= 3; run++ {
		require.NoError(t, s.BeginRun(ctx, run, "RENT_FLAT"))
		require.NoError(t, s.InsertStaging(ctx, listing(fmt.Sprintf("4-%d", 10+run), "Vilnius")))
		_, err := s.Commit(ctx)
		require.NoError(t, err)
	}

	recs, err := db.Listings(ctx, []int64{1, 3})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	first, _ := recs[0].Get(models.FieldTaskID)
	second, _ := recs[1].Get(models.FieldTaskID)
	assert.Equal(t, "1", first)
	assert.Equal(t, "3", second)

	all, err := db.Listings(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEmptyValueSurvivesCommit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newTestStore(t, db)

	rec := listing("4-200", "Vilnius")
	rec.Set(models.FieldPeculiars, "")

	require.NoError(t, s.BeginRun(ctx, 5, "RENT_FLAT"))
	require.NoError(t, s.InsertStaging(ctx, rec))
	_, err := s.Commit(ctx)
	require.NoError(t, err)

	recs, err := db.Listings(ctx, []int64{5})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	peculiars, ok := recs[0].Get(models.FieldPeculiars)
	assert.True(t, ok, "an empty value is present, not NULL")
	assert.Equal(t, "", peculiars)
	assert.False(t, recs[0].Has(models.FieldStreet))
}

func TestListingsOrdersRunsNumerically(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newTestStore(t, db)

	for _, run := range []int64{10, 9, 2} {
		require.NoError(t, s.BeginRun(ctx, run, "RENT_FLAT"))
		require.NoError(t, s.InsertStaging(ctx, listing(fmt.Sprintf("4-%d", 300+run), "Vilnius")))
		_, err := s.Commit(ctx)
		require.NoError(t, err)
	}

	recs, err := db.Listings(ctx, nil)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	var order []string
	for _, r := range recs {
		id, _ := r.Get(models.FieldTaskID)
		order = append(order, id)
	}
	assert.Equal(t, []string{"2", "9", "10"}, order)
}

func TestLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(newTestDB(t))
	l.now = func() time.Time { return fixedNow }

	id, err := l.StartRun(ctx, "RENT_FLAT", 0)
	require.NoError(t, err)
	assert.Positive(t, id)

	run, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, run.Status)
	assert.Equal(t, "2026-03-14", run.RunDate)
	assert.Nil(t, run.EndTime)
	assert.False(t, run.Terminal())

	require.NoError(t, l.SetPages(ctx, id, 3))
	l.now = func() time.Time { return fixedNow.Add(90 * time.Second) }
	require.NoError(t, l.FinishRun(ctx, id, 23, nil))

	run, err = l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Equal(t, 3, run.Pages)
	assert.Equal(t, 23, run.Records)
	assert.Nil(t, run.Error)
	require.NotNil(t, run.EndTime)
	assert.Equal(t, 90*time.Second, run.Duration())
}

func TestLedgerFailedRunZeroesRecords(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(newTestDB(t))

	id, err := l.StartRun(ctx, "SELL_HOUSE", 0)
	require.NoError(t, err)
	require.NoError(t, l.FinishRun(ctx, id, 12, errors.New("disk full")))

	run, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Zero(t, run.Records)
	require.NotNil(t, run.Error)
	assert.Equal(t, "disk full", *run.Error)
	assert.True(t, run.Terminal())
}

func TestLedgerUnknownRun(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(newTestDB(t))

	_, err := l.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = l.FinishRun(ctx, 42, 0, nil)
	assert.True(t, IsFault(err))
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestLedgerRecent(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(newTestDB(t))

	for _, cat := range []string{"RENT_HOUSE", "SELL_HOUSE", "RENT_FLAT", "SELL_FLAT", "RENT_HOUSE"} {
		_, err := l.StartRun(ctx, cat, 0)
		require.NoError(t, err)
	}

	runs, err := l.Recent(ctx, 4)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	assert.Equal(t, int64(5), runs[0].ID)
	assert.Equal(t, int64(2), runs[3].ID)

	all, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
