package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"listing-harvester/models"
)

const runColumns = "task_id, run_date, category, start_time, end_time, status, pages, records, error"

// Ledger is the tasks table: one row per category run.
type Ledger struct {
	db  *DB
	now func() time.Time
}

// NewLedger returns a ledger over db.
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// StartRun inserts a running row and returns its generated id.
func (l *Ledger) StartRun(ctx context.Context, category string, pages int) (int64, error) {
	now := l.now()
	q := l.db.Rebind(`INSERT INTO tasks (run_date, category, start_time, status, pages, records)
		VALUES (?, ?, ?, ?, ?, 0) RETURNING task_id`)

	var id int64
	err := l.db.QueryRowxContext(ctx, q, now.Format(time.DateOnly), category, now, string(models.RunStatusRunning), pages).Scan(&id)
	if err != nil {
		return 0, fault("start run", err)
	}
	return id, nil
}

// SetPages records the number of index pages discovered for a run.
func (l *Ledger) SetPages(ctx context.Context, runID int64, pages int) error {
	q := l.db.Rebind("UPDATE tasks SET pages = ? WHERE task_id = ?")
	return l.exec(ctx, "set pages", q, pages, runID)
}

// FinishRun closes a run. A nil runErr marks it success with the given
// record count; otherwise it is failed with zero records and the message.
func (l *Ledger) FinishRun(ctx context.Context, runID int64, records int, runErr error) error {
	status := models.RunStatusSuccess
	var msg *string
	if runErr != nil {
		status = models.RunStatusFailed
		records = 0
		s := runErr.Error()
		msg = &s
	}

	q := l.db.Rebind("UPDATE tasks SET end_time = ?, status = ?, records = ?, error = ? WHERE task_id = ?")
	return l.exec(ctx, "finish run", q, l.now(), string(status), records, msg, runID)
}

func (l *Ledger) exec(ctx context.Context, op, q string, args ...any) error {
	res, err := l.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fault(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fault(op, err)
	}
	if n == 0 {
		return fault(op, ErrRunNotFound)
	}
	return nil
}

// Get returns a single run.
func (l *Ledger) Get(ctx context.Context, runID int64) (*models.Run, error) {
	var run models.Run
	q := l.db.Rebind("SELECT " + runColumns + " FROM tasks WHERE task_id = ?")
	if err := l.db.GetContext(ctx, &run, q, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fault("get run", err)
	}
	return &run, nil
}

// Recent returns up to limit runs, newest first. limit <= 0 returns all.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]models.Run, error) {
	q := "SELECT " + runColumns + " FROM tasks ORDER BY task_id DESC"
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	runs := []models.Run{}
	if err := l.db.SelectContext(ctx, &runs, l.db.Rebind(q), args...); err != nil {
		return nil, fault("recent runs", err)
	}
	return runs, nil
}
