package storage

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/jmoiron/sqlx"

	"listing-harvester/models"
)

// Listings reads committed rows from the final table. With no runIDs every
// row is returned; otherwise only rows whose task_id is in runIDs.
func (d *DB) Listings(ctx context.Context, runIDs []int64) ([]*models.Record, error) {
	q := "SELECT " + listingColumns() + " FROM " + FinalTable
	var args []any
	if len(runIDs) > 0 {
		ids := make([]string, len(runIDs))
		for i, id := range runIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		var err error
		q, args, err = sqlx.In(q+" WHERE task_id IN (?)", ids)
		if err != nil {
			return nil, fault("listings", err)
		}
	}
	q = d.Rebind(q + " ORDER BY CAST(task_id AS INTEGER), listing_id")

	rows, err := d.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, fault("listings", err)
	}
	defer rows.Close()

	var out []*models.Record
	cells := make([]sql.NullString, len(models.Schema))
	dest := make([]any, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fault("listings", err)
		}
		rec := models.NewRecord()
		for i, f := range models.Schema {
			if cells[i].Valid {
				rec.Set(f, cells[i].String)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("listings", err)
	}
	return out, nil
}
