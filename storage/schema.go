package storage

import (
	"strings"

	"listing-harvester/models"
)

const (
	StagingTable = "listings_stg"
	FinalTable   = "listings"
	TasksTable   = "tasks"
)

// listingColumns is the comma-joined Schema column list.
func listingColumns() string {
	cols := make([]string, len(models.Schema))
	for i, f := range models.Schema {
		cols[i] = string(f)
	}
	return strings.Join(cols, ", ")
}

// listingTableDDL generates an all-TEXT table over the Schema.
func listingTableDDL(table string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(table)
	b.WriteString(" (\n")
	for i, f := range models.Schema {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("\t")
		b.WriteString(string(f))
		b.WriteString(" TEXT")
	}
	b.WriteString("\n)")
	return b.String()
}

func schemaStatements(driver string) []string {
	tasks := `CREATE TABLE IF NOT EXISTS tasks (
	task_id    BIGSERIAL PRIMARY KEY,
	run_date   TEXT        NOT NULL,
	category   TEXT        NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time   TIMESTAMPTZ,
	status     TEXT        NOT NULL,
	pages      INTEGER     NOT NULL DEFAULT 0,
	records    INTEGER     NOT NULL DEFAULT 0,
	error      TEXT
)`
	if driver == DriverSQLite {
		tasks = `CREATE TABLE IF NOT EXISTS tasks (
	task_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	run_date   TEXT      NOT NULL,
	category   TEXT      NOT NULL,
	start_time TIMESTAMP NOT NULL,
	end_time   TIMESTAMP,
	status     TEXT      NOT NULL,
	pages      INTEGER   NOT NULL DEFAULT 0,
	records    INTEGER   NOT NULL DEFAULT 0,
	error      TEXT
)`
	}

	return []string{
		tasks,
		listingTableDDL(StagingTable),
		listingTableDDL(FinalTable),
		"CREATE INDEX IF NOT EXISTS idx_listings_task_id ON listings(task_id)",
		"CREATE INDEX IF NOT EXISTS idx_listings_listing_id ON listings(listing_id)",
	}
}

func truncateStatement(driver, table string) string {
	if driver == DriverSQLite {
		return "DELETE FROM " + table
	}
	return "TRUNCATE TABLE " + table
}
