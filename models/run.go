package models

import "time"

// Category is one harvested catalog segment and its index path.
type Category struct {
	Name string `mapstructure:"name" yaml:"name"`
	Path string `mapstructure:"path" yaml:"path"`
}

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one pipeline execution for one category as recorded in the tasks table.
type Run struct {
	ID        int64      `db:"task_id" json:"task_id"`
	RunDate   string     `db:"run_date" json:"run_date"`
	Category  string     `db:"category" json:"category"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   *time.Time `db:"end_time" json:"end_time,omitempty"`
	Status    RunStatus  `db:"status" json:"status"`
	Pages     int        `db:"pages" json:"pages"`
	Records   int        `db:"records" json:"records"`
	Error     *string    `db:"error" json:"error,omitempty"`
}

// Terminal reports whether the run has been finished.
func (r *Run) Terminal() bool {
	return r.Status == RunStatusSuccess || r.Status == RunStatusFailed
}

// Duration is the wall time of a finished run, zero while running.
func (r *Run) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// InsightReport summarises committed listings.
type InsightReport struct {
	TotalListings      int
	ListingsByCategory map[string]int
	ListingsByCity     map[string]int
	PricedListings     int
	AveragePrice       float64
	MedianPrice        float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      *ListingSummary
}

// ListingSummary is the subset of a committed listing used in reports.
type ListingSummary struct {
	ListingID string
	Category  string
	City      string
	District  string
	Street    string
	RawPrice  string
	Price     float64
	URL       string
}
