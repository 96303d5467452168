package services

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"listing-harvester/models"
	"listing-harvester/utils"
)

const topCities = 10

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []*models.ListingSummary) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByCategory: make(map[string]int),
		ListingsByCity:     make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var prices []float64
	for _, l := range listings {
		if l.Category != "" {
			report.ListingsByCategory[l.Category]++
		}
		if l.City != "" {
			report.ListingsByCity[l.City]++
		}
		if l.Price <= 0 {
			continue
		}
		prices = append(prices, l.Price)
		if report.MostExpensive == nil || l.Price > report.MostExpensive.Price {
			report.MostExpensive = l
		}
	}

	// Price stats (only listings with a parseable price)
	if len(prices) > 0 {
		sort.Float64s(prices)
		var total float64
		for _, p := range prices {
			total += p
		}
		report.PricedListings = len(prices)
		report.MinPrice = round2(prices[0])
		report.MaxPrice = round2(prices[len(prices)-1])
		report.AveragePrice = round2(total / float64(len(prices)))
		report.MedianPrice = round2(median(prices))
	}

	s.logger.Debug("insights generated",
		zap.Int("listings", report.TotalListings),
		zap.Int("priced", report.PricedListings))
	return report
}

// Print renders the report as tables.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	overview := table.NewWriter()
	overview.SetOutputMirror(w)
	overview.SetStyle(table.StyleLight)
	overview.SetTitle("Overview")
	overview.AppendRow(table.Row{"Listings", r.TotalListings})
	overview.AppendRow(table.Row{"With price", r.PricedListings})
	if r.PricedListings > 0 {
		overview.AppendSeparator()
		overview.AppendRow(table.Row{"Average price", money(r.AveragePrice)})
		overview.AppendRow(table.Row{"Median price", money(r.MedianPrice)})
		overview.AppendRow(table.Row{"Minimum price", money(r.MinPrice)})
		overview.AppendRow(table.Row{"Maximum price", money(r.MaxPrice)})
	}
	overview.Render()

	if r.MostExpensive != nil {
		m := r.MostExpensive
		top := table.NewWriter()
		top.SetOutputMirror(w)
		top.SetStyle(table.StyleLight)
		top.SetTitle("Most expensive listing")
		top.AppendRow(table.Row{"ID", m.ListingID})
		top.AppendRow(table.Row{"Location", joinNonEmpty(m.City, m.District, m.Street)})
		top.AppendRow(table.Row{"Price", m.RawPrice})
		top.AppendRow(table.Row{"URL", m.URL})
		top.Render()
	}

	renderCounts(w, "By category", "Category", r.ListingsByCategory, 0)
	renderCounts(w, "By city", "City", r.ListingsByCity, topCities)
}

func renderCounts(w io.Writer, title, label string, counts map[string]int, limit int) {
	if len(counts) == 0 {
		return
	}
	type kv struct {
		key   string
		count int
	}
	var rows []kv
	for k, v := range counts {
		rows = append(rows, kv{k, v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row{label, "Listings"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.key, r.count})
	}
	t.Render()
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func money(v float64) string {
	return fmt.Sprintf("%.2f €", v)
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
