package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-harvester/models"
	"listing-harvester/utils"
)

func sampleSummaries() []*models.ListingSummary {
	return []*models.ListingSummary{
		{ListingID: "4-1_d", Category: "RENT_FLAT", City: "Vilnius", Price: 400, RawPrice: "400 €"},
		{ListingID: "4-2_d", Category: "RENT_FLAT", City: "Vilnius", Price: 600, RawPrice: "600 €"},
		{ListingID: "4-3_d", Category: "SELL_FLAT", City: "Vilnius", District: "Žvėrynas", Price: 210000, RawPrice: "210 000 €"},
		{ListingID: "4-4_d", Category: "SELL_FLAT", City: "Kaunas", Price: 90000, RawPrice: "90 000 €"},
		{ListingID: "4-5_d", Category: "RENT_HOUSE", City: "Kaunas"},
	}
}

func TestInsightCounts(t *testing.T) {
	r := NewInsightService(utils.NewNopLogger()).Generate(sampleSummaries())

	assert.Equal(t, 5, r.TotalListings)
	assert.Equal(t, 4, r.PricedListings)
	assert.Equal(t, map[string]int{"RENT_FLAT": 2, "SELL_FLAT": 2, "RENT_HOUSE": 1}, r.ListingsByCategory)
	assert.Equal(t, map[string]int{"Vilnius": 3, "Kaunas": 2}, r.ListingsByCity)
}

func TestInsightPrices(t *testing.T) {
	r := NewInsightService(utils.NewNopLogger()).Generate(sampleSummaries())

	assert.Equal(t, 75250.0, r.AveragePrice)
	assert.Equal(t, 45300.0, r.MedianPrice)
	assert.Equal(t, 400.0, r.MinPrice)
	assert.Equal(t, 210000.0, r.MaxPrice)
	require.NotNil(t, r.MostExpensive)
	assert.Equal(t, "4-3_d", r.MostExpensive.ListingID)
}

func TestInsightEmpty(t *testing.T) {
	r := NewInsightService(utils.NewNopLogger()).Generate(nil)
	assert.Zero(t, r.TotalListings)
	assert.Nil(t, r.MostExpensive)
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(sampleSummaries()))

	out := buf.String()
	assert.Contains(t, out, "Overview")
	assert.Contains(t, out, "75250.00 €")
	assert.Contains(t, out, "Vilnius, Žvėrynas")
	assert.Contains(t, out, "SELL_FLAT")
}
