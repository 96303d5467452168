package services

import (
	"testing"

	"listing-harvester/models"
	"listing-harvester/utils"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"450 €", 450, true},
		{"1 250 €", 1250, true},
		{"85 000 € (1 308 €/m²)", 85000, true},
		{"1 200,50 €", 1200.50, true},
		{"Kaina sutartinė", 0, false},
		{"", 0, false},
		{"0 €", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePrice(%q) = (%.2f, %v); want (%.2f, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func record(id, category, city, price string) *models.Record {
	r := models.NewRecord()
	if id != "" {
		r.Set(models.FieldListingID, id)
	}
	r.Set(models.FieldCategory, category)
	r.Set(models.FieldCity, city)
	if price != "" {
		r.Set(models.FieldPrice, price)
	}
	return r
}

func TestCleanerDropsMissingAndDuplicateIDs(t *testing.T) {
	c := NewCleaner(utils.NewNopLogger())
	out := c.Clean([]*models.Record{
		record("4-1_2026-03-14", "RENT_FLAT", " Vilnius ", "450 €"),
		record("", "RENT_FLAT", "Vilnius", "500 €"),
		record("4-1_2026-03-14", "RENT_FLAT", "Vilnius", "999 €"),
		record("4-2_2026-03-14", "SELL_FLAT", "Kaunas", ""),
	})

	if len(out) != 2 {
		t.Fatalf("Clean returned %d summaries, want 2", len(out))
	}
	if out[0].Price != 450 {
		t.Errorf("first row price = %.2f, want 450 (duplicate must not overwrite)", out[0].Price)
	}
	if out[0].City != "Vilnius" {
		t.Errorf("city = %q, want trimmed %q", out[0].City, "Vilnius")
	}
	if out[1].Price != 0 {
		t.Errorf("unpriced row price = %.2f, want 0", out[1].Price)
	}
}
