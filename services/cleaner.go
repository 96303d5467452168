package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"listing-harvester/models"
	"listing-harvester/utils"
)

// priceRegexp captures the first number, allowing a comma or dot decimal.
var priceRegexp = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Cleaner turns stored schema-on-read records into typed summaries.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean converts records to summaries, dropping rows without a listing_id
// and keeping only the first row seen for each listing_id.
func (c *Cleaner) Clean(records []*models.Record) []*models.ListingSummary {
	seen := make(map[string]struct{})
	result := make([]*models.ListingSummary, 0, len(records))

	for _, r := range records {
		id, _ := r.Get(models.FieldListingID)
		if id == "" {
			c.logger.Debug("dropping record without listing_id")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		raw, _ := r.Get(models.FieldPrice)
		price, _ := ParsePrice(raw)
		result = append(result, &models.ListingSummary{
			ListingID: id,
			Category:  field(r, models.FieldCategory),
			City:      field(r, models.FieldCity),
			District:  field(r, models.FieldDistrict),
			Street:    field(r, models.FieldStreet),
			RawPrice:  normaliseText(raw),
			Price:     price,
			URL:       field(r, models.FieldURL),
		})
	}

	c.logger.Info("cleaned records",
		zap.Int("in", len(records)),
		zap.Int("out", len(result)),
		zap.Int("dropped", len(records)-len(result)))
	return result
}

// ParsePrice reads an amount such as "1 250 €" or "85 000 € (1 308 €/m²)".
// Digit-group spaces are ignored; only the first amount is used.
func ParsePrice(raw string) (float64, bool) {
	raw = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	match := priceRegexp.FindString(raw)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func field(r *models.Record, f models.Field) string {
	v, _ := r.Get(f)
	return normaliseText(v)
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
