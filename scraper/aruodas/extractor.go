package aruodas

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"listing-harvester/models"
)

// Extraction is the outcome of parsing one detail page.
type Extraction struct {
	Record *models.Record
	// Unrecognized holds definition-list labels that have no Schema field.
	Unrecognized []string
}

// Extractor turns a detail page into a listing Record.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract parses body. Missing elements leave their fields absent; an
// unknown label is reported in Unrecognized and never fails the record.
// An error is returned only if the document cannot be parsed at all.
func (e *Extractor) Extract(body string) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	rec := models.NewRecord()
	out := &Extraction{Record: rec}

	headings := doc.Find(headingSelector)
	// Promotional layouts render an extra heading first.
	if headings.Length() > 1 {
		headings = headings.Eq(1)
	}
	if headings.Length() > 0 {
		setLocation(rec, text(headings.First()))
	}

	if price := doc.Find(priceSelector).First(); price.Length() > 0 {
		rec.Set(models.FieldPrice, text(price))
	}

	doc.Find(labelSelector).Each(func(_ int, dt *goquery.Selection) {
		label := text(dt)
		field, ok := TranslateLabel(label)
		if !ok {
			out.Unrecognized = append(out.Unrecognized, label)
			return
		}
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() == 0 {
			return
		}
		if field.IsMultiValued() {
			var parts []string
			dd.Find("span").Each(func(_ int, s *goquery.Selection) {
				parts = append(parts, text(s))
			})
			rec.Set(field, strings.Join(parts, models.MultiValueSeparator))
			return
		}
		rec.Set(field, text(dd))
	})

	return out, nil
}

// setLocation splits "city, district, street" headings.
func setLocation(rec *models.Record, heading string) {
	parts := strings.Split(heading, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch len(parts) {
	case 3:
		rec.Set(models.FieldCity, parts[0])
		rec.Set(models.FieldDistrict, parts[1])
		rec.Set(models.FieldStreet, parts[2])
	case 2:
		rec.Set(models.FieldCity, parts[0])
		rec.Set(models.FieldStreet, parts[1])
	}
}

// text returns the whitespace-collapsed text of s.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
