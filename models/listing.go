package models

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Field names one column of the listing Schema.
type Field string

const (
	FieldListingID           Field = "listing_id"
	FieldTaskID              Field = "task_id"
	FieldCategory            Field = "category"
	FieldExtDate             Field = "ext_date"
	FieldCity                Field = "city"
	FieldDistrict            Field = "district"
	FieldStreet              Field = "street"
	FieldPrice               Field = "price"
	FieldPricePerMonth       Field = "price_per_month"
	FieldHouseNumber         Field = "house_number"
	FieldFlatNumber          Field = "flat_number"
	FieldRooms               Field = "rooms"
	FieldAreaSqm             Field = "area_sqm"
	FieldPlotArea            Field = "plot_area"
	FieldFloor               Field = "floor"
	FieldFloorTotal          Field = "floor_total"
	FieldYearOfCreation      Field = "year_of_creation"
	FieldInterior            Field = "interior"
	FieldBuildingType        Field = "building_type"
	FieldHouseType           Field = "house_type"
	FieldHeating             Field = "heating"
	FieldPeculiars           Field = "peculiars"
	FieldExtraSpaces         Field = "extra_spaces"
	FieldExtraEquipment      Field = "extra_equipment"
	FieldSecurity            Field = "security"
	FieldWindowOrientation   Field = "window_orientation"
	FieldBuildingEnergyClass Field = "building_energy_class"
	FieldURL                 Field = "url"
	FieldEntryDate           Field = "entry_date"
	FieldRedactedDate        Field = "redacted_date"
	FieldActiveTillDate      Field = "active_till_date"
	FieldFavorited           Field = "favorited"
	FieldViews               Field = "views"
	FieldWater               Field = "water"
	FieldDistanceToWater     Field = "distance_to_water"
	FieldClosestWater        Field = "closest_water"
)

// Schema is the fixed column order shared by listings_stg and listings.
var Schema = []Field{
	FieldListingID, FieldTaskID, FieldCategory, FieldExtDate,
	FieldCity, FieldDistrict, FieldStreet, FieldPrice, FieldPricePerMonth,
	FieldHouseNumber, FieldFlatNumber, FieldRooms, FieldAreaSqm, FieldPlotArea,
	FieldFloor, FieldFloorTotal, FieldYearOfCreation, FieldInterior,
	FieldBuildingType, FieldHouseType, FieldHeating, FieldPeculiars,
	FieldExtraSpaces, FieldExtraEquipment, FieldSecurity,
	FieldWindowOrientation, FieldBuildingEnergyClass, FieldURL,
	FieldEntryDate, FieldRedactedDate, FieldActiveTillDate,
	FieldFavorited, FieldViews, FieldWater, FieldDistanceToWater, FieldClosestWater,
}

// multiValued fields are stored as the ';'-joined text of every sub-element.
var multiValued = map[Field]struct{}{
	FieldPeculiars:         {},
	FieldExtraSpaces:       {},
	FieldExtraEquipment:    {},
	FieldWindowOrientation: {},
}

// MultiValueSeparator joins the parts of a multi-valued field.
const MultiValueSeparator = ";"

// IsMultiValued reports whether f is serialized as a delimited list.
func (f Field) IsMultiValued() bool {
	_, ok := multiValued[f]
	return ok
}

// Record is one extracted listing. A field that was never set is absent,
// which is distinct from a field set to the empty string.
type Record struct {
	values map[Field]string
}

// NewRecord returns a record with every Schema field absent.
func NewRecord() *Record {
	return &Record{values: make(map[Field]string)}
}

// Set stores v for f.
func (r *Record) Set(f Field, v string) {
	r.values[f] = v
}

// Get returns the value of f and whether it is present.
func (r *Record) Get(f Field) (string, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Has reports whether f is present.
func (r *Record) Has(f Field) bool {
	_, ok := r.values[f]
	return ok
}

// Unset makes f absent again.
func (r *Record) Unset(f Field) {
	delete(r.values, f)
}

// Len returns the number of present fields.
func (r *Record) Len() int {
	return len(r.values)
}

// Values returns the record in Schema order; absent fields are nil.
func (r *Record) Values() []any {
	out := make([]any, len(Schema))
	for i, f := range Schema {
		if v, ok := r.values[f]; ok {
			out[i] = v
		}
	}
	return out
}

var listingCodeRegexp = regexp.MustCompile(`(\d+-\d+)/?$`)

// ListingCode returns the stable per-listing code embedded in a listing URL.
// Both the short permalink form ("www.aruodas.lt/4-1432650") and the long
// slug form (".../butu-nuoma-vilniuje-...-4-1432650/") yield "4-1432650".
func ListingCode(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		path = u.Path
	} else if i := strings.Index(rawURL, "/"); i >= 0 {
		path = rawURL[i:]
	}
	path = strings.SplitN(path, "?", 2)[0]
	path = strings.SplitN(path, "#", 2)[0]

	if m := listingCodeRegexp.FindStringSubmatch(path); len(m) == 2 {
		return m[1]
	}
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// ListingID derives the unique identifier "{listing-code}_{YYYY-MM-DD}".
// The same URL on the same calendar date always yields the same identifier.
func ListingID(rawURL string, date time.Time) string {
	code := ListingCode(rawURL)
	if code == "" {
		return ""
	}
	return code + "_" + date.Format(time.DateOnly)
}
