package aruodas

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"listing-harvester/models"
)

// labels maps the site's Lithuanian definition-list labels to Schema fields.
var labels = map[string]models.Field{
	"Kaina mėn.":                          models.FieldPricePerMonth,
	"Kambarių sk.":                        models.FieldRooms,
	"Plotas":                              models.FieldAreaSqm,
	"Aukštas":                             models.FieldFloor,
	"Aukštų sk.":                          models.FieldFloorTotal,
	"Metai":                               models.FieldYearOfCreation,
	"Įrengimas":                           models.FieldInterior,
	"Pastato tipas":                       models.FieldBuildingType,
	"Šildymas":                            models.FieldHeating,
	"Ypatybės":                            models.FieldPeculiars,
	"Papildomos patalpos":                 models.FieldExtraSpaces,
	"Papildoma įranga":                    models.FieldExtraEquipment,
	"Apsauga":                             models.FieldSecurity,
	"Nuoroda":                             models.FieldURL,
	"Įvestas":                             models.FieldEntryDate,
	"Redaguotas":                          models.FieldRedactedDate,
	"Aktyvus iki":                         models.FieldActiveTillDate,
	"Namo numeris":                        models.FieldHouseNumber,
	"Langų orientacija":                   models.FieldWindowOrientation,
	"Įsiminė":                             models.FieldFavorited,
	"Peržiūrėjo":                          models.FieldViews,
	"Buto numeris":                        models.FieldFlatNumber,
	"Pastato energijos suvartojimo klasė": models.FieldBuildingEnergyClass,
	"Sklypo plotas":                       models.FieldPlotArea,
	"Namo tipas":                          models.FieldHouseType,
	"Vanduo":                              models.FieldWater,
	"Iki vandens telkinio (m)":            models.FieldDistanceToWater,
	"Artimiausias vandens telkinys":       models.FieldClosestWater,
}

// TranslateLabel returns the Schema field for a raw label. ok is false for
// labels the dictionary does not know. Labels are compared in NFC form.
func TranslateLabel(raw string) (field models.Field, ok bool) {
	field, ok = labels[norm.NFC.String(strings.TrimSpace(raw))]
	return field, ok
}
