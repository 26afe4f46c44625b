// Package features turns an attribute record into the fixed-order numeric
// vector consumed by the pricing models.
package features

import (
	"strings"

	"github.com/Ayash-Bera/carprice/backend/internal/models"
	"github.com/Ayash-Bera/carprice/backend/internal/vocab"
)

// DefaultReferenceYear is the year car age is measured against.
const DefaultReferenceYear = 2024

// Numeric feature names, in vector order.
const (
	Year                  = "year"
	PowerKW               = "power_kw"
	PowerPS               = "power_ps"
	FuelConsumptionL100km = "fuel_consumption_l_100km"
	FuelConsumptionGKm    = "fuel_consumption_g_km"
	MileageInKM           = "mileage_in_km"
	RegistrationMonth     = "registration_month"
	CarAge                = "car_age"
)

// NumericCount is the number of base and derived numeric features.
const NumericCount = 8

// Vector is an ordered name -> value mapping.
type Vector struct {
	names  []string
	values []float64
	index  map[string]int
}

func newVector(capacity int) *Vector {
	return &Vector{
		names:  make([]string, 0, capacity),
		values: make([]float64, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

func (v *Vector) set(name string, value float64) {
	if i, ok := v.index[name]; ok {
		v.values[i] = value
		return
	}
	v.index[name] = len(v.names)
	v.names = append(v.names, name)
	v.values = append(v.values, value)
}

// Len returns the number of features.
func (v *Vector) Len() int { return len(v.names) }

// Names returns the feature names in order.
func (v *Vector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Values returns the feature values in order.
func (v *Vector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Get returns the value for name and whether it exists.
func (v *Vector) Get(name string) (float64, bool) {
	i, ok := v.index[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Reindex lays the vector out in schema order. Names missing from the
// vector become 0 and names not in the schema are dropped.
func (v *Vector) Reindex(schema []string) []float64 {
	row := make([]float64, len(schema))
	for i, name := range schema {
		if j, ok := v.index[name]; ok {
			row[i] = v.values[j]
		}
	}
	return row
}

// Encode builds the feature vector for rec. Unknown categorical values leave
// every indicator of their group at 0.
func Encode(rec models.AttributeRecord, referenceYear int) *Vector {
	vocabs := vocab.Get()
	v := newVector(NumericCount + vocab.Size())

	v.set(Year, float64(rec.Year))
	v.set(PowerKW, rec.PowerKW)
	v.set(PowerPS, rec.PowerPS)
	v.set(FuelConsumptionL100km, rec.FuelConsumptionL100km)
	v.set(FuelConsumptionGKm, rec.FuelConsumptionGKm)
	v.set(MileageInKM, rec.MileageInKM)
	v.set(RegistrationMonth, float64(rec.RegistrationMonth))
	v.set(CarAge, float64(referenceYear-rec.Year))

	oneHot(v, models.FieldBrand, rec.Brand, vocabs.Brands)
	oneHot(v, models.FieldColor, rec.Color, vocabs.Colors)
	oneHot(v, models.FieldTransmissionType, rec.TransmissionType, vocabs.TransmissionTypes)
	oneHot(v, models.FieldFuelType, rec.FuelType, vocabs.FuelTypes)

	return v
}

// UnknownCategories lists the categorical fields of rec whose value matched
// no vocabulary entry.
func UnknownCategories(rec models.AttributeRecord) []string {
	vocabs := vocab.Get()
	var unknown []string
	check := func(field, value string, entries []string) {
		if !contains(entries, normalize(value)) {
			unknown = append(unknown, field)
		}
	}
	check(models.FieldBrand, rec.Brand, vocabs.Brands)
	check(models.FieldColor, rec.Color, vocabs.Colors)
	check(models.FieldTransmissionType, rec.TransmissionType, vocabs.TransmissionTypes)
	check(models.FieldFuelType, rec.FuelType, vocabs.FuelTypes)
	return unknown
}

// IndicatorName is the column name of a one-hot feature.
func IndicatorName(field, value string) string {
	return field + "_" + value
}

func oneHot(v *Vector, field, value string, entries []string) {
	value = normalize(value)
	for _, entry := range entries {
		indicator := 0.0
		if value == entry {
			indicator = 1
		}
		v.set(IndicatorName(field, entry), indicator)
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func contains(entries []string, value string) bool {
	for _, e := range entries {
		if e == value {
			return true
		}
	}
	return false
}
