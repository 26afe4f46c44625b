package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Attribute field names as they appear in request bodies.
const (
	FieldYear                  = "year"
	FieldPowerKW               = "power_kw"
	FieldPowerPS               = "power_ps"
	FieldFuelConsumptionL100km = "fuel_consumption_l_100km"
	FieldFuelConsumptionGKm    = "fuel_consumption_g_km"
	FieldMileageInKM           = "mileage_in_km"
	FieldRegistrationMonth     = "registration_month"
	FieldBrand                 = "brand"
	FieldColor                 = "color"
	FieldTransmissionType      = "transmission_type"
	FieldFuelType              = "fuel_type"
)

// ErrInvalidBody is returned when a request body is not a JSON object.
var ErrInvalidBody = errors.New("request body must be a JSON object")

// ConversionError reports a numeric attribute that could not be coerced.
type ConversionError struct {
	Field string
	Value interface{}
	Kind  string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("invalid %s: could not convert %v to %s", e.Field, describe(e.Value), e.Kind)
}

// AttributeRecord is a vehicle description with defaults applied.
type AttributeRecord struct {
	Year                  int     `json:"year"`
	PowerKW               float64 `json:"power_kw"`
	PowerPS               float64 `json:"power_ps"`
	FuelConsumptionL100km float64 `json:"fuel_consumption_l_100km"`
	FuelConsumptionGKm    float64 `json:"fuel_consumption_g_km"`
	MileageInKM           float64 `json:"mileage_in_km"`
	RegistrationMonth     int     `json:"registration_month"`
	Brand                 string  `json:"brand"`
	Color                 string  `json:"color"`
	TransmissionType      string  `json:"transmission_type"`
	FuelType              string  `json:"fuel_type"`

	// provided records which fields the caller actually sent.
	provided map[string]bool
}

// DefaultAttributes returns the record used when a request carries no fields.
func DefaultAttributes() AttributeRecord {
	return AttributeRecord{
		Year:                  2020,
		PowerKW:               120,
		PowerPS:               163,
		FuelConsumptionL100km: 6.5,
		FuelConsumptionGKm:    120,
		MileageInKM:           50000,
		RegistrationMonth:     6,
		Brand:                 "audi",
		Color:                 "black",
		TransmissionType:      "manual",
		FuelType:              "petrol",
	}
}

// Has reports whether the caller supplied the given field.
func (r AttributeRecord) Has(field string) bool {
	return r.provided[field]
}

// ParseAttributes applies defaults and coerces the raw request fields.
// Numeric fields fail with *ConversionError; categorical fields never fail.
// A JSON null counts as a missing field.
func ParseAttributes(raw map[string]interface{}) (AttributeRecord, error) {
	rec := DefaultAttributes()
	rec.provided = make(map[string]bool)

	floats := []struct {
		field string
		dst   *float64
	}{
		{FieldPowerKW, &rec.PowerKW},
		{FieldPowerPS, &rec.PowerPS},
		{FieldFuelConsumptionL100km, &rec.FuelConsumptionL100km},
		{FieldFuelConsumptionGKm, &rec.FuelConsumptionGKm},
		{FieldMileageInKM, &rec.MileageInKM},
	}
	ints := []struct {
		field string
		dst   *int
	}{
		{FieldYear, &rec.Year},
		{FieldRegistrationMonth, &rec.RegistrationMonth},
	}
	strs := []struct {
		field string
		dst   *string
	}{
		{FieldBrand, &rec.Brand},
		{FieldColor, &rec.Color},
		{FieldTransmissionType, &rec.TransmissionType},
		{FieldFuelType, &rec.FuelType},
	}

	for _, f := range ints {
		v, ok := raw[f.field]
		if !ok || v == nil {
			continue
		}
		n, err := ToInt(f.field, v)
		if err != nil {
			return AttributeRecord{}, err
		}
		*f.dst = n
		rec.provided[f.field] = true
	}

	for _, f := range floats {
		v, ok := raw[f.field]
		if !ok || v == nil {
			continue
		}
		n, err := ToFloat(f.field, v)
		if err != nil {
			return AttributeRecord{}, err
		}
		*f.dst = n
		rec.provided[f.field] = true
	}

	for _, f := range strs {
		v, ok := raw[f.field]
		if !ok || v == nil {
			continue
		}
		*f.dst = normalizeCategory(v)
		rec.provided[f.field] = true
	}

	return rec, nil
}

// ToFloat coerces a decoded JSON value to a finite float64.
func ToFloat(field string, v interface{}) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, &ConversionError{Field: field, Value: v, Kind: "float"}
		}
		f = parsed
	default:
		return 0, &ConversionError{Field: field, Value: v, Kind: "float"}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ConversionError{Field: field, Value: v, Kind: "float"}
	}
	return f, nil
}

// ToInt coerces a decoded JSON value to an int, truncating fractional numbers.
// Numeric strings such as "2020.0" are parsed as floats first.
func ToInt(field string, v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	}

	f, err := ToFloat(field, v)
	if err != nil {
		return 0, &ConversionError{Field: field, Value: v, Kind: "int"}
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, &ConversionError{Field: field, Value: v, Kind: "int"}
	}
	return int(math.Trunc(f)), nil
}

func normalizeCategory(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return strings.ToLower(strings.TrimSpace(s))
}

func describe(v interface{}) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v (%T)", v, v)
}
