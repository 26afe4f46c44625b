package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributes_Defaults(t *testing.T) {
	rec, err := ParseAttributes(map[string]interface{}{})
	require.NoError(t, err)

	def := DefaultAttributes()
	assert.Equal(t, def.Year, rec.Year)
	assert.Equal(t, def.PowerPS, rec.PowerPS)
	assert.Equal(t, "audi", rec.Brand)
	assert.Equal(t, "petrol", rec.FuelType)
	assert.False(t, rec.Has(FieldBrand))
	assert.False(t, rec.Has(FieldYear))
}

func TestParseAttributes_CoercesNumbersAndStrings(t *testing.T) {
	rec, err := ParseAttributes(map[string]interface{}{
		"year":               "2018",
		"power_ps":           " 150.5 ",
		"mileage_in_km":      float64(120000),
		"registration_month": 3.9,
		"brand":              "  BMW ",
		"color":              nil,
	})
	require.NoError(t, err)

	assert.Equal(t, 2018, rec.Year)
	assert.Equal(t, 150.5, rec.PowerPS)
	assert.Equal(t, 120000.0, rec.MileageInKM)
	assert.Equal(t, 3, rec.RegistrationMonth)
	assert.Equal(t, "bmw", rec.Brand)
	assert.Equal(t, "black", rec.Color)
	assert.True(t, rec.Has(FieldBrand))
	assert.False(t, rec.Has(FieldColor))
}

func TestParseAttributes_ConversionErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]interface{}
		field string
	}{
		{"non-numeric year", map[string]interface{}{"year": "abc"}, FieldYear},
		{"bool mileage", map[string]interface{}{"mileage_in_km": true}, FieldMileageInKM},
		{"object power", map[string]interface{}{"power_kw": map[string]interface{}{}}, FieldPowerKW},
		{"nan consumption", map[string]interface{}{"fuel_consumption_l_100km": "NaN"}, FieldFuelConsumptionL100km},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAttributes(tt.raw)
			require.Error(t, err)

			var convErr *ConversionError
			require.True(t, errors.As(err, &convErr))
			assert.Equal(t, tt.field, convErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestParseAttributes_FloatStringsTruncateForIntFields(t *testing.T) {
	rec, err := ParseAttributes(map[string]interface{}{"year": "2020.0", "registration_month": " 7.9 "})
	require.NoError(t, err)
	assert.Equal(t, 2020, rec.Year)
	assert.Equal(t, 7, rec.RegistrationMonth)

	n, err := ToInt(FieldYear, "2020.5")
	require.NoError(t, err)
	assert.Equal(t, 2020, n)
}

func TestParseAttributes_CategoricalNeverFails(t *testing.T) {
	rec, err := ParseAttributes(map[string]interface{}{
		"brand":     42.0,
		"fuel_type": "Steam",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", rec.Brand)
	assert.Equal(t, "steam", rec.FuelType)
}

func TestStringArray_RoundTrip(t *testing.T) {
	value, err := StringArray{"brand", "color"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{brand,color}", value)

	var s StringArray
	require.NoError(t, s.Scan([]byte("{brand,color}")))
	assert.Equal(t, StringArray{"brand", "color"}, s)

	require.NoError(t, s.Scan("{}"))
	assert.Empty(t, s)
}

func TestPredictionLog_Validate(t *testing.T) {
	log := &PredictionLog{Strategy: "heuristic", Confidence: "High", PredictedPrice: 100}
	assert.NoError(t, log.Validate())

	log.Strategy = "guess"
	assert.Error(t, log.Validate())
}
