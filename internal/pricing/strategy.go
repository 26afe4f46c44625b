// Package pricing estimates car prices, either from a trained model or from
// a closed-form heuristic when no model schema is available.
package pricing

import (
	"github.com/Ayash-Bera/carprice/backend/internal/features"
	"github.com/Ayash-Bera/carprice/backend/internal/models"
)

// Strategy names the prediction path.
type Strategy string

const (
	StrategyHeuristic    Strategy = "heuristic"
	StrategyTrainedModel Strategy = "trained_model"
)

// SelectStrategy picks the trained model iff a non-empty schema is known.
func SelectStrategy(schema []string) Strategy {
	if len(schema) > 0 {
		return StrategyTrainedModel
	}
	return StrategyHeuristic
}

// Factors maps an explanatory factor to its signed contribution. Values are
// illustrative and need not sum to the price.
type Factors map[string]float64

// Inputs are the fields both pricing formulas read.
type Inputs struct {
	Year                  float64
	CarAge                float64
	MileageInKM           float64
	PowerPS               float64
	FuelConsumptionL100km float64
	Brand                 string
}

// InputsFrom reads the formula inputs from an encoded vector.
func InputsFrom(rec models.AttributeRecord, vec *features.Vector) Inputs {
	get := func(name string) float64 {
		value, _ := vec.Get(name)
		return value
	}
	return Inputs{
		Year:                  get(features.Year),
		CarAge:                get(features.CarAge),
		MileageInKM:           get(features.MileageInKM),
		PowerPS:               get(features.PowerPS),
		FuelConsumptionL100km: get(features.FuelConsumptionL100km),
		Brand:                 rec.Brand,
	}
}
