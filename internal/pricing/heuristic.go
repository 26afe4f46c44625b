package pricing

import (
	"math"
	"strings"
)

const heuristicBasePrice = 25000

var brandMultipliers = map[string]float64{
	"audi":       1.3,
	"bmw":        1.4,
	"ford":       0.8,
	"hyundai":    0.7,
	"kia":        0.6,
	"fiat":       0.5,
	"citroen":    0.6,
	"dacia":      0.4,
	"land-rover": 1.5,
	"mazda":      0.9,
}

// BrandMultiplier returns the heuristic price multiplier, 1.0 for unknown brands.
func BrandMultiplier(brand string) float64 {
	if m, ok := brandMultipliers[strings.ToLower(strings.TrimSpace(brand))]; ok {
		return m
	}
	return 1.0
}

// HeuristicPrice is the additive fallback formula scaled by a brand multiplier.
func HeuristicPrice(in Inputs) (float64, Factors) {
	yearFactor := (in.Year - 2015) * 2000
	mileageFactor := -(in.MileageInKM / 1000) * 50
	ageFactor := -(in.CarAge * 1500)
	powerFactor := (in.PowerPS - 100) * 100
	fuelFactor := (10 - in.FuelConsumptionL100km) * 500
	brandMult := BrandMultiplier(in.Brand)

	sum := heuristicBasePrice + yearFactor + mileageFactor + ageFactor + powerFactor + fuelFactor
	price := math.Max(0, sum*brandMult)

	return price, Factors{
		"year":    yearFactor,
		"mileage": mileageFactor,
		"age":     ageFactor,
		"power":   powerFactor,
		"fuel":    fuelFactor,
		"brand":   (brandMult - 1) * heuristicBasePrice,
	}
}
