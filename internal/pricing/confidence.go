package pricing

// Confidence labels.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Confidence grades an estimate by car age and mileage. The Low check does
// not depend on the Medium check having fired.
func Confidence(carAge, mileageInKM float64) string {
	confidence := ConfidenceHigh
	if carAge > 10 || mileageInKM > 200000 {
		confidence = ConfidenceMedium
	}
	if carAge > 15 || mileageInKM > 300000 {
		confidence = ConfidenceLow
	}
	return confidence
}
