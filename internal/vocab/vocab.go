// Package vocab holds the categorical values the pricing pipeline knows about.
package vocab

var (
	brands = []string{"audi", "bmw", "ford", "hyundai", "kia", "fiat", "citroen", "dacia", "land-rover", "mazda"}
	colors = []string{"black", "grey", "white", "blue", "silver", "red", "brown", "green", "orange", "yellow"}

	transmissionTypes = []string{"manual", "automatic", "semi-automatic"}
	fuelTypes         = []string{"petrol", "diesel", "electric", "hybrid", "lpg", "ethanol", "hydrogen", "other", "unknown"}
)

// Vocabularies lists the valid values per categorical field, in encoding order.
type Vocabularies struct {
	Brands            []string `json:"brands"`
	Colors            []string `json:"colors"`
	TransmissionTypes []string `json:"transmission_types"`
	FuelTypes         []string `json:"fuel_types"`
}

// Get returns a fresh copy of the registry.
func Get() Vocabularies {
	return Vocabularies{
		Brands:            clone(brands),
		Colors:            clone(colors),
		TransmissionTypes: clone(transmissionTypes),
		FuelTypes:         clone(fuelTypes),
	}
}

// Size is the number of one-hot indicators produced across all fields.
func Size() int {
	return len(brands) + len(colors) + len(transmissionTypes) + len(fuelTypes)
}

func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
