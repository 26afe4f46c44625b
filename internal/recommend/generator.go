// Package recommend produces similar-car listings around a target price.
//
// Listings are sampled, not looked up: attributes the caller supplied are
// echoed and the rest are drawn from the vocabulary and fixed ranges.
package recommend

import (
	"fmt"
	"math"
	"math/rand/v2"
	"net/url"
	"sort"
	"time"

	"github.com/Ayash-Bera/carprice/backend/internal/models"
	"github.com/Ayash-Bera/carprice/backend/internal/vocab"
)

const (
	DefaultCount = 8
	MaxCount     = 50
	DefaultSeed  = 42

	minPrice        = 1500
	maxTarget       = math.MaxInt32 - priceSpread
	priceSpread     = 4000
	scorePerEuro    = 80.0
	yearMin         = 2010
	yearMax         = 2024
	powerPSMin      = 80
	powerPSMax      = 300
	mileageMin      = 10000
	mileageMax      = 180000
	thumbnailFormat = "https://placehold.co/320x200?text=%s"
)

// SourceFactory hands out the random source for one request.
type SourceFactory func() *rand.Rand

// FixedSeed returns a factory whose sources all start from seed, so equal
// requests get equal recommendations.
func FixedSeed(seed uint64) SourceFactory {
	return func() *rand.Rand {
		return rand.New(rand.NewPCG(seed, seed))
	}
}

// TimeSeeded returns a factory seeded from the clock on every call.
func TimeSeeded() SourceFactory {
	return func() *rand.Rand {
		now := uint64(time.Now().UnixNano())
		return rand.New(rand.NewPCG(now, now>>1))
	}
}

// Generator builds recommendation lists.
type Generator struct {
	vocabs vocab.Vocabularies
}

func NewGenerator() *Generator {
	return &Generator{vocabs: vocab.Get()}
}

// Recommend returns count items ordered by match score, best first. Ties are
// broken by closeness to target. Targets outside [0, MaxInt32-4000] are
// clamped so sampled prices never overflow.
func (g *Generator) Recommend(attrs models.AttributeRecord, target float64, count int, rng *rand.Rand) []models.RecommendationItem {
	if count <= 0 {
		count = DefaultCount
	}
	target = math.Min(math.Max(target, 0), maxTarget)

	items := make([]models.RecommendationItem, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, g.sample(i+1, attrs, target, rng))
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].MatchScore != items[j].MatchScore {
			return items[i].MatchScore > items[j].MatchScore
		}
		return math.Abs(float64(items[i].PriceInEuro)-target) < math.Abs(float64(items[j].PriceInEuro)-target)
	})

	return items
}

func (g *Generator) sample(id int, attrs models.AttributeRecord, target float64, rng *rand.Rand) models.RecommendationItem {
	offset := rng.IntN(2*priceSpread) - priceSpread
	price := int(math.Round(target)) + offset
	if price < minPrice {
		price = minPrice
	}
	delta := float64(price) - target

	item := models.RecommendationItem{
		ID:               id,
		Brand:            pick(attrs.Has(models.FieldBrand), attrs.Brand, g.vocabs.Brands, rng),
		Color:            pick(attrs.Has(models.FieldColor), attrs.Color, g.vocabs.Colors, rng),
		TransmissionType: pick(attrs.Has(models.FieldTransmissionType), attrs.TransmissionType, g.vocabs.TransmissionTypes, rng),
		FuelType:         pick(attrs.Has(models.FieldFuelType), attrs.FuelType, g.vocabs.FuelTypes, rng),
		Year:             attrs.Year,
		PowerPS:          attrs.PowerPS,
		MileageInKM:      attrs.MileageInKM,
		PriceInEuro:      price,
		MatchScore:       math.Max(0, 100-math.Abs(delta)/scorePerEuro),
	}
	if !attrs.Has(models.FieldYear) {
		item.Year = yearMin + rng.IntN(yearMax-yearMin)
	}
	if !attrs.Has(models.FieldPowerPS) {
		item.PowerPS = float64(powerPSMin + rng.IntN(powerPSMax-powerPSMin))
	}
	if !attrs.Has(models.FieldMileageInKM) {
		item.MileageInKM = float64(mileageMin + rng.IntN(mileageMax-mileageMin))
	}
	item.Thumbnail = thumbnail(item)

	return item
}

func pick(provided bool, value string, entries []string, rng *rand.Rand) string {
	if provided {
		return value
	}
	return entries[rng.IntN(len(entries))]
}

func thumbnail(item models.RecommendationItem) string {
	return fmt.Sprintf(thumbnailFormat, url.QueryEscape(fmt.Sprintf("%s %d", item.Brand, item.Year)))
}
