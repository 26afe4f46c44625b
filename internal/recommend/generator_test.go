package recommend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayash-Bera/carprice/backend/internal/models"
	"github.com/Ayash-Bera/carprice/backend/internal/vocab"
)

func parse(t *testing.T, raw map[string]interface{}) models.AttributeRecord {
	t.Helper()
	rec, err := models.ParseAttributes(raw)
	require.NoError(t, err)
	return rec
}

func TestRecommend_Reproducible(t *testing.T) {
	g := NewGenerator()
	attrs := parse(t, map[string]interface{}{"brand": "bmw"})
	sources := FixedSeed(DefaultSeed)

	first := g.Recommend(attrs, 30000, DefaultCount, sources())
	second := g.Recommend(attrs, 30000, DefaultCount, sources())

	assert.Equal(t, first, second)
}

func TestRecommend_CountAndPriceFloor(t *testing.T) {
	g := NewGenerator()
	attrs := parse(t, map[string]interface{}{})

	for _, count := range []int{1, 8, 25} {
		items := g.Recommend(attrs, 500, count, FixedSeed(7)())
		require.Len(t, items, count)
		for _, item := range items {
			assert.GreaterOrEqual(t, item.PriceInEuro, 1500)
		}
	}

	assert.Len(t, g.Recommend(attrs, 20000, 0, FixedSeed(1)()), DefaultCount)
}

func TestRecommend_OrderingAndScores(t *testing.T) {
	g := NewGenerator()
	target := 25000.0
	items := g.Recommend(parse(t, map[string]interface{}{}), target, 30, FixedSeed(3)())

	for i, item := range items {
		delta := math.Abs(float64(item.PriceInEuro) - target)
		assert.LessOrEqual(t, delta, 4000.0)
		assert.InDelta(t, math.Max(0, 100-delta/80), item.MatchScore, 1e-9)
		if i > 0 {
			prev := items[i-1]
			assert.GreaterOrEqual(t, prev.MatchScore, item.MatchScore)
			if prev.MatchScore == item.MatchScore {
				assert.LessOrEqual(t, math.Abs(float64(prev.PriceInEuro)-target), delta)
			}
		}
	}
}

func TestRecommend_EchoesProvidedAndSamplesMissing(t *testing.T) {
	g := NewGenerator()
	attrs := parse(t, map[string]interface{}{
		"brand":         "Mazda",
		"year":          2019,
		"mileage_in_km": 42000,
	})
	v := vocab.Get()

	ids := map[int]bool{}
	for _, item := range g.Recommend(attrs, 18000, 12, FixedSeed(11)()) {
		ids[item.ID] = true
		assert.Equal(t, "mazda", item.Brand)
		assert.Equal(t, 2019, item.Year)
		assert.Equal(t, 42000.0, item.MileageInKM)

		assert.Contains(t, v.Colors, item.Color)
		assert.Contains(t, v.TransmissionTypes, item.TransmissionType)
		assert.Contains(t, v.FuelTypes, item.FuelType)
		assert.GreaterOrEqual(t, item.PowerPS, 80.0)
		assert.Less(t, item.PowerPS, 300.0)
		assert.Contains(t, item.Thumbnail, "mazda")
	}
	assert.Len(t, ids, 12)
	for id := 1; id <= 12; id++ {
		assert.True(t, ids[id])
	}
}

func TestRecommend_SampledRanges(t *testing.T) {
	g := NewGenerator()
	for _, item := range g.Recommend(parse(t, map[string]interface{}{}), 20000, 40, FixedSeed(5)()) {
		assert.GreaterOrEqual(t, item.Year, 2010)
		assert.Less(t, item.Year, 2024)
		assert.GreaterOrEqual(t, item.MileageInKM, 10000.0)
		assert.Less(t, item.MileageInKM, 180000.0)
	}
}

func TestRecommend_ExtremeTargetsStayInRange(t *testing.T) {
	g := NewGenerator()
	attrs := parse(t, map[string]interface{}{})

	for _, target := range []float64{1e19, -1e19} {
		for _, item := range g.Recommend(attrs, target, DefaultCount, FixedSeed(DefaultSeed)()) {
			assert.GreaterOrEqual(t, item.PriceInEuro, 1500)
			assert.LessOrEqual(t, item.PriceInEuro, math.MaxInt32)
		}
	}
}
