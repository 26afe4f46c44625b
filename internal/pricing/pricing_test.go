package pricing

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayash-Bera/carprice/backend/internal/features"
	"github.com/Ayash-Bera/carprice/backend/internal/models"
)

type stubRegressor struct {
	out  []float64
	err  error
	rows [][]float64
}

func (s *stubRegressor) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	s.rows = rows
	return s.out, s.err
}

func (s *stubRegressor) Name() string { return "stub" }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSelectStrategy(t *testing.T) {
	assert.Equal(t, StrategyHeuristic, SelectStrategy(nil))
	assert.Equal(t, StrategyHeuristic, SelectStrategy([]string{}))
	assert.Equal(t, StrategyTrainedModel, SelectStrategy([]string{"year"}))
}

func TestHeuristicPrice_Example(t *testing.T) {
	p := NewPredictor(Config{}, quietLogger())

	est, err := p.Predict(context.Background(), models.DefaultAttributes())
	require.NoError(t, err)

	assert.Equal(t, StrategyHeuristic, est.Strategy)
	assert.Equal(t, 44915, est.Price)
	assert.Equal(t, ConfidenceHigh, est.Confidence)
	assert.InDelta(t, 10000, est.Factors["year"], 1e-9)
	assert.InDelta(t, -2500, est.Factors["mileage"], 1e-9)
	assert.InDelta(t, -6000, est.Factors["age"], 1e-9)
	assert.InDelta(t, 6300, est.Factors["power"], 1e-9)
	assert.InDelta(t, 1750, est.Factors["fuel"], 1e-9)
	assert.InDelta(t, 7500, est.Factors["brand"], 1e-9)
}

func TestHeuristicPrice_Deterministic(t *testing.T) {
	in := Inputs{Year: 2012, CarAge: 12, MileageInKM: 143000, PowerPS: 110, FuelConsumptionL100km: 7.1, Brand: "kia"}

	price1, factors1 := HeuristicPrice(in)
	price2, factors2 := HeuristicPrice(in)
	assert.Equal(t, price1, price2)
	assert.Equal(t, factors1, factors2)
}

func TestHeuristicPrice_FloorsAtZeroAndUnknownBrand(t *testing.T) {
	price, factors := HeuristicPrice(Inputs{Year: 1990, CarAge: 34, MileageInKM: 400000, PowerPS: 50, FuelConsumptionL100km: 15, Brand: "trabant"})
	assert.Equal(t, 0.0, price)
	assert.Equal(t, 0.0, factors["brand"])
	assert.Equal(t, 1.0, BrandMultiplier("trabant"))
	assert.Equal(t, 1.5, BrandMultiplier("Land-Rover"))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, Confidence(5, 50000))
	assert.Equal(t, ConfidenceMedium, Confidence(12, 50000))
	assert.Equal(t, ConfidenceMedium, Confidence(5, 250000))
	assert.Equal(t, ConfidenceLow, Confidence(16, 50000))
	assert.Equal(t, ConfidenceLow, Confidence(5, 350000))
	assert.Equal(t, ConfidenceHigh, Confidence(-6, 0))
}

func TestPredictor_TrainedModel(t *testing.T) {
	model := &stubRegressor{out: []float64{18250.4}}
	schema := []string{"year", "car_age", "brand_audi", "engine_size"}
	p := NewPredictor(Config{Schema: schema, Model: model}, quietLogger())

	est, err := p.Predict(context.Background(), models.DefaultAttributes())
	require.NoError(t, err)

	assert.Equal(t, StrategyTrainedModel, est.Strategy)
	assert.Equal(t, 18250, est.Price)
	require.Len(t, model.rows, 1)
	assert.Equal(t, []float64{2020, 4, 1, 0}, model.rows[0])
	assert.Equal(t, 0.0, est.Factors["brand"])
	assert.InDelta(t, 5000, est.Factors["year"], 1e-9)
}

func TestPredictor_NegativeModelOutputFloored(t *testing.T) {
	p := NewPredictor(Config{Schema: []string{"year"}, Model: &stubRegressor{out: []float64{-10}}}, quietLogger())

	est, err := p.Predict(context.Background(), models.DefaultAttributes())
	require.NoError(t, err)
	assert.Equal(t, 0, est.Price)
}

func TestPredictor_ModelFailureIsNotMasked(t *testing.T) {
	cause := errors.New("boom")
	p := NewPredictor(Config{Schema: []string{"year"}, Model: &stubRegressor{err: cause}}, quietLogger())

	_, err := p.Predict(context.Background(), models.DefaultAttributes())
	require.Error(t, err)

	var modelErr *ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "stub", modelErr.Model)
	assert.ErrorIs(t, err, cause)
}

func TestPredictWithModel_EmptyOutput(t *testing.T) {
	vec := features.Encode(models.DefaultAttributes(), features.DefaultReferenceYear)
	_, _, err := PredictWithModel(context.Background(), vec, []string{"year"}, &stubRegressor{}, Inputs{})
	assert.ErrorIs(t, err, errNoOutput)

	_, _, err = PredictWithModel(context.Background(), vec, []string{"year"}, nil, Inputs{})
	assert.Error(t, err)
}

func TestPredictor_HugeEstimatesAreCapped(t *testing.T) {
	rec, err := models.ParseAttributes(map[string]interface{}{"power_ps": 1e20})
	require.NoError(t, err)

	est, err := NewPredictor(Config{}, quietLogger()).Predict(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, MaxPrice, est.Price)

	p := NewPredictor(Config{Schema: []string{"year"}, Model: &stubRegressor{out: []float64{1e300}}}, quietLogger())
	est, err = p.Predict(context.Background(), models.DefaultAttributes())
	require.NoError(t, err)
	assert.Equal(t, MaxPrice, est.Price)
	assert.GreaterOrEqual(t, est.Price, 0)
}
