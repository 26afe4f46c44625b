package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Ayash-Bera/carprice/backend/internal/features"
)

// Regressor is a trained model producing one prediction per input row.
type Regressor interface {
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
	Name() string
}

// ModelError wraps a failed model invocation.
type ModelError struct {
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s prediction failed: %v", e.Model, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

var errNoOutput = errors.New("model returned no predictions")

// PredictWithModel reindexes vec to schema and runs model on the single row.
func PredictWithModel(ctx context.Context, vec *features.Vector, schema []string, model Regressor, in Inputs) (float64, Factors, error) {
	if model == nil {
		return 0, nil, &ModelError{Model: "none", Err: errors.New("no model loaded")}
	}

	row := vec.Reindex(schema)
	preds, err := model.Predict(ctx, [][]float64{row})
	if err != nil {
		return 0, nil, &ModelError{Model: model.Name(), Err: err}
	}
	if len(preds) == 0 {
		return 0, nil, &ModelError{Model: model.Name(), Err: errNoOutput}
	}
	if math.IsNaN(preds[0]) || math.IsInf(preds[0], 0) {
		return 0, nil, &ModelError{Model: model.Name(), Err: fmt.Errorf("non-finite prediction %v", preds[0])}
	}

	return math.Max(0, preds[0]), approximateFactors(in), nil
}

// approximateFactors is an illustrative linear breakdown for tree models,
// which expose no additive coefficients. It is not derived from the model.
func approximateFactors(in Inputs) Factors {
	return Factors{
		"year":    (in.Year - 2015) * 1000,
		"mileage": -(in.MileageInKM / 1000) * 20,
		"age":     -(in.CarAge * 500),
		"power":   (in.PowerPS - 100) * 40,
		"fuel":    (10 - in.FuelConsumptionL100km) * 200,
		"brand":   0,
	}
}
