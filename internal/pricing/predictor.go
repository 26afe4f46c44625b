package pricing

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/carprice/backend/internal/features"
	"github.com/Ayash-Bera/carprice/backend/internal/models"
)

// MaxPrice caps every estimate so it always fits an int.
const MaxPrice = math.MaxInt32

// Estimate is the outcome of one prediction.
type Estimate struct {
	Price      int
	Confidence string
	Factors    Factors
	Strategy   Strategy
	Vector     *features.Vector
}

// Config carries the immutable inputs loaded at startup.
type Config struct {
	Schema        []string
	Model         Regressor
	ReferenceYear int
}

// Predictor routes requests to the strategy chosen at construction time.
type Predictor struct {
	schema        []string
	model         Regressor
	strategy      Strategy
	referenceYear int
	logger        *logrus.Logger
}

func NewPredictor(cfg Config, logger *logrus.Logger) *Predictor {
	if cfg.ReferenceYear == 0 {
		cfg.ReferenceYear = features.DefaultReferenceYear
	}
	schema := make([]string, len(cfg.Schema))
	copy(schema, cfg.Schema)

	p := &Predictor{
		schema:        schema,
		model:         cfg.Model,
		strategy:      SelectStrategy(schema),
		referenceYear: cfg.ReferenceYear,
		logger:        logger,
	}

	fields := logrus.Fields{
		"strategy":       p.strategy,
		"schema_columns": len(schema),
		"reference_year": p.referenceYear,
	}
	if cfg.Model != nil {
		fields["model"] = cfg.Model.Name()
	}
	logger.WithFields(fields).Info("Price predictor initialized")

	return p
}

// Strategy returns the strategy every request uses.
func (p *Predictor) Strategy() Strategy { return p.strategy }

// ReferenceYear returns the year car age is measured against.
func (p *Predictor) ReferenceYear() int { return p.referenceYear }

// Encode builds the feature vector for rec.
func (p *Predictor) Encode(rec models.AttributeRecord) *features.Vector {
	return features.Encode(rec, p.referenceYear)
}

// Predict estimates the price of rec. A failing model is reported as
// *ModelError; there is no fallback to the heuristic.
func (p *Predictor) Predict(ctx context.Context, rec models.AttributeRecord) (Estimate, error) {
	vec := p.Encode(rec)
	in := InputsFrom(rec, vec)

	var (
		price   float64
		factors Factors
		err     error
	)
	switch p.strategy {
	case StrategyTrainedModel:
		price, factors, err = PredictWithModel(ctx, vec, p.schema, p.model, in)
		if err != nil {
			return Estimate{}, err
		}
	default:
		price, factors = HeuristicPrice(in)
	}

	return Estimate{
		Price:      roundPrice(price),
		Confidence: Confidence(in.CarAge, in.MileageInKM),
		Factors:    factors,
		Strategy:   p.strategy,
		Vector:     vec,
	}, nil
}

// roundPrice rounds half to even and clamps to [0, MaxPrice].
func roundPrice(price float64) int {
	return int(math.RoundToEven(math.Min(math.Max(price, 0), MaxPrice)))
}
