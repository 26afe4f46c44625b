package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/carprice/backend/internal/database"
	"github.com/Ayash-Bera/carprice/backend/internal/features"
	"github.com/Ayash-Bera/carprice/backend/internal/metrics"
	"github.com/Ayash-Bera/carprice/backend/internal/models"
	"github.com/Ayash-Bera/carprice/backend/internal/pricing"
	"github.com/Ayash-Bera/carprice/backend/internal/recommend"
	"github.com/Ayash-Bera/carprice/backend/internal/vocab"
	"github.com/Ayash-Bera/carprice/backend/pkg/utils"
)

const (
	fieldCount          = "count"
	fieldPredictedPrice = "predicted_price"

	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

// ErrAnalyticsDisabled is returned by read endpoints that need Postgres.
var ErrAnalyticsDisabled = errors.New("prediction analytics are not configured")

// EstimateCache is the subset of database.Cache used here.
type EstimateCache interface {
	CacheEstimate(ctx context.Context, fingerprint string, resp models.PredictResponse, expiration time.Duration) error
	GetCachedEstimate(ctx context.Context, fingerprint string) (*models.PredictResponse, error)
}

// Options carries the optional collaborators. Nil fields are disabled.
type Options struct {
	Cache    EstimateCache
	CacheTTL time.Duration
	Logs     models.PredictionLogRepository
	Sources  recommend.SourceFactory
}

// RequestMeta identifies the caller for analytics.
type RequestMeta struct {
	RequestID string
	Session   string
}

type EstimateService struct {
	predictor *pricing.Predictor
	generator *recommend.Generator
	sources   recommend.SourceFactory
	cache     EstimateCache
	cacheTTL  time.Duration
	logs      models.PredictionLogRepository
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

func NewEstimateService(
	predictor *pricing.Predictor,
	generator *recommend.Generator,
	m *metrics.Metrics,
	opts Options,
	logger *logrus.Logger,
) *EstimateService {
	if opts.Sources == nil {
		opts.Sources = recommend.FixedSeed(recommend.DefaultSeed)
	}
	return &EstimateService{
		predictor: predictor,
		generator: generator,
		sources:   opts.Sources,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		logs:      opts.Logs,
		metrics:   m,
		logger:    logger,
	}
}

// Options returns the categorical vocabularies offered to clients.
func (s *EstimateService) Options() vocab.Vocabularies {
	return vocab.Get()
}

// Strategy reports the prediction strategy fixed at startup.
func (s *EstimateService) Strategy() pricing.Strategy {
	return s.predictor.Strategy()
}

// Predict parses raw attributes and estimates a price. Identical inputs are
// served from the cache when one is configured.
func (s *EstimateService) Predict(ctx context.Context, raw map[string]interface{}, meta RequestMeta) (models.PredictResponse, error) {
	start := time.Now()

	rec, err := models.ParseAttributes(raw)
	if err != nil {
		s.metrics.ObservePredictionError(utils.CodeConversionError)
		return models.PredictResponse{}, err
	}

	unknown := features.UnknownCategories(rec)
	s.metrics.ObserveUnknownCategories(unknown)

	fingerprint := s.fingerprint(rec)
	if resp, ok := s.lookup(ctx, fingerprint); ok {
		s.record(rec, resp, unknown, true, meta, start)
		return resp, nil
	}

	est, err := s.predictor.Predict(ctx, rec)
	if err != nil {
		s.metrics.ObservePredictionError(utils.CodeModelError)
		s.logger.WithError(err).WithField("request_id", meta.RequestID).Error("Model prediction failed")
		return models.PredictResponse{}, err
	}

	resp := models.PredictResponse{
		PredictedPrice: est.Price,
		Confidence:     est.Confidence,
		Factors:        est.Factors,
		Strategy:       string(est.Strategy),
		Success:        true,
	}

	if s.cache != nil {
		if err := s.cache.CacheEstimate(ctx, fingerprint, resp, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache estimate")
		}
	}

	s.record(rec, resp, unknown, false, meta, start)
	return resp, nil
}

// Recommend returns similar listings. The optional "count" field bounds the
// list; without "predicted_price" a prediction runs first.
func (s *EstimateService) Recommend(ctx context.Context, raw map[string]interface{}, meta RequestMeta) (models.RecommendResponse, error) {
	count, err := parseCount(raw)
	if err != nil {
		return models.RecommendResponse{}, err
	}

	rec, err := models.ParseAttributes(raw)
	if err != nil {
		return models.RecommendResponse{}, err
	}

	var target float64
	if v, ok := raw[fieldPredictedPrice]; ok && v != nil {
		target, err = models.ToFloat(fieldPredictedPrice, v)
		if err != nil {
			return models.RecommendResponse{}, err
		}
	} else {
		resp, err := s.Predict(ctx, raw, meta)
		if err != nil {
			return models.RecommendResponse{}, err
		}
		target = float64(resp.PredictedPrice)
	}

	items := s.generator.Recommend(rec, target, count, s.sources())
	s.metrics.ObserveRecommendations(len(items))

	s.logger.WithFields(logrus.Fields{
		"request_id": meta.RequestID,
		"target":     target,
		"count":      len(items),
	}).Debug("Recommendations generated")

	return models.RecommendResponse{
		Success: true,
		Count:   len(items),
		Items:   items,
	}, nil
}

// RecentPredictions returns the newest prediction logs, newest first.
func (s *EstimateService) RecentPredictions(limit int) ([]models.PredictionLog, error) {
	if s.logs == nil {
		return nil, ErrAnalyticsDisabled
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	return s.logs.GetRecent(limit)
}

// PredictionCounts groups logged predictions by strategy since the given time.
func (s *EstimateService) PredictionCounts(since time.Time) (map[string]int64, error) {
	if s.logs == nil {
		return nil, ErrAnalyticsDisabled
	}
	return s.logs.CountByStrategy(since)
}

func (s *EstimateService) lookup(ctx context.Context, fingerprint string) (models.PredictResponse, bool) {
	if s.cache == nil {
		return models.PredictResponse{}, false
	}
	cached, err := s.cache.GetCachedEstimate(ctx, fingerprint)
	if err != nil {
		if !database.IsMiss(err) {
			s.logger.WithError(err).Warn("Estimate cache lookup failed")
		}
		s.metrics.ObserveCacheLookup(false)
		return models.PredictResponse{}, false
	}
	s.metrics.ObserveCacheLookup(true)
	return *cached, true
}

func (s *EstimateService) record(rec models.AttributeRecord, resp models.PredictResponse, unknown []string, cacheHit bool, meta RequestMeta, start time.Time) {
	s.metrics.ObservePrediction(resp.Strategy, resp.Confidence)

	elapsed := int(time.Since(start).Milliseconds())
	s.logger.WithFields(logrus.Fields{
		"request_id":      meta.RequestID,
		"strategy":        resp.Strategy,
		"confidence":      resp.Confidence,
		"predicted_price": resp.PredictedPrice,
		"cache_hit":       cacheHit,
		"unknown":         unknown,
		"response_ms":     elapsed,
	}).Info("Price predicted")

	if s.logs == nil {
		return
	}
	entry := &models.PredictionLog{
		RequestID:         meta.RequestID,
		UserSession:       meta.Session,
		Strategy:          resp.Strategy,
		Confidence:        resp.Confidence,
		PredictedPrice:    resp.PredictedPrice,
		Brand:             rec.Brand,
		Year:              rec.Year,
		MileageInKM:       rec.MileageInKM,
		UnknownCategories: models.StringArray(unknown),
		CacheHit:          cacheHit,
		ResponseTimeMs:    elapsed,
	}
	if err := s.logs.Create(entry); err != nil {
		s.logger.WithError(err).Warn("Failed to store prediction log")
	}
}

// fingerprint keys the cache on everything that influences the estimate.
func (s *EstimateService) fingerprint(rec models.AttributeRecord) string {
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode attributes for cache key")
		data = []byte(fmt.Sprintf("%+v", rec))
	}
	return utils.MD5Hash(fmt.Sprintf("%s|%d|%s", s.predictor.Strategy(), s.predictor.ReferenceYear(), data))
}

func parseCount(raw map[string]interface{}) (int, error) {
	v, ok := raw[fieldCount]
	if !ok || v == nil {
		return recommend.DefaultCount, nil
	}
	n, err := models.ToInt(fieldCount, v)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > recommend.MaxCount {
		return 0, &models.ConversionError{
			Field: fieldCount,
			Value: v,
			Kind:  fmt.Sprintf("an integer between 1 and %d", recommend.MaxCount),
		}
	}
	return n, nil
}
