package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/Ayash-Bera/carprice/backend/internal/models"
)

// PredictionLogRepositoryImpl implements PredictionLogRepository
type PredictionLogRepositoryImpl struct {
	db *gorm.DB
}

func NewPredictionLogRepository(db *gorm.DB) models.PredictionLogRepository {
	return &PredictionLogRepositoryImpl{db: db}
}

func (r *PredictionLogRepositoryImpl) Create(log *models.PredictionLog) error {
	return r.db.Create(log).Error
}

func (r *PredictionLogRepositoryImpl) GetRecent(limit int) ([]models.PredictionLog, error) {
	var logs []models.PredictionLog
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// CountByStrategy groups predictions made since the given time.
func (r *PredictionLogRepositoryImpl) CountByStrategy(since time.Time) (map[string]int64, error) {
	var rows []struct {
		Strategy string
		Total    int64
	}
	err := r.db.Model(&models.PredictionLog{}).
		Select("strategy, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("strategy").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Strategy] = row.Total
	}
	return counts, nil
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.Exec(`
		INSERT INTO system_health (service_name, status, response_time_ms, error_message, checked_at)
		VALUES (?, ?, ?, ?, NOW())
	`, serviceName, status, responseTime, errorMsg).Error
}

func (r *SystemHealthRepositoryImpl) GetServiceHealth(serviceName string) (*models.SystemHealth, error) {
	var health models.SystemHealth
	err := r.db.Where("service_name = ?", serviceName).
		Order("checked_at DESC").
		First(&health).Error
	if err != nil {
		return nil, err
	}
	return &health, nil
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	PredictionLog models.PredictionLogRepository
	SystemHealth  models.SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		PredictionLog: NewPredictionLogRepository(db),
		SystemHealth:  NewSystemHealthRepository(db),
	}
}
