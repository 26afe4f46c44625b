package models

// GORM models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray for PostgreSQL array support
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return fmt.Sprintf("{%s}", strings.Join(s, ",")), nil
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		v = strings.Trim(v, "{}")
		if v == "" {
			*s = StringArray{}
			return nil
		}
		*s = StringArray(strings.Split(v, ","))
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	return nil
}

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PredictionLog records a served price estimate
type PredictionLog struct {
	BaseModel
	RequestID         string      `json:"request_id" gorm:"type:uuid;index"`
	UserSession       string      `json:"user_session"`
	Strategy          string      `json:"strategy" gorm:"not null;check:strategy IN ('heuristic','trained_model')"`
	Confidence        string      `json:"confidence" gorm:"not null"`
	PredictedPrice    int         `json:"predicted_price"`
	Brand             string      `json:"brand"`
	Year              int         `json:"year"`
	MileageInKM       float64     `json:"mileage_in_km"`
	UnknownCategories StringArray `json:"unknown_categories" gorm:"type:text[]"`
	CacheHit          bool        `json:"cache_hit" gorm:"default:false"`
	ResponseTimeMs    int         `json:"response_time_ms"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('healthy','degraded','unhealthy')"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"default:NOW()"`
}

// Database interfaces for repository pattern
type PredictionLogRepository interface {
	Create(log *PredictionLog) error
	GetRecent(limit int) ([]PredictionLog, error)
	CountByStrategy(since time.Time) (map[string]int64, error)
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetServiceHealth(serviceName string) (*SystemHealth, error)
}

// TableName methods for custom table names
func (PredictionLog) TableName() string { return "prediction_logs" }
func (SystemHealth) TableName() string  { return "system_health" }

// Model validation methods
func (p *PredictionLog) Validate() error {
	switch p.Strategy {
	case "heuristic", "trained_model":
	default:
		return fmt.Errorf("invalid strategy: %s", p.Strategy)
	}
	if p.PredictedPrice < 0 {
		return fmt.Errorf("predicted price cannot be negative")
	}
	if p.ResponseTimeMs < 0 {
		return fmt.Errorf("response time cannot be negative")
	}
	return nil
}

// GORM hooks
func (p *PredictionLog) BeforeCreate(tx *gorm.DB) error {
	return p.Validate()
}
