package models

// PredictResponse is the body of a successful price prediction.
type PredictResponse struct {
	PredictedPrice int                `json:"predicted_price"`
	Confidence     string             `json:"confidence"`
	Factors        map[string]float64 `json:"factors"`
	Strategy       string             `json:"strategy"`
	Success        bool               `json:"success"`
}

// RecommendationItem is a single similar listing.
type RecommendationItem struct {
	ID               int     `json:"id"`
	Brand            string  `json:"brand"`
	Color            string  `json:"color"`
	TransmissionType string  `json:"transmission_type"`
	FuelType         string  `json:"fuel_type"`
	Year             int     `json:"year"`
	PowerPS          float64 `json:"power_ps"`
	MileageInKM      float64 `json:"mileage_in_km"`
	PriceInEuro      int     `json:"price_in_euro"`
	MatchScore       float64 `json:"match_score"`
	Thumbnail        string  `json:"thumbnail"`
}

type RecommendResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Items   []RecommendationItem `json:"items"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Strategy string `json:"strategy,omitempty"`
}

// ArtifactSummary describes what was loaded at startup.
type ArtifactSummary struct {
	Dir           string   `json:"dir"`
	SchemaColumns int      `json:"schema_columns"`
	ScalerColumns int      `json:"scaler_columns"`
	Model         string   `json:"model"`
	LoadError     string   `json:"load_error,omitempty"`
	Missing       []string `json:"missing,omitempty"`
}

type DetailedHealthResponse struct {
	Status    string          `json:"status"`
	Strategy  string          `json:"strategy"`
	Services  interface{}     `json:"services"`
	Artifacts ArtifactSummary `json:"artifacts"`
	Uptime    string          `json:"uptime"`

	// Predictions24h counts logged predictions per strategy; absent without
	// a database.
	Predictions24h map[string]int64 `json:"predictions_24h,omitempty"`

	// Cache holds Redis keyspace stats when Redis is configured.
	Cache map[string]string `json:"cache,omitempty"`

	// Cached is true when services come from the periodic snapshot.
	Cached bool `json:"cached,omitempty"`
}
