package modelserver

// Request models
type PredictRequest struct {
	Instances [][]float64 `json:"instances"`
}

// Response models
type PredictResponse struct {
	Predictions []float64 `json:"predictions"`
	ModelName   string    `json:"model_name,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
