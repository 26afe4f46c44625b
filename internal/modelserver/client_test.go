package modelserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Predict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req PredictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, [][]float64{{2020, 4, 1}}, req.Instances)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(PredictResponse{Predictions: []float64{21500.5}})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "test-key", time.Second, logrus.New())

	preds, err := client.Predict(context.Background(), [][]float64{{2020, 4, 1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{21500.5}, preds)
	assert.Equal(t, "remote("+server.URL+")", client.Name())
}

func TestClient_PredictCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PredictResponse{Predictions: []float64{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second, logrus.New())

	_, err := client.Predict(context.Background(), [][]float64{{1}})
	assert.Error(t, err)
}

func TestClient_ErrorHandling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Invalid request"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, logrus.New())

	_, err := client.Predict(context.Background(), [][]float64{{1}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second, logrus.New())
	assert.NoError(t, client.Ping(context.Background()))
}
