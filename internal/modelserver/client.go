// Package modelserver talks to a remote regression model over HTTP.
package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) Name() string {
	return "remote(" + c.baseURL + ")"
}

// Predict sends rows to the model server and returns one price per row.
func (c *Client) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	var response PredictResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/predict", PredictRequest{Instances: rows}, &response); err != nil {
		return nil, err
	}
	if len(response.Predictions) != len(rows) {
		return nil, fmt.Errorf("model server returned %d predictions for %d rows", len(response.Predictions), len(rows))
	}
	return response.Predictions, nil
}

// Ping checks the model server health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var response HealthResponse
	return c.makeRequest(ctx, http.MethodGet, "/health", nil, &response)
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, payload interface{}, result interface{}) error {
	url := c.baseURL + endpoint

	var body io.Reader
	var contentLength int

	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(jsonData)
		contentLength = len(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    url,
		"size":   contentLength,
	}).Debug("Making model server request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"method":        method,
		"url":           url,
		"response_size": len(responseBody),
	}).Debug("Model server response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("model server request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	if result != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
