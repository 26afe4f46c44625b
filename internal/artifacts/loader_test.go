package artifacts

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `["year", "mileage_in_km", "brand_audi"]`

const testScaler = `{"strategy": "median", "columns": ["year", "mileage_in_km", "brand_audi"], "statistics": [2018, 60000, 0]}`

// Two stumps: split on mileage (feature 1) and on brand_audi (feature 2).
const testModel = `{
  "n_features": 3,
  "trees": [
    {"children_left": [1, -1, -1], "children_right": [2, -1, -1], "feature": [1, -2, -2], "threshold": [100000, -2, -2], "value": [0, 30000, 10000]},
    {"children_left": [1, -1, -1], "children_right": [2, -1, -1], "feature": [2, -2, -2], "threshold": [0.5, -2, -2], "value": [0, 20000, 40000]}
  ]
}`

func writeArtifacts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type remoteStub struct{}

func (remoteStub) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	return []float64{1}, nil
}

func (remoteStub) Name() string { return "remote" }

func TestLoad_AllArtifacts(t *testing.T) {
	dir := writeArtifacts(t, map[string]string{SchemaFile: testSchema, ScalerFile: testScaler, ModelFile: testModel})

	a, err := Load(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"year", "mileage_in_km", "brand_audi"}, a.Schema)
	assert.Equal(t, "median", a.Scaler.Strategy)
	assert.Equal(t, "forest(2 trees)", a.Model.Name())

	preds, err := a.Model.Predict(context.Background(), [][]float64{
		{2020, 50000, 1},
		{2010, 250000, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{35000, 15000}, preds)
}

func TestLoad_RemoteReplacesModelFile(t *testing.T) {
	dir := writeArtifacts(t, map[string]string{SchemaFile: testSchema, ScalerFile: testScaler})

	a, err := Load(dir, remoteStub{})
	require.NoError(t, err)
	assert.Equal(t, "remote", a.Model.Name())
}

func TestLoad_MissingArtifacts(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		artifact string
	}{
		{"no schema", map[string]string{ScalerFile: testScaler, ModelFile: testModel}, "schema"},
		{"empty schema", map[string]string{SchemaFile: `[]`, ScalerFile: testScaler, ModelFile: testModel}, "schema"},
		{"no scaler", map[string]string{SchemaFile: testSchema, ModelFile: testModel}, "scaler"},
		{"no model", map[string]string{SchemaFile: testSchema, ScalerFile: testScaler}, "model"},
		{"corrupt model", map[string]string{SchemaFile: testSchema, ScalerFile: testScaler, ModelFile: `{"trees":`}, "model"},
		{"width mismatch", map[string]string{SchemaFile: `["year"]`, ScalerFile: `{"columns": [], "statistics": []}`, ModelFile: testModel}, "model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeArtifacts(t, tt.files)

			_, err := Load(dir, nil)
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.artifact, loadErr.Artifact)
		})
	}
}

func TestLoadOrFallback_EmptySchemaOnError(t *testing.T) {
	dir := t.TempDir()

	a, err := LoadOrFallback(dir, nil, quietLogger())
	require.Error(t, err)
	require.NotNil(t, a)
	assert.Empty(t, a.Schema)
	assert.Nil(t, a.Model)

	summary := a.Summary(err)
	assert.Equal(t, "none", summary.Model)
	assert.Equal(t, []string{SchemaFile}, summary.Missing)
}

func TestForest_Validate(t *testing.T) {
	bad := &Forest{NFeatures: 1, Trees: []Tree{{
		ChildrenLeft:  []int{0, -1},
		ChildrenRight: []int{1, -1},
		Feature:       []int{0, -2},
		Threshold:     []float64{1, -2},
		Value:         []float64{0, 1},
	}}}
	assert.Error(t, bad.Validate())

	assert.Error(t, (&Forest{NFeatures: 1}).Validate())
}

func TestForest_PredictRejectsWrongWidth(t *testing.T) {
	f := &Forest{NFeatures: 2, Trees: []Tree{{
		ChildrenLeft: []int{-1}, ChildrenRight: []int{-1}, Feature: []int{-2}, Threshold: []float64{-2}, Value: []float64{7},
	}}}

	_, err := f.Predict(context.Background(), [][]float64{{1}})
	assert.Error(t, err)

	preds, err := f.Predict(context.Background(), [][]float64{{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, preds)
}
