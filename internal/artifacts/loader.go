// Package artifacts loads the model files written by the offline trainer.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/carprice/backend/internal/models"
	"github.com/Ayash-Bera/carprice/backend/internal/pricing"
)

// Artifact file names inside the model directory.
const (
	SchemaFile = "feature_columns.json"
	ScalerFile = "scaler.json"
	ModelFile  = "model.json"
)

// LoadError reports an artifact that is missing or unreadable.
type LoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s artifact from %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Scaler holds the per-column statistics of the trainer's imputer.
type Scaler struct {
	Strategy   string    `json:"strategy"`
	Columns    []string  `json:"columns"`
	Statistics []float64 `json:"statistics"`
}

// Artifacts is the read-only model state shared by all requests.
type Artifacts struct {
	Dir    string
	Schema []string
	Scaler *Scaler
	Model  pricing.Regressor
}

// Load reads schema, scaler and model from dir. When remote is non-nil it
// stands in for the model file.
func Load(dir string, remote pricing.Regressor) (*Artifacts, error) {
	var schema []string
	if err := readJSON(dir, SchemaFile, "schema", &schema); err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, &LoadError{Artifact: "schema", Path: filepath.Join(dir, SchemaFile), Err: errors.New("schema is empty")}
	}

	var scaler Scaler
	if err := readJSON(dir, ScalerFile, "scaler", &scaler); err != nil {
		return nil, err
	}
	if len(scaler.Columns) != len(scaler.Statistics) {
		return nil, &LoadError{Artifact: "scaler", Path: filepath.Join(dir, ScalerFile), Err: errors.New("columns and statistics differ in length")}
	}

	a := &Artifacts{Dir: dir, Schema: schema, Scaler: &scaler}

	if remote != nil {
		a.Model = remote
		return a, nil
	}

	var forest Forest
	modelPath := filepath.Join(dir, ModelFile)
	if err := readJSON(dir, ModelFile, "model", &forest); err != nil {
		return nil, err
	}
	if err := forest.Validate(); err != nil {
		return nil, &LoadError{Artifact: "model", Path: modelPath, Err: err}
	}
	if forest.NFeatures != len(schema) {
		return nil, &LoadError{
			Artifact: "model",
			Path:     modelPath,
			Err:      fmt.Errorf("model expects %d features, schema has %d", forest.NFeatures, len(schema)),
		}
	}
	a.Model = &forest

	return a, nil
}

// LoadOrFallback never fails: any load error is logged and yields empty
// artifacts, which selects the heuristic strategy.
func LoadOrFallback(dir string, remote pricing.Regressor, logger *logrus.Logger) (*Artifacts, error) {
	a, err := Load(dir, remote)
	if err != nil {
		logger.WithError(err).WithField("dir", dir).Warn("Model artifacts unavailable, using heuristic pricing")
		return &Artifacts{Dir: dir}, err
	}

	logger.WithFields(logrus.Fields{
		"dir":            dir,
		"schema_columns": len(a.Schema),
		"model":          a.Model.Name(),
	}).Info("Model artifacts loaded")
	return a, nil
}

// Summary describes the artifacts for health reporting.
func (a *Artifacts) Summary(loadErr error) models.ArtifactSummary {
	s := models.ArtifactSummary{
		Dir:           a.Dir,
		SchemaColumns: len(a.Schema),
		Model:         "none",
	}
	if a.Scaler != nil {
		s.ScalerColumns = len(a.Scaler.Columns)
	}
	if a.Model != nil {
		s.Model = a.Model.Name()
	}
	if loadErr != nil {
		s.LoadError = loadErr.Error()
		var le *LoadError
		if errors.As(loadErr, &le) && errors.Is(le.Err, os.ErrNotExist) {
			s.Missing = append(s.Missing, filepath.Base(le.Path))
		}
	}
	return s
}

func readJSON(dir, name, artifact string, dst interface{}) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Artifact: artifact, Path: path, Err: err}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &LoadError{Artifact: artifact, Path: path, Err: err}
	}
	return nil
}
