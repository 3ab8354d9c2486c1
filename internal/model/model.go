// Package model implements the score regressor used by the prediction
// service: label encoders for the categorical inputs, a random forest (or a
// ridge linear model) over the encoded feature vector, and YAML persistence.
package model

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Model kinds.
const (
	KindForest = "random_forest"
	KindLinear = "linear"
)

// FeatureNames is the order of the feature vector. Training and prediction
// must agree on it.
var FeatureNames = []string{
	"ai_tools_used_encoded",
	"ai_usage_purpose_encoded",
	"ai_dependency_score",
	"ai_generated_content_percentage",
	"last_exam_score",
	"ai_usage_time_hours",
	"study_consistency_index",
	"sleep_hours",
}

// ErrFeatureMismatch is returned when a vector does not match the model.
var ErrFeatureMismatch = errors.New("feature vector does not match model")

// Encoder maps category labels to their index in a sorted class list.
type Encoder struct {
	Classes []string `yaml:"classes"`
}

// NewEncoder builds an encoder over the distinct values, sorted.
func NewEncoder(values []string) Encoder {
	classes := slices.Clone(values)
	slices.Sort(classes)
	return Encoder{Classes: slices.Compact(classes)}
}

// Encode returns the index of v. ok is false for an unseen label.
func (e Encoder) Encode(v string) (idx int, ok bool) {
	idx, ok = slices.BinarySearch(e.Classes, v)
	return idx, ok
}

// EncodeOrFirst returns the index of v, or 0 (the first class) when v was
// never seen during training.
func (e Encoder) EncodeOrFirst(v string) int {
	if idx, ok := e.Encode(v); ok {
		return idx
	}
	return 0
}

// Row is one set of raw model inputs.
type Row struct {
	Tool              string
	Purpose           string
	Dependency        float64
	ContentPercentage float64
	LastExamScore     float64
	UsageHours        float64
	StudyConsistency  float64
	SleepHours        float64
}

// Metrics summarises how the model did on held-out rows.
type Metrics struct {
	R2        float64 `yaml:"r2"`
	MAE       float64 `yaml:"mae"`
	TrainRows int     `yaml:"train_rows"`
	TestRows  int     `yaml:"test_rows"`
}

// Model is a trained regressor together with its encoders. Intercept and
// Weights are set for linear models, Forest for random forests.
type Model struct {
	Kind      string    `yaml:"kind"`
	Features  []string  `yaml:"features"`
	Intercept float64   `yaml:"intercept,omitempty"`
	Weights   []float64 `yaml:"weights,omitempty,flow"`
	Forest    *Forest   `yaml:"forest,omitempty"`
	Tools     Encoder   `yaml:"tools"`
	Purposes  Encoder   `yaml:"purposes"`
	Metrics   Metrics   `yaml:"metrics"`
	TrainedAt time.Time `yaml:"trained_at"`
}

// Validate checks that the model can serve predictions.
func (m *Model) Validate() error {
	switch m.Kind {
	case KindLinear:
		if len(m.Weights) != len(FeatureNames) {
			return fmt.Errorf("%w: %d weights, want %d", ErrFeatureMismatch, len(m.Weights), len(FeatureNames))
		}
	case KindForest:
		if m.Forest == nil {
			return errors.New("random forest model has no trees")
		}
		if err := m.Forest.Validate(len(FeatureNames)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported model kind %q", m.Kind)
	}
	if len(m.Tools.Classes) == 0 || len(m.Purposes.Classes) == 0 {
		return errors.New("model has no category classes")
	}
	return nil
}

// Vector encodes r in FeatureNames order.
func (m *Model) Vector(r Row) []float64 {
	return []float64{
		float64(m.Tools.EncodeOrFirst(r.Tool)),
		float64(m.Purposes.EncodeOrFirst(r.Purpose)),
		r.Dependency,
		r.ContentPercentage,
		r.LastExamScore,
		r.UsageHours,
		r.StudyConsistency,
		r.SleepHours,
	}
}

// Predict evaluates the model on an encoded feature vector.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != len(FeatureNames) {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrFeatureMismatch, len(x), len(FeatureNames))
	}

	switch m.Kind {
	case KindForest:
		if m.Forest == nil {
			return 0, errors.New("random forest model has no trees")
		}
		return m.Forest.Predict(x), nil
	case KindLinear:
		if len(m.Weights) != len(x) {
			return 0, fmt.Errorf("%w: got %d features, want %d", ErrFeatureMismatch, len(x), len(m.Weights))
		}
		y := m.Intercept
		for i, w := range m.Weights {
			y += w * x[i]
		}
		return y, nil
	}
	return 0, fmt.Errorf("unsupported model kind %q", m.Kind)
}

// PredictRow encodes r and evaluates the model on it.
func (m *Model) PredictRow(r Row) (float64, error) {
	return m.Predict(m.Vector(r))
}

// Categories returns the tool and purpose classes.
func (m *Model) Categories() (tools, purposes []string) {
	return slices.Clone(m.Tools.Classes), slices.Clone(m.Purposes.Classes)
}

// Load reads and validates a model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model file: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validating model file: %w", err)
	}

	return &m, nil
}

// Save writes m to path.
func Save(path string, m *Model) error {
	out, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling model: %w", err)
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}

	return nil
}
