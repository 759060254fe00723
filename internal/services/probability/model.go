package probability

import (
	"errors"
	"fmt"
	"math"
)

// StandardScaler normalizes features to zero mean and unit variance.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-feature mean and population standard deviation.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("scaler: empty training set")
	}
	dims := len(X[0])
	s.Mean = make([]float64, dims)
	s.Std = make([]float64, dims)

	for _, row := range X {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		if s.Std[j] == 0 {
			s.Std[j] = 1 // constant feature, leave it centered
		}
	}
	return nil
}

// Transform scales a single feature vector in place-safe fashion.
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll scales a matrix of feature vectors.
func (s *StandardScaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}

// LogisticRegression is a binary classifier trained with batch gradient
// descent. Training is deterministic for a fixed input order.
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`

	LearningRate float64 `json:"learning_rate"`
	Iterations   int     `json:"iterations"`
}

// NewLogisticRegression returns a classifier with standard hyperparameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.1, Iterations: 1000}
}

// Fit trains on scaled features X with binary labels y.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("logistic: invalid training set")
	}
	dims := len(X[0])
	m.Weights = make([]float64, dims)
	m.Bias = 0

	n := float64(len(X))
	gradW := make([]float64, dims)
	for iter := 0; iter < m.Iterations; iter++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0
		for i, row := range X {
			err := m.PredictProba(row) - float64(y[i])
			for j, v := range row {
				gradW[j] += err * v
			}
			gradB += err
		}
		for j := range m.Weights {
			m.Weights[j] -= m.LearningRate * gradW[j] / n
		}
		m.Bias -= m.LearningRate * gradB / n
	}
	return nil
}

// PredictProba returns the win probability for a scaled feature vector.
func (m *LogisticRegression) PredictProba(x []float64) float64 {
	z := m.Bias
	for j, w := range m.Weights {
		z += w * x[j]
	}
	return 1 / (1 + math.Exp(-z))
}

// Predict returns the binary class at the 0.5 boundary.
func (m *LogisticRegression) Predict(x []float64) int {
	if m.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// ModelBundle is the JSON-serialized state persisted per model version.
type ModelBundle struct {
	Version      string             `json:"version"`
	FeatureNames []string           `json:"feature_names"`
	Scaler       StandardScaler     `json:"scaler"`
	Model        LogisticRegression `json:"model"`
	Metrics      BundleMetrics      `json:"metrics"`
}

// Validate checks that a decoded bundle matches the feature set this package
// produces. A bundle whose scaler or weights have the wrong dimensionality
// cannot serve inference.
func (b *ModelBundle) Validate() error {
	dims := len(FeatureNames)
	if len(b.FeatureNames) != dims {
		return fmt.Errorf("model bundle: %d feature names, want %d", len(b.FeatureNames), dims)
	}
	if len(b.Scaler.Mean) != dims || len(b.Scaler.Std) != dims {
		return fmt.Errorf("model bundle: scaler dims %d/%d, want %d", len(b.Scaler.Mean), len(b.Scaler.Std), dims)
	}
	if len(b.Model.Weights) != dims {
		return fmt.Errorf("model bundle: %d weights, want %d", len(b.Model.Weights), dims)
	}
	return nil
}

// BundleMetrics records the evaluation of the training run that produced
// a bundle.
type BundleMetrics struct {
	Accuracy        float64 `json:"accuracy"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1              float64 `json:"f1_score"`
	CVMean          float64 `json:"cv_mean"`
	CVStd           float64 `json:"cv_std"`
	TrainingSamples int     `json:"training_samples"`
	TrainedAt       string  `json:"trained_at"`
}
