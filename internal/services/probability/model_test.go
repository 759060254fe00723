package probability

import (
	"encoding/json"
	"math"
	"testing"
)

func TestScalerFitAndTransform(t *testing.T) {
	var s StandardScaler
	if err := s.Fit([][]float64{{1, 10}, {3, 10}}); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if s.Mean[0] != 2 || s.Mean[1] != 10 {
		t.Errorf("Mean = %v, want [2 10]", s.Mean)
	}
	if math.Abs(s.Std[0]-1) > 1e-9 {
		t.Errorf("Std[0] = %v, want 1", s.Std[0])
	}
	// A constant feature gets unit std so it stays centered at zero.
	if s.Std[1] != 1 {
		t.Errorf("Std[1] = %v, want 1 for a constant feature", s.Std[1])
	}

	got := s.Transform([]float64{1, 10})
	if math.Abs(got[0]+1) > 1e-9 || math.Abs(got[1]) > 1e-9 {
		t.Errorf("Transform([1 10]) = %v, want [-1 0]", got)
	}
	got = s.Transform([]float64{5, 12})
	if math.Abs(got[0]-3) > 1e-9 || math.Abs(got[1]-2) > 1e-9 {
		t.Errorf("Transform([5 12]) = %v, want [3 2]", got)
	}
}

func TestScalerEmptyInput(t *testing.T) {
	var s StandardScaler
	if err := s.Fit(nil); err == nil {
		t.Fatal("expected error for empty training set")
	}
}

func TestLogisticSeparableData(t *testing.T) {
	X := [][]float64{{-2}, {-1.5}, {-1}, {1}, {1.5}, {2}}
	y := []int{0, 0, 0, 1, 1, 1}

	m := NewLogisticRegression()
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for i, row := range X {
		if got := m.Predict(row); got != y[i] {
			t.Errorf("Predict(%v) = %d, want %d", row, got, y[i])
		}
	}
	if lo, hi := m.PredictProba([]float64{-2}), m.PredictProba([]float64{2}); lo >= hi {
		t.Errorf("probabilities not ordered: p(-2)=%v p(2)=%v", lo, hi)
	}
}

func TestLogisticInvalidInput(t *testing.T) {
	m := NewLogisticRegression()
	if err := m.Fit(nil, nil); err == nil {
		t.Error("expected error for empty training set")
	}
	if err := m.Fit([][]float64{{1}, {2}}, []int{1}); err == nil {
		t.Error("expected error for mismatched labels")
	}
}

func TestModelBundleRoundTrip(t *testing.T) {
	in := ModelBundle{
		Version:      "20260301T120000Z",
		FeatureNames: FeatureNames,
		Scaler:       StandardScaler{Mean: []float64{1, 2}, Std: []float64{0.5, 1}},
		Model: LogisticRegression{
			Weights:      []float64{0.3, -0.7},
			Bias:         0.1,
			LearningRate: 0.1,
			Iterations:   1000,
		},
		Metrics: BundleMetrics{Accuracy: 0.8, TrainingSamples: 120},
	}

	payload, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out ModelBundle
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out.Version != in.Version {
		t.Errorf("Version = %q, want %q", out.Version, in.Version)
	}
	if len(out.Model.Weights) != 2 || out.Model.Weights[1] != -0.7 {
		t.Errorf("Weights = %v, want %v", out.Model.Weights, in.Model.Weights)
	}
	if out.Scaler.Std[0] != 0.5 {
		t.Errorf("Scaler.Std = %v, want %v", out.Scaler.Std, in.Scaler.Std)
	}
	if out.Metrics.Accuracy != 0.8 || out.Metrics.TrainingSamples != 120 {
		t.Errorf("Metrics = %+v, want %+v", out.Metrics, in.Metrics)
	}
}
