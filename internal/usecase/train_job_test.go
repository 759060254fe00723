package usecase

import (
	"context"
	"errors"
	"testing"

	"MarketSense/internal/domain/models"
)

func newTestTrainJob(t *testing.T, predictor *fakePredictor) *TrainJob {
	t.Helper()
	uc := NewTrainUseCase(&fakeTradeStore{}, predictor, newFakeMetrics(), testLogger(t))
	return NewTrainJob(uc, testLogger(t))
}

func TestTrainJobIdentity(t *testing.T) {
	j := newTestTrainJob(t, &fakePredictor{})
	if j.Name() != "model_train" {
		t.Errorf("Name = %q", j.Name())
	}
	if j.Type() != TrainMessageType {
		t.Errorf("Type = %q, want %q", j.Type(), TrainMessageType)
	}
}

func TestTrainJobHandlesTypedPayload(t *testing.T) {
	predictor := &fakePredictor{trainResult: models.TrainResult{Success: true, ModelVersion: "v1"}}
	j := newTestTrainJob(t, predictor)

	if err := j.Handle(context.Background(), TrainParams{Force: true}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if predictor.trainCalls != 1 {
		t.Errorf("train calls = %d, want 1", predictor.trainCalls)
	}
}

func TestTrainJobHandlesDecodedPayload(t *testing.T) {
	// Payloads that went through the queue come back as generic maps.
	predictor := &fakePredictor{trainResult: models.TrainResult{Success: true}}
	j := newTestTrainJob(t, predictor)

	payload := map[string]interface{}{"Asset": "EUR/USD", "Force": true}
	if err := j.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if predictor.trainCalls != 1 {
		t.Errorf("train calls = %d, want 1", predictor.trainCalls)
	}
}

func TestTrainJobSurfacesTrainingErrors(t *testing.T) {
	predictor := &fakePredictor{trainErr: errors.New("training broke")}
	j := newTestTrainJob(t, predictor)

	if err := j.Handle(context.Background(), TrainParams{Force: true}); err == nil {
		t.Fatal("expected training error")
	}
}
