package usecase

import (
	"context"

	"MarketSense/pkg/logger"
	"MarketSense/pkg/queue"
)

// TrainMessageType is the queue message type handled by TrainJob.
const TrainMessageType = "model.train"

// TrainJob runs model training off the job queue so the HTTP request
// returns immediately.
type TrainJob struct {
	train *TrainUseCase
	log   *logger.Logger
}

func NewTrainJob(train *TrainUseCase, log *logger.Logger) *TrainJob {
	return &TrainJob{train: train, log: log}
}

func (j *TrainJob) Name() string { return "model_train" }

func (j *TrainJob) Type() string { return TrainMessageType }

func (j *TrainJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[TrainParams](payload)
	if err != nil {
		return err
	}

	res, err := j.train.Train(ctx, *p)
	if err != nil {
		j.log.Error("queued training failed", logger.Error(err))
		return err
	}
	j.log.Info("queued training finished",
		logger.Bool("success", res.Success),
		logger.String("version", res.ModelVersion),
		logger.Int("samples", res.Samples),
	)
	return nil
}

var _ queue.Job = (*TrainJob)(nil)
