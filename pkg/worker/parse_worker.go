package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/pkg/logger"
	"github.com/kca-ai/document-parser/pkg/queue"
)

// ParseHandler executes one parse job. The parsing service implements it.
type ParseHandler interface {
	HandleParseJob(ctx context.Context, payload *queue.ParsePayload) error
}

// ParseWorker consumes parse:document tasks and mirrors job progress into
// the queue's redis status store.
type ParseWorker struct {
	BaseWorker
	handler ParseHandler
	queue   queue.Queue
}

func NewParseWorker(cfg *config.QueueConfig, handler ParseHandler, q queue.Queue, log logger.Logger) (*ParseWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return cfg.RetryDelay()
			},
		},
	)

	w := &ParseWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		handler: handler,
		queue:   q,
	}

	w.mux.HandleFunc(queue.TaskTypeParseDocument, w.handleParse)
	return w, nil
}

func (w *ParseWorker) handleParse(ctx context.Context, t *asynq.Task) error {
	var payload queue.ParsePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("Failed to unmarshal parse payload",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal parse payload: %w", err)
	}
	if payload.JobID == "" || payload.Filename == "" {
		return fmt.Errorf("invalid parse payload: missing job id or filename")
	}

	w.logger.Info("Processing parse job",
		logger.String("jobId", payload.JobID),
		logger.String("filename", payload.Filename),
		logger.String("strategy", payload.Strategy),
	)

	w.setStatus(ctx, &payload, queue.JobStatusProcessing, 10, "parsing document", "")

	if err := w.handler.HandleParseJob(ctx, &payload); err != nil {
		w.logger.Error("Parse job failed",
			logger.String("jobId", payload.JobID),
			logger.Error(err),
		)
		w.setStatus(ctx, &payload, queue.JobStatusFailed, 100, "", err.Error())
		return err
	}

	w.setStatus(ctx, &payload, queue.JobStatusCompleted, 100, "parsing completed", "")
	return nil
}

func (w *ParseWorker) setStatus(ctx context.Context, payload *queue.ParsePayload, state string, progress float64, message, errMsg string) {
	status := &queue.JobStatus{
		JobID:    payload.JobID,
		Filename: payload.Filename,
		Status:   state,
		Progress: progress,
		Message:  message,
		Error:    errMsg,
	}
	if state == queue.JobStatusCompleted || state == queue.JobStatusFailed {
		now := time.Now().UTC()
		status.CompletedAt = &now
	}
	if err := w.queue.SetJobStatus(ctx, status); err != nil {
		w.logger.Error("Failed to update job status",
			logger.String("jobId", payload.JobID),
			logger.Error(err),
		)
	}
}

func (w *ParseWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopChan:
		}
	}()

	return nil
}
