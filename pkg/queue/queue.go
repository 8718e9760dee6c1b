// Package queue wraps asynq for asynchronous document parsing. Job status
// is mirrored into redis so the API can report progress after the task has
// left the asynq queues.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/kca-ai/document-parser/config"
)

// TaskTypeParseDocument is the asynq task type for one parse job.
const TaskTypeParseDocument = "parse:document"

// Job states, mirrored to the API.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ErrJobNotFound is returned when a job id is unknown.
var ErrJobNotFound = errors.New("job not found")

// ParsePayload is the body of a parse:document task.
type ParsePayload struct {
	JobID    string            `json:"jobId"`
	Filename string            `json:"filename"`
	Strategy string            `json:"strategy"`
	Options  map[string]string `json:"options,omitempty"`
}

// JobStatus is the redis-mirrored view of a parse job.
type JobStatus struct {
	JobID       string     `json:"jobId"`
	Filename    string     `json:"filename"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Queue enqueues parse jobs and tracks their status.
type Queue interface {
	EnqueueParse(ctx context.Context, payload *ParsePayload) error
	GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error)
	SetJobStatus(ctx context.Context, status *JobStatus) error
	CancelJob(ctx context.Context, jobID string) error
}

// AsynqQueue is the redis-backed Queue implementation.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	cfg       *config.QueueConfig
}

const statusTTL = 24 * time.Hour

func statusKey(jobID string) string {
	return "parse_job:" + jobID
}

// NewAsynqQueue connects the queue client to redis.
func NewAsynqQueue(cfg *config.QueueConfig) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redisClient,
		cfg:       cfg,
	}, nil
}

func (q *AsynqQueue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	return q.redis.Close()
}

// EnqueueParse queues one parse job and records its initial status.
func (q *AsynqQueue) EnqueueParse(ctx context.Context, payload *ParsePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal parse payload: %w", err)
	}

	task := asynq.NewTask(TaskTypeParseDocument, data,
		asynq.TaskID(payload.JobID),
		asynq.Queue("default"),
		asynq.MaxRetry(q.cfg.MaxRetries),
		asynq.Timeout(q.cfg.ProcessTimeout()),
	)

	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue parse job: %w", err)
	}

	return q.SetJobStatus(ctx, &JobStatus{
		JobID:     payload.JobID,
		Filename:  payload.Filename,
		Status:    JobStatusQueued,
		Progress:  0,
		Message:   "queued for parsing",
		CreatedAt: time.Now().UTC(),
	})
}

// GetJobStatus reads the mirrored status; when the mirror is missing it
// falls back to asking asynq directly.
func (q *AsynqQueue) GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	data, err := q.redis.Get(ctx, statusKey(jobID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read job status: %w", err)
	}
	if err == nil {
		var status JobStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job status: %w", err)
		}
		return &status, nil
	}

	for _, queueName := range q.queueNames() {
		info, err := q.inspector.GetTaskInfo(queueName, jobID)
		if err != nil {
			continue
		}
		return taskInfoStatus(info), nil
	}
	return nil, ErrJobNotFound
}

// SetJobStatus mirrors a job status into redis with a TTL.
func (q *AsynqQueue) SetJobStatus(ctx context.Context, status *JobStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKey(status.JobID), data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save job status: %w", err)
	}
	return nil
}

// CancelJob removes a queued job. Jobs already running are not interrupted.
func (q *AsynqQueue) CancelJob(ctx context.Context, jobID string) error {
	var lastErr error
	for _, queueName := range q.queueNames() {
		if err := q.inspector.DeleteTask(queueName, jobID); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("failed to cancel job: %w", lastErr)
}

func (q *AsynqQueue) queueNames() []string {
	names := make([]string, 0, len(q.cfg.Queues))
	for name := range q.cfg.Queues {
		names = append(names, name)
	}
	if len(names) == 0 {
		names = []string{"default"}
	}
	return names
}

func taskInfoStatus(info *asynq.TaskInfo) *JobStatus {
	status := &JobStatus{JobID: info.ID}

	var payload ParsePayload
	if err := json.Unmarshal(info.Payload, &payload); err == nil {
		status.Filename = payload.Filename
	}

	switch info.State {
	case asynq.TaskStateActive:
		status.Status = JobStatusProcessing
		status.Progress = 50
	case asynq.TaskStateCompleted:
		status.Status = JobStatusCompleted
		status.Progress = 100
		t := info.CompletedAt
		status.CompletedAt = &t
	case asynq.TaskStateRetry, asynq.TaskStateArchived:
		status.Status = JobStatusFailed
		status.Error = info.LastErr
	default:
		status.Status = JobStatusQueued
	}
	return status
}
