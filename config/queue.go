package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	queueOnce   sync.Once
	queueConfig *QueueConfig
)

// QueueConfig tunes the parse job queue and its worker. Values come from
// the environment, with an optional queue.yaml override for the fields
// that rarely belong in env vars (queue weights).
type QueueConfig struct {
	RedisAddr      string         `yaml:"redisAddr"`
	RedisDB        int            `yaml:"redisDB"`
	Concurrency    int            `yaml:"concurrency"`
	MaxRetries     int            `yaml:"maxRetries"`
	RetryDelaySec  int            `yaml:"retryDelaySec"`
	TimeoutMinutes int            `yaml:"timeoutMinutes"`
	Queues         map[string]int `yaml:"queues"`
}

func (c *QueueConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySec) * time.Second
}

func (c *QueueConfig) ProcessTimeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// GetQueueConfig returns the queue configuration.
func GetQueueConfig() *QueueConfig {
	queueOnce.Do(func() {
		loadEnv()
		queueConfig = &QueueConfig{
			RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:        getEnvInt("REDIS_DB", 0),
			Concurrency:    getEnvInt("WORKER_CONCURRENCY", 5),
			MaxRetries:     getEnvInt("QUEUE_MAX_RETRIES", 3),
			RetryDelaySec:  getEnvInt("QUEUE_RETRY_DELAY_SEC", 60),
			TimeoutMinutes: getEnvInt("QUEUE_TIMEOUT_MINUTES", 30),
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		}

		path := getEnv("QUEUE_CONFIG_FILE", "queue.yaml")
		if data, err := os.ReadFile(path); err == nil {
			// file values override env defaults
			_ = yaml.Unmarshal(data, queueConfig)
		}
	})
	return queueConfig
}
