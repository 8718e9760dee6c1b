package config

import (
	"strings"
	"sync"
	"time"
)

var (
	remoteOnce   sync.Once
	remoteConfig *RemoteConfig
)

// DolphinConfig configures the remote GPU model server.
type DolphinConfig struct {
	Endpoint         string
	HealthTimeout    time.Duration
	InferenceTimeout time.Duration
	ImageTargetSize  int
}

// RemoteOCRConfig configures the remote OCR server.
type RemoteOCRConfig struct {
	Endpoint       string
	HealthTimeout  time.Duration
	RequestTimeout time.Duration
	DefaultEngine  string
	Languages      []string
}

// DoclingConfig configures the docling-serve conversion endpoint.
type DoclingConfig struct {
	Endpoint       string
	RequestTimeout time.Duration
}

// CamelotConfig configures the camelot table-extraction sidecar.
type CamelotConfig struct {
	Endpoint          string
	RequestTimeout    time.Duration
	Mode              string // lattice, stream, hybrid
	AccuracyThreshold float64
}

// MinerUConfig configures the MinerU parsing service.
type MinerUConfig struct {
	Endpoint       string
	RequestTimeout time.Duration
}

// RemoteConfig aggregates every remote engine endpoint.
type RemoteConfig struct {
	Dolphin   DolphinConfig
	RemoteOCR RemoteOCRConfig
	Docling   DoclingConfig
	Camelot   CamelotConfig
	MinerU    MinerUConfig
}

// GetRemoteConfig returns endpoint configuration for all remote engines.
func GetRemoteConfig() *RemoteConfig {
	remoteOnce.Do(func() {
		loadEnv()
		remoteConfig = &RemoteConfig{
			Dolphin: DolphinConfig{
				Endpoint:         getEnv("DOLPHIN_GPU_SERVER", "http://localhost:8005"),
				HealthTimeout:    time.Duration(getEnvInt("DOLPHIN_HEALTH_TIMEOUT", 5)) * time.Second,
				InferenceTimeout: time.Duration(getEnvInt("DOLPHIN_INFERENCE_TIMEOUT", 60)) * time.Second,
				ImageTargetSize:  getEnvInt("DOLPHIN_IMAGE_TARGET_SIZE", 896),
			},
			RemoteOCR: RemoteOCRConfig{
				Endpoint:       getEnv("REMOTE_OCR_SERVER", "http://localhost:8005"),
				HealthTimeout:  time.Duration(getEnvInt("REMOTE_OCR_HEALTH_TIMEOUT", 5)) * time.Second,
				RequestTimeout: time.Duration(getEnvInt("REMOTE_OCR_REQUEST_TIMEOUT", 30)) * time.Second,
				DefaultEngine:  getEnv("REMOTE_OCR_ENGINE", "paddleocr"),
				Languages:      strings.Split(getEnv("DEFAULT_OCR_LANGUAGES", "eng,kor"), ","),
			},
			Docling: DoclingConfig{
				Endpoint:       getEnv("DOCLING_SERVER", "http://localhost:5001"),
				RequestTimeout: time.Duration(getEnvInt("DOCLING_REQUEST_TIMEOUT", 120)) * time.Second,
			},
			Camelot: CamelotConfig{
				Endpoint:          getEnv("CAMELOT_SERVER", "http://localhost:5002"),
				RequestTimeout:    time.Duration(getEnvInt("CAMELOT_REQUEST_TIMEOUT", 120)) * time.Second,
				Mode:              getEnv("CAMELOT_MODE", "hybrid"),
				AccuracyThreshold: 0.7,
			},
			MinerU: MinerUConfig{
				Endpoint:       getEnv("MINERU_SERVER", "http://localhost:5003"),
				RequestTimeout: time.Duration(getEnvInt("MINERU_REQUEST_TIMEOUT", 180)) * time.Second,
			},
		}
	})
	return remoteConfig
}
