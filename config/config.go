package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var envOnce sync.Once

// loadEnv loads the .env file once; missing files fall back to process
// environment variables.
func loadEnv() {
	envOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, falling back to environment variables")
		}
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

// AppConfig holds server-level settings shared by the API and the worker.
type AppConfig struct {
	ListenAddr      string
	DocuFolder      string
	OutputFolder    string
	DatabasePath    string
	MaxFileSize     int64
	AllowedTypes    []string
	TableThreshold  int
	DefaultStrategy string
	StorageBackend  string // local, minio, s3
}

// GetAppConfig returns the process-wide application configuration.
func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		loadEnv()
		appConfig = &AppConfig{
			ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
			DocuFolder:      getEnv("DOCU_FOLDER", "docu"),
			OutputFolder:    getEnv("OUTPUT_FOLDER", "output"),
			DatabasePath:    getEnv("DATABASE_PATH", "parser_metadata.db"),
			MaxFileSize:     getEnvInt64("MAX_FILE_SIZE", 50*1024*1024),
			AllowedTypes:    strings.Split(getEnv("ALLOWED_TYPES", ".pdf,.docx,.pptx,.html,.png,.jpg,.jpeg,.tiff"), ","),
			TableThreshold:  getEnvInt("TABLE_COMPLEXITY_THRESHOLD", 4),
			DefaultStrategy: getEnv("DEFAULT_STRATEGY", "docling"),
			StorageBackend:  getEnv("STORAGE_BACKEND", "local"),
		}
	})
	return appConfig
}
