package config

import (
	"sync"
	"time"
)

var (
	difyOnce   sync.Once
	difyConfig *DifyConfig
)

// DifyConfig holds the default Dify API settings. The API key and base URL
// may be overridden per-deployment through the dify_config table; these are
// only the bootstrap values.
type DifyConfig struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

func GetDifyConfig() *DifyConfig {
	difyOnce.Do(func() {
		loadEnv()
		difyConfig = &DifyConfig{
			APIKey:         getEnv("DIFY_API_KEY", ""),
			BaseURL:        getEnv("DIFY_BASE_URL", "https://api.dify.ai"),
			RequestTimeout: time.Duration(getEnvInt("DIFY_REQUEST_TIMEOUT", 30)) * time.Second,
		}
	})
	return difyConfig
}
