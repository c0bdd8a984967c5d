package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Inference service connection
	OllamaURL string

	// Gateway response cache
	ResponseCacheTTL  time.Duration
	ResponseCacheSize int

	// Synthesis
	WorkerCount     int
	MaxQueueSize    int
	ResultCacheSize int
	JobTTL          time.Duration

	// Upload limits
	MaxUploadBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8057"),

		OllamaURL: envOr("OLLAMA_URL", "http://localhost:11434"),

		ResponseCacheTTL:  envDuration("RESPONSE_CACHE_TTL", 5*time.Minute),
		ResponseCacheSize: envInt("RESPONSE_CACHE_SIZE", 256),

		WorkerCount:     envInt("WORKER_COUNT", 2),
		MaxQueueSize:    envInt("MAX_QUEUE_SIZE", 32),
		ResultCacheSize: envInt("RESULT_CACHE_SIZE", 64),
		JobTTL:          envDuration("JOB_TTL", 1*time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB
	}

	if cfg.ResponseCacheTTL <= 0 {
		cfg.ResponseCacheTTL = 5 * time.Minute
	}
	if cfg.ResponseCacheSize <= 0 {
		cfg.ResponseCacheSize = 256
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 32
	}
	if cfg.ResultCacheSize <= 0 {
		cfg.ResultCacheSize = 64
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}

	return cfg
}

func (c Config) Validate() error {
	if !strings.HasPrefix(c.OllamaURL, "http://") && !strings.HasPrefix(c.OllamaURL, "https://") {
		return fmt.Errorf("OLLAMA_URL must be an http(s) URL, got %q", c.OllamaURL)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
