package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Object storage. When StorageBaseURL is empty, objects are read from DataDir.
	StorageBaseURL    string
	DataDir           string
	StorageTimeout    time.Duration
	StorageMaxRetries int

	RefreshSchedule    string
	ViewCacheSize      int
	CORSAllowedOrigins []string

	// Alert notices for newly active service alerts.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaAlertTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	storageTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("STORAGE_TIMEOUT", "15s"))
	if err != nil || storageTimeout <= 0 {
		return nil, errors.New("invalid STORAGE_TIMEOUT")
	}

	maxRetries, err := strconv.Atoi(sharedcfg.EnvOrDefault("STORAGE_MAX_RETRIES", "2"))
	if err != nil || maxRetries < 0 || maxRetries > 10 {
		return nil, errors.New("invalid STORAGE_MAX_RETRIES: must be between 0 and 10")
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("VIEW_CACHE_SIZE", "256"))
	if err != nil || cacheSize <= 0 {
		return nil, errors.New("invalid VIEW_CACHE_SIZE: must be a positive integer")
	}

	schedule := sharedcfg.EnvOrDefault("REFRESH_SCHEDULE", "@every 1h")
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid REFRESH_SCHEDULE: %w", err)
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid KAFKA_ENABLED")
		}
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StorageBaseURL:    strings.TrimSpace(os.Getenv("STORAGE_BASE_URL")),
		DataDir:           sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		StorageTimeout:    storageTimeout,
		StorageMaxRetries: maxRetries,

		RefreshSchedule:    schedule,
		ViewCacheSize:      cacheSize,
		CORSAllowedOrigins: parseList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "service-alerts-active"),
	}

	if cfg.StorageBaseURL == "" && cfg.DataDir == "" {
		return nil, errors.New("one of STORAGE_BASE_URL or DATA_DIR is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
