package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	// Editor
	MaxUploadBytes   int64
	MaxDecodePixels  int64
	HistoryCapacity  int
	ExportPrefix     string
	PreviewWidth     int
	PreviewHeight    int
	FFmpegPath       string
	VideoFrameOffset string
	AIStepDelay      time.Duration
	TaskRetention    time.Duration

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
	BaseURL     string
	LogLevel    string
}

func Load() (*Config, error) {
	cfg := &Config{
		ExportPrefix:     getEnv("EXPORT_PREFIX", "editify"),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		VideoFrameOffset: getEnv("VIDEO_FRAME_OFFSET", "1"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "editify-assets"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
	}

	var err error
	if cfg.MaxUploadBytes, err = getEnvInt64("MAX_UPLOAD_BYTES", 100<<20); err != nil {
		return nil, err
	}
	if cfg.MaxDecodePixels, err = getEnvInt64("MAX_DECODE_PIXELS", 64<<20); err != nil {
		return nil, err
	}
	if cfg.HistoryCapacity, err = getEnvInt("HISTORY_CAPACITY", 20); err != nil {
		return nil, err
	}
	if cfg.PreviewWidth, err = getEnvInt("PREVIEW_WIDTH", 1280); err != nil {
		return nil, err
	}
	if cfg.PreviewHeight, err = getEnvInt("PREVIEW_HEIGHT", 720); err != nil {
		return nil, err
	}
	stepMillis, err := getEnvInt("AI_STEP_DELAY_MS", 0)
	if err != nil {
		return nil, err
	}
	cfg.AIStepDelay = time.Duration(stepMillis) * time.Millisecond
	retentionSeconds, err := getEnvInt("TASK_RETENTION_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	cfg.TaskRetention = time.Duration(retentionSeconds) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.MaxDecodePixels <= 0 {
		return fmt.Errorf("MAX_DECODE_PIXELS must be positive")
	}
	if c.HistoryCapacity < 2 {
		return fmt.Errorf("HISTORY_CAPACITY must be at least 2")
	}
	if c.PreviewWidth <= 0 || c.PreviewHeight <= 0 {
		return fmt.Errorf("PREVIEW_WIDTH and PREVIEW_HEIGHT must be positive")
	}
	if c.AIStepDelay < 0 {
		return fmt.Errorf("AI_STEP_DELAY_MS must not be negative")
	}
	if c.TaskRetention < 0 {
		return fmt.Errorf("TASK_RETENTION_SECONDS must not be negative")
	}
	if c.ExportPrefix == "" {
		return fmt.Errorf("EXPORT_PREFIX is required")
	}
	if c.SupabaseURL != "" && c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required when SUPABASE_URL is set")
	}
	if c.SupabaseURL != "" && c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required when SUPABASE_URL is set")
	}
	return nil
}

// GalleryEnabled reports whether the persistent gallery can be served.
func (c *Config) GalleryEnabled() bool {
	return c.SupabaseURL != "" && c.DatabaseURL != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
