package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/camerabench/captionkit/pkg/log"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required for detection/merging)
// - LLM_API_URL: API endpoint URL (default: https://api.openai.com/v1)
// - LLM_MODEL: Model name to use (default: gpt-4o-2024-08-06)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 4000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.0)
// - LLM_TIMEOUT: Request timeout in seconds (default: 120)
//
// Data Configuration:
// - EXPORT_DIR: Folder holding consolidated caption export JSON files
// - ANNOTATIONS_DIR: Directory for per-sample annotation JSON files (default: annotations)
// - DATASETS_DIR: Local datasets root for the caption viewer (default: datasets)
// - VIDEOS_DIR: Local video files served by the caption viewer (default: videos)
// - DATA_DIR: ShotBench/RefineShot metadata directory (default: data)
// - MEDIA_DIR: ShotBench media directory (default: media)
// - CHECKPOINT_DB: SQLite path for detection run checkpoints (default: data/checkpoints.db)
//
// Server Configuration:
// - HOST: Bind address (default: 0.0.0.0)
// - PORT: Listen port (default: 8080)
// - REFRESH_CRON: Cron expression for dataset cache refresh (default: @every 5m)
//
// Detection Configuration:
// - DETECT_WORKERS: Parallel classification workers (default: 8)
// - DETECT_SEED: Default sampling seed (default: 42)
//
// - LOG_LEVEL: debug|info|warn|error (default: info)

type Config struct {
	LLM LLMConfig `json:"llm"`

	Data DataConfig `json:"data"`

	Server ServerConfig `json:"server"`

	Detect DetectConfig `json:"detect"`
}

// LLMConfig holds the configuration for the LLM client
// Supports any OpenAI-compatible provider
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

// DataConfig holds filesystem locations for exports, datasets and annotations
type DataConfig struct {
	ExportDir      string `json:"export_dir"`
	AnnotationsDir string `json:"annotations_dir"`
	DatasetsDir    string `json:"datasets_dir"`
	VideosDir      string `json:"videos_dir"`
	DataDir        string `json:"data_dir"`
	MediaDir       string `json:"media_dir"`
	CheckpointDB   string `json:"checkpoint_db"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	RefreshCron string `json:"refresh_cron"`
}

// DetectConfig holds defaults for classification runs
type DetectConfig struct {
	Workers int `json:"workers"`
	Seed    int `json:"seed"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// New loads .env (if present) and builds the configuration from the
// environment.
func New(opts ...Option) (*Config, error) {
	_ = godotenv.Load()
	return NewFromEnv(opts...)
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://api.openai.com/v1"),
			Model:       getEnvString("LLM_MODEL", "gpt-4o-2024-08-06"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvInt("LLM_TIMEOUT", 120),
		},
		Data: DataConfig{
			ExportDir:      getEnvString("EXPORT_DIR", ""),
			AnnotationsDir: getEnvString("ANNOTATIONS_DIR", "annotations"),
			DatasetsDir:    getEnvString("DATASETS_DIR", "datasets"),
			VideosDir:      getEnvString("VIDEOS_DIR", "videos"),
			DataDir:        getEnvString("DATA_DIR", "data"),
			MediaDir:       getEnvString("MEDIA_DIR", "media"),
			CheckpointDB:   getEnvString("CHECKPOINT_DB", "data/checkpoints.db"),
		},
		Server: ServerConfig{
			Host:        getEnvString("HOST", "0.0.0.0"),
			Port:        getEnvInt("PORT", 8080),
			RefreshCron: getEnvString("REFRESH_CRON", "@every 5m"),
		},
		Detect: DetectConfig{
			Workers: getEnvInt("DETECT_WORKERS", 8),
			Seed:    getEnvInt("DETECT_SEED", 42),
		},
	}

	log.GetLogger().SetLevel(log.ParseLevel(getEnvString("LOG_LEVEL", "info")))

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Detect.Workers <= 0 {
		return fmt.Errorf("DETECT_WORKERS must be positive, got %d", c.Detect.Workers)
	}
	return nil
}

// RequireLLM returns an error unless an API key is configured.
// Detection and caption merging call this before building a client.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
