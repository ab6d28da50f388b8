package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Inference backends.
const (
	InferenceModeLocal  = "local"
	InferenceModeRemote = "remote"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// Inference backend selection.
	InferenceMode string
	ModelDir      string
	FaceModelPath string

	// Remote inference adapter.
	RemoteInferenceURL     string
	RemoteInferenceAPIKey  string
	RemoteInferenceTimeout time.Duration

	// Image validation.
	MinFaceConfidence   float64
	SkipSizeCheck       bool
	SkipBrightnessCheck bool
	SkipFaceDetection   bool

	// LED mask serial bridge. Empty means simulated device.
	SerialPort string

	// History persistence. Empty URI means in-memory.
	MongoURI      string
	MongoDatabase string

	// Optional result archiving.
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// ArchivingEnabled reports whether all Azure settings are present.
func (c *Config) ArchivingEnabled() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != "" && c.AzureContainer != ""
}

func LoadFromEnv() (*Config, error) {
	// A .env file is optional; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		InferenceMode: strings.ToLower(getEnvOrDefault("INFERENCE_MODE", InferenceModeLocal)),
		ModelDir:      getEnvOrDefault("MODEL_DIR", "models"),
		FaceModelPath: getEnvOrDefault("FACE_MODEL_PATH", "models/face_detection_yunet.onnx"),

		RemoteInferenceURL:     os.Getenv("REMOTE_INFERENCE_URL"),
		RemoteInferenceAPIKey:  os.Getenv("REMOTE_INFERENCE_API_KEY"),
		RemoteInferenceTimeout: parseDurationOrDefault("REMOTE_INFERENCE_TIMEOUT", 30*time.Second),

		MinFaceConfidence:   parseFloatOrDefault("MIN_FACE_CONFIDENCE", 0.5),
		SkipSizeCheck:       parseBoolOrDefault("SKIP_SIZE_CHECK", false),
		SkipBrightnessCheck: parseBoolOrDefault("SKIP_BRIGHTNESS_CHECK", false),
		SkipFaceDetection:   parseBoolOrDefault("SKIP_FACE_DETECTION", false),

		SerialPort: os.Getenv("SERIAL_PORT"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnvOrDefault("MONGO_DATABASE", "skin_analyzer"),

		AzureAccountName: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:  os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer:   getEnvOrDefault("AZURE_STORAGE_CONTAINER", "analysis-snapshots"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.AnalysisTimeout)
	}
	if cfg.InferenceMode != InferenceModeLocal && cfg.InferenceMode != InferenceModeRemote {
		return nil, fmt.Errorf("INFERENCE_MODE must be %q or %q (got %q)",
			InferenceModeLocal, InferenceModeRemote, cfg.InferenceMode)
	}
	if cfg.InferenceMode == InferenceModeRemote && cfg.RemoteInferenceURL == "" {
		return nil, fmt.Errorf("REMOTE_INFERENCE_URL is required when INFERENCE_MODE=remote")
	}
	if cfg.MinFaceConfidence <= 0 || cfg.MinFaceConfidence > 1 {
		return nil, fmt.Errorf("MIN_FACE_CONFIDENCE must be in (0, 1] (got %g)", cfg.MinFaceConfidence)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
