package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Detector backends selectable with DETECTOR_BACKEND.
const (
	BackendPython = "python"
	BackendRemote = "remote"
	BackendOpenCV = "opencv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	UploadsDir          string
	OutputsDir          string
	PublicOutputsDir    string
	PublicOutputsPrefix string

	DedupGridSize      int
	DetectorBackend    string
	ModelPath          string
	ModelConfigPath    string
	DetectorScript     string
	PythonBin          string
	InferenceURL       string
	DetectionThreshold float64
	FFmpegPath         string
	RejectUnknownMedia bool
	MaxUploadBytes     int64

	CORSAllowedOrigins []string
	DefaultLocale      string
	GeoIPDBPath        string
	RateLimitPerMin    int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	dataDir := getEnv("DATA_DIR", ".")
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8000"),
		UploadsDir:          getEnv("UPLOADS_DIR", filepath.Join(dataDir, "uploads")),
		OutputsDir:          getEnv("OUTPUTS_DIR", filepath.Join(dataDir, "outputs")),
		PublicOutputsDir:    getEnv("PUBLIC_OUTPUTS_DIR", filepath.Join(dataDir, "public", "outputs")),
		PublicOutputsPrefix: getEnv("PUBLIC_OUTPUTS_PREFIX", "/outputs"),
		DedupGridSize:       getEnvInt("DEDUP_GRID_SIZE", 50),
		DetectorBackend:     strings.ToLower(getEnv("DETECTOR_BACKEND", BackendPython)),
		ModelPath:           getEnv("MODEL_PATH", "best.pt"),
		ModelConfigPath:     os.Getenv("MODEL_CONFIG_PATH"),
		DetectorScript:      getEnv("DETECTOR_SCRIPT", "scripts/predict.py"),
		PythonBin:           getEnv("PYTHON_BIN", "python3"),
		InferenceURL:        getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		DetectionThreshold:  getEnvFloat("DETECTION_THRESHOLD", 0.25),
		FFmpegPath:          getEnv("FFMPEG_PATH", "ffmpeg"),
		RejectUnknownMedia:  getEnvBool("REJECT_UNKNOWN_MEDIA", false),
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_MB", 512)) << 20,
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DefaultLocale:       getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 120)),
	}

	if cfg.DedupGridSize <= 0 {
		cfg.DedupGridSize = 50
	}

	switch cfg.DetectorBackend {
	case BackendPython, BackendRemote:
	case BackendOpenCV:
		if cfg.ModelConfigPath == "" {
			return nil, fmt.Errorf("MODEL_CONFIG_PATH is required for the %s detector", BackendOpenCV)
		}
	default:
		return nil, fmt.Errorf("unknown DETECTOR_BACKEND %q", cfg.DetectorBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
