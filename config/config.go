package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string
	LOG_MODE    string

	// Artifact storage: "local" writes under ARTIFACT_LOCAL_DIR, "gcs" uploads to a bucket.
	ARTIFACT_STORAGE         string
	ARTIFACT_LOCAL_DIR       string
	ARTIFACT_BASE_URL        string
	ARTIFACT_GCS_BUCKET      string
	ARTIFACT_CDN_DOMAIN      string
	ARTIFACT_GCS_CREDENTIALS string
	UPLOAD_TIMEOUT           time.Duration
	INVALIDATE_TIMEOUT       time.Duration

	// Optional. Without REDIS_ADDR events go to the log only.
	REDIS_ADDR           string
	REDIS_EVENTS_CHANNEL string
	REDIS_RENDER_PREFIX  string
	EVENT_QUEUE_SIZE     int

	REVALIDATE_URL    string
	REVALIDATE_SECRET string

	// When OIDC_ISSUER is set editor tokens are verified as ID tokens instead of HMAC JWTs.
	OIDC_ISSUER    string
	OIDC_CLIENT_ID string

	TRACING_EXPORTER   string
	OTLP_ENDPOINT      string
	OTLP_INSECURE      bool
	TRACE_SAMPLE_RATIO float64
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "http://localhost:3000")
	LOG_MODE = getEnv("LOG_MODE", "dev")

	OIDC_ISSUER = getEnv("OIDC_ISSUER", "")
	if OIDC_ISSUER != "" {
		OIDC_CLIENT_ID = mustEnv("OIDC_CLIENT_ID")
		JWT_SECRET = getEnv("JWT_SECRET", "")
	} else {
		JWT_SECRET = mustEnv("JWT_SECRET")
	}

	ARTIFACT_STORAGE = strings.ToLower(getEnv("ARTIFACT_STORAGE", "local"))
	ARTIFACT_LOCAL_DIR = getEnv("ARTIFACT_LOCAL_DIR", "./artifacts")
	ARTIFACT_BASE_URL = getEnv("ARTIFACT_BASE_URL", "http://localhost:"+PORT+"/artifacts")
	if ARTIFACT_STORAGE == "gcs" {
		ARTIFACT_GCS_BUCKET = mustEnv("ARTIFACT_GCS_BUCKET")
	}
	ARTIFACT_CDN_DOMAIN = getEnv("ARTIFACT_CDN_DOMAIN", "")
	ARTIFACT_GCS_CREDENTIALS = getEnv("ARTIFACT_GCS_CREDENTIALS", "")
	UPLOAD_TIMEOUT = getDuration("UPLOAD_TIMEOUT", 15*time.Second)
	INVALIDATE_TIMEOUT = getDuration("INVALIDATE_TIMEOUT", 5*time.Second)

	REDIS_ADDR = getEnv("REDIS_ADDR", "")
	REDIS_EVENTS_CHANNEL = getEnv("REDIS_EVENTS_CHANNEL", "customizer.events")
	REDIS_RENDER_PREFIX = getEnv("REDIS_RENDER_PREFIX", "render:")
	EVENT_QUEUE_SIZE = getInt("EVENT_QUEUE_SIZE", 256)

	REVALIDATE_URL = getEnv("REVALIDATE_URL", "")
	REVALIDATE_SECRET = getEnv("REVALIDATE_SECRET", "")

	TRACING_EXPORTER = getEnv("TRACING_EXPORTER", "")
	OTLP_ENDPOINT = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	OTLP_INSECURE = getBool("OTEL_EXPORTER_OTLP_INSECURE", false)
	TRACE_SAMPLE_RATIO = getFloat("TRACE_SAMPLE_RATIO", 1)
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Invalid duration for %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
