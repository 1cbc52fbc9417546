package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var defaultGeminiModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-flash-latest",
}

type Config struct {
	Port              int
	DatabaseURL       string
	NatsURL           string
	NatsToken         string
	LogLevel          string
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiTransport   string
	GeminiModels      []string
	GeminiRatePerSec  float64
	GeminiBurst       int
	ExtractionTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:              envInt("INTAKE_PORT", 8760),
		DatabaseURL:       envStr("DATABASE_URL", ""),
		NatsURL:           envStr("NATS_URL", ""),
		NatsToken:         envStr("NATS_TOKEN", ""),
		LogLevel:          envStr("LOG_LEVEL", "info"),
		GeminiAPIKey:      envStr("GEMINI_API_KEY", ""),
		GeminiBaseURL:     envStr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiTransport:   strings.ToLower(envStr("GEMINI_TRANSPORT", "rest")),
		GeminiModels:      envList("GEMINI_MODELS", defaultGeminiModels),
		GeminiRatePerSec:  envFloat("GEMINI_RATE_PER_SEC", 2),
		GeminiBurst:       envInt("GEMINI_BURST", 2),
		ExtractionTimeout: envDuration("EXTRACTION_TIMEOUT", 60*time.Second),
	}
}

func envStr(key, fallback string) string {
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

// envList splits a comma-separated value, dropping blank entries. The
// fallback is copied so callers can't mutate the defaults.
func envList(key string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
