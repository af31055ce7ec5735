package config

import (
	"os"
	"strconv"
)

// Config holds the runtime configuration read from the environment
type Config struct {
	// Environment
	Environment string
	Addr        string

	// Audio
	SampleRate   int
	AudioBackend string // "ebiten", "oto" or "none"
	BufferMillis int

	// PresetPath is loaded at startup when set
	PresetPath string

	// Observability
	SentryDSN string
}

const (
	BackendEbiten = "ebiten"
	BackendOto    = "oto"
	BackendNone   = "none"
)

func Load() *Config {
	return &Config{
		Environment:  getEnv("WEBSYNTH_ENV", "development"),
		Addr:         getEnv("WEBSYNTH_ADDR", ":8080"),
		SampleRate:   getEnvInt("WEBSYNTH_SAMPLE_RATE", 48000),
		AudioBackend: getEnv("WEBSYNTH_AUDIO_BACKEND", BackendEbiten),
		BufferMillis: getEnvInt("WEBSYNTH_BUFFER_MS", 40),
		PresetPath:   getEnv("WEBSYNTH_PRESET", ""),
		SentryDSN:    getEnv("SENTRY_DSN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// IsProduction returns true when running with the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
