package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvFloat is GetEnvInt for floating point values such as frame rates.
func GetEnvFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetEnvDuration parses values like "90s" or "5m". A bare integer is read as seconds.
// Unset, empty, invalid or non-positive values yield fallback.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return fallback
		}
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}

// Settings is the service configuration read from the environment.
type Settings struct {
	Port           string
	LogLevel       string
	LogFormat      string
	HistoryStore   string // "memory" or "sqlite"
	SQLitePath     string
	SQLiteBusy     time.Duration
	Processor      string // "ffmpeg" or "stub"
	FFmpegPath     string
	OutputDir      string
	ProcessTimeout time.Duration
	DefaultFPS     float64
	RulerTicks     int
}

// FromEnv reads Settings, applying defaults for anything unset.
func FromEnv() Settings {
	return Settings{
		Port:           GetEnv("PORT", "8080"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		LogFormat:      GetEnv("LOG_FORMAT", "json"),
		HistoryStore:   GetEnv("HISTORY_STORE", "memory"),
		SQLitePath:     GetEnv("SQLITE_PATH", "data/timeline.db"),
		SQLiteBusy:     time.Duration(GetEnvInt("SQLITE_BUSY_TIMEOUT_MS", 5000)) * time.Millisecond,
		Processor:      GetEnv("PROCESSOR", "stub"),
		FFmpegPath:     GetEnv("FFMPEG_PATH", ""),
		OutputDir:      GetEnv("OUTPUT_DIR", "data/output"),
		ProcessTimeout: GetEnvDuration("PROCESS_TIMEOUT", 5*time.Minute),
		DefaultFPS:     GetEnvFloat("DEFAULT_FPS", 30),
		RulerTicks:     GetEnvInt("RULER_TICKS", 10),
	}
}
