package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	defaultListenAddr   = ":8080"
	defaultDBPath       = "benchd.db"
	defaultCallTimeoutS = 120

	envListenAddr   = "BENCHD_LISTEN_ADDR"
	envDBPath       = "BENCHD_DB_PATH"
	envLogLevel     = "BENCHD_LOG_LEVEL"
	envCallTimeoutS = "BENCHD_CALL_TIMEOUT_S"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   slog.Level

	// CallTimeoutS is the process-wide default timeout for engine calls, in
	// whole seconds. Zero disables timeouts: every call then runs
	// synchronously with no deadline.
	CallTimeoutS int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr:   defaultListenAddr,
		DBPath:       defaultDBPath,
		LogLevel:     slog.LevelInfo,
		CallTimeoutS: defaultCallTimeoutS,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envCallTimeoutS); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CallTimeoutS = n
		}
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
