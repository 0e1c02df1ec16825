package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	StaticDir   string
	DefaultRoom string
	LogLevel    slog.Level

	// websocket limits
	MaxMessageBytes int64
	EventsPerSecond float64
	EventBurst      int
	SendBuffer      int
}

func Default() Config {
	return Config{
		Port:            "8080",
		StaticDir:       "./static",
		DefaultRoom:     "default",
		LogLevel:        slog.LevelInfo,
		MaxMessageBytes: 4 << 20,
		EventsPerSecond: 100,
		EventBurst:      200,
		SendBuffer:      256,
	}
}

// Load reads a .env file if one exists, then the environment. Unset
// variables keep their defaults; malformed ones are an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := getenv("DEFAULT_ROOM"); v != "" {
		cfg.DefaultRoom = v
	}

	switch v := getenv("LOG_LEVEL"); v {
	case "":
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return cfg, fmt.Errorf("LOG_LEVEL: unknown level %q", v)
	}

	if v := getenv("WS_MAX_MESSAGE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("WS_MAX_MESSAGE_BYTES: invalid value %q", v)
		}
		cfg.MaxMessageBytes = n
	}
	if v := getenv("WS_EVENTS_PER_SECOND"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("WS_EVENTS_PER_SECOND: invalid value %q", v)
		}
		cfg.EventsPerSecond = n
	}
	if v := getenv("WS_EVENT_BURST"); v != "" {
		n, err := positiveInt(v)
		if err != nil {
			return cfg, fmt.Errorf("WS_EVENT_BURST: %w", err)
		}
		cfg.EventBurst = n
	}
	if v := getenv("WS_SEND_BUFFER"); v != "" {
		n, err := positiveInt(v)
		if err != nil {
			return cfg, fmt.Errorf("WS_SEND_BUFFER: %w", err)
		}
		cfg.SendBuffer = n
	}

	return cfg, nil
}

func positiveInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid value %q", v)
	}
	return n, nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}
