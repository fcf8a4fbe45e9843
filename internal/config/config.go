package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	OpportunitiesURL string
	LineItemsURL     string
	SchemaFile       string
	Port             string
	HTTPTimeout      time.Duration
	FetchRetries     int
	MaxUploadBytes   int64
	LogLevel         slog.Level
}

func FromEnv() Config {
	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	return Config{
		OpportunitiesURL: os.Getenv("OPPORTUNITIES_URL"),
		LineItemsURL:     os.Getenv("LINE_ITEMS_URL"),
		SchemaFile:       os.Getenv("SCHEMA_FILE"),
		Port:             envOr("PORT", "8080"),
		HTTPTimeout:      to,
		FetchRetries:     atoiOr("FETCH_RETRIES", 3),
		MaxUploadBytes:   int64(atoiOr("MAX_UPLOAD_MB", 20)) << 20,
		LogLevel:         lvl,
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil || n < 0 {
		return def
	}
	return n
}
