package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type APIConfig struct {
	Addr           string
	DatabaseURL    string
	SQLitePath     string
	AIBaseURL      string
	AIAPIKey       string
	RequestTimeout time.Duration
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("NIVESH_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:           addr,
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:     envDefault("NIVESH_SQLITE_PATH", "data/nivesh.db"),
		AIBaseURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("NIVESH_AI_BASE_URL")), "/"),
		AIAPIKey:       strings.TrimSpace(os.Getenv("NIVESH_AI_API_KEY")),
		RequestTimeout: envDurationDefault("NIVESH_REQUEST_TIMEOUT", 60*time.Second),
	}
	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		return cfg, fmt.Errorf("either DATABASE_URL or NIVESH_SQLITE_PATH is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("NV_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
