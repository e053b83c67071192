package config

import (
	"os"
	"strings"
)

// Environment variable names
const (
	EnvBaseURL    = "RESTMOCK_BASE_URL"
	EnvConnection = "RESTMOCK_CONNECTION"
	EnvFixtures   = "RESTMOCK_FIXTURES"
	EnvNotFound   = "RESTMOCK_NOT_FOUND"
	EnvLogLevel   = "RESTMOCK_LOG_LEVEL"
	EnvLogFormat  = "RESTMOCK_LOG_FORMAT"
	EnvConfig     = "RESTMOCK_CONFIG"
)

// ApplyEnv overlays environment variables on cfg.
// It only sets values that are present in the environment.
func ApplyEnv(cfg *Config) {
	applyEnv(cfg, os.Getenv)
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
		cfg.Set("base_url", SourceEnv)
	}

	if v := getenv(EnvConnection); v != "" {
		cfg.Connection = v
		cfg.Set("connection", SourceEnv)
	}

	// comma-separated globs
	if v := getenv(EnvFixtures); v != "" {
		var globs []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				globs = append(globs, p)
			}
		}
		cfg.Fixtures = globs
		cfg.Set("fixtures", SourceEnv)
	}

	if v := getenv(EnvNotFound); v != "" {
		cfg.NotFound = strings.ToLower(v)
		cfg.Set("not_found", SourceEnv)
	}

	if v := getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
		cfg.Set("log.level", SourceEnv)
	}

	if v := getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
		cfg.Set("log.format", SourceEnv)
	}
}

// FileFromEnv returns the project file named by RESTMOCK_CONFIG, or "".
func FileFromEnv() string {
	return os.Getenv(EnvConfig)
}
