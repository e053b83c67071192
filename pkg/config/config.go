package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/restmock/pkg/connection"
	"github.com/getmockd/restmock/pkg/logging"
	"github.com/getmockd/restmock/pkg/responder"
)

// DefaultFileName is the project file looked up when none is given.
const DefaultFileName = "restmock.yaml"

// Not-found policies.
const (
	NotFoundRaise    = "raise"
	NotFoundContinue = "continue"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrEmptyFile    = errors.New("configuration file is empty")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
)

// Config is the project configuration.
type Config struct {
	BaseURL    string         `yaml:"base_url"`
	Connection string         `yaml:"connection"`
	Fixtures   []string       `yaml:"fixtures"`
	NotFound   string         `yaml:"not_found"`
	Variables  map[string]any `yaml:"variables,omitempty"`
	Log        LogConfig      `yaml:"log"`

	// Sources records where each field was last set from.
	Sources map[string]string `yaml:"-"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Value sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Connection: connection.DefaultName,
		NotFound:   NotFoundRaise,
		Log:        LogConfig{Level: "info", Format: "text"},
		Sources:    make(map[string]string),
	}
}

// LoadFile reads path over the defaults. Keys absent from the file keep
// their default values; unknown keys are an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	var present map[string]any
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	for key := range present {
		cfg.Sources[key] = SourceFile
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	var problems []string
	if c.Connection == "" {
		problems = append(problems, "connection must not be empty")
	}
	switch c.NotFound {
	case NotFoundRaise, NotFoundContinue:
	default:
		problems = append(problems, fmt.Sprintf("not_found must be %q or %q, got %q", NotFoundRaise, NotFoundContinue, c.NotFound))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not a level", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not text or json", c.Log.Format))
	}
	for i, pattern := range c.Fixtures {
		if strings.TrimSpace(pattern) == "" {
			problems = append(problems, fmt.Sprintf("fixtures[%d] is empty", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// NotFoundPolicy returns the responder policy named by NotFound.
func (c *Config) NotFoundPolicy() responder.NotFoundFunc {
	if c.NotFound == NotFoundContinue {
		return responder.ContinueOnMiss
	}
	return responder.RaiseOnMiss
}

// Logger builds a logger from the log section writing to w. A nil w means
// standard error.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	lc := logging.DefaultConfig()
	if w != nil {
		lc.Output = w
	}
	lc.Level = logging.ParseLevel(c.Log.Level)
	lc.Format = logging.ParseFormat(c.Log.Format)
	return logging.New(lc)
}

// Set records that key was set from source.
func (c *Config) Set(key, source string) {
	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}
	c.Sources[key] = source
}

// Source reports where key was set from.
func (c *Config) Source(key string) string {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}
