package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/restmock/pkg/connection"
	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/responder"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "api", cfg.Connection)
	assert.Equal(t, NotFoundRaise, cfg.NotFound)
	assert.Equal(t, SourceDefault, cfg.Source("connection"))
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: http://api.test/v1/
fixtures:
  - fixtures/*.yaml
  - more/**/*.json
not_found: continue
variables:
  user_id: 42
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://api.test/v1/", cfg.BaseURL)
	assert.Equal(t, "api", cfg.Connection)
	assert.Equal(t, []string{"fixtures/*.yaml", "more/**/*.json"}, cfg.Fixtures)
	assert.Equal(t, NotFoundContinue, cfg.NotFound)
	assert.Equal(t, map[string]any{"user_id": 42}, cfg.Variables)
	assert.Equal(t, SourceFile, cfg.Source("base_url"))
	assert.Equal(t, SourceDefault, cfg.Source("connection"))
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content *string
		wantErr error
	}{
		{name: "missing", wantErr: ErrFileNotFound},
		{name: "blank", content: ptr("  \n"), wantErr: ErrEmptyFile},
		{name: "syntax", content: ptr("base_url: [unclosed"), wantErr: ErrInvalidYAML},
		{name: "unknown key", content: ptr("baseurl: x\n"), wantErr: ErrInvalidYAML},
		{name: "not a mapping", content: ptr("- a\n- b\n"), wantErr: ErrInvalidYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}
			_, err := LoadFile(path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBaseURL:    "http://env.test/",
		EnvConnection: "billing",
		EnvFixtures:   "a/*.yaml, b/*.json ,",
		EnvNotFound:   "CONTINUE",
		EnvLogLevel:   "debug",
	}
	cfg := Default()
	applyEnv(cfg, func(k string) string { return env[k] })

	assert.Equal(t, "http://env.test/", cfg.BaseURL)
	assert.Equal(t, "billing", cfg.Connection)
	assert.Equal(t, []string{"a/*.yaml", "b/*.json"}, cfg.Fixtures)
	assert.Equal(t, NotFoundContinue, cfg.NotFound)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, SourceEnv, cfg.Source("fixtures"))
	assert.Equal(t, SourceDefault, cfg.Source("log.format"))
}

func TestApplyEnv_Process(t *testing.T) {
	t.Setenv(EnvConnection, "orders")
	t.Setenv(EnvConfig, "project.yaml")

	cfg := Default()
	ApplyEnv(cfg)
	assert.Equal(t, "orders", cfg.Connection)
	assert.Equal(t, "project.yaml", FileFromEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "empty connection", mutate: func(c *Config) { c.Connection = "" }, wantErr: "connection must not be empty"},
		{name: "bad policy", mutate: func(c *Config) { c.NotFound = "ignore" }, wantErr: `not_found must be "raise" or "continue"`},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: `log.level "loud"`},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: `log.format "xml"`},
		{name: "empty glob", mutate: func(c *Config) { c.Fixtures = []string{"a", " "} }, wantErr: "fixtures[1] is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNotFoundPolicy(t *testing.T) {
	req := &interceptor.Request{URL: "http://api.test/x/", BaseURL: "http://api.test/"}

	cfg := Default()
	_, err := responder.New(nil, responder.WithNotFound(cfg.NotFoundPolicy())).HandleRequest(context.Background(), req)
	var nf *responder.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "x/", nf.URL)

	cfg.NotFound = NotFoundContinue
	resp, err := responder.New(nil, responder.WithNotFound(cfg.NotFoundPolicy())).HandleRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	log := cfg.Logger(io.Discard)
	assert.False(t, log.Enabled(context.Background(), -4))
	assert.True(t, log.Enabled(context.Background(), 4))
	assert.Equal(t, connection.DefaultName, cfg.Connection)
}

func ptr(s string) *string { return &s }
