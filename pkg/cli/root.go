// Package cli provides the restmock command-line interface.
//
// Commands:
//   - validate: check fixture files against the schema and candidate rules
//   - match: dry-run one request through the fixtures and print the result
//   - version: show the restmock version
//
// Configuration is read from a project file (--config, RESTMOCK_CONFIG or
// ./restmock.yaml), then RESTMOCK_* environment variables, then flags.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/restmock/pkg/cli/internal/output"
	"github.com/getmockd/restmock/pkg/config"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// ErrValidationFailed is returned by validate when any fixture is invalid.
var ErrValidationFailed = errors.New("fixture validation failed")

// app carries state shared by the commands of one invocation.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	jsonOutput bool

	cfg *config.Config
	log *slog.Logger
}

// NewRootCommand builds the restmock command tree writing to stdout and
// stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "restmock",
		Short: "restmock serves canned REST responses to code under test",
		Long: `restmock intercepts outbound REST requests and answers them from fixture
files instead of a live API.

Fixtures map URL specs to ordered response candidates. A candidate is chosen
when its filter structurally matches the request parameters.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.loadConfig(cmd) },
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Project config file (default: $RESTMOCK_CONFIG or ./restmock.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output command results in JSON format")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newValidateCmd(a),
		newMatchCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Main runs restmock with os.Args and returns the process exit code.
func Main() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes the command line args and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, ErrValidationFailed) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = config.FileFromEnv()
	}
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err == nil {
			path = config.DefaultFileName
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	config.ApplyEnv(cfg)
	if err := a.applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = cfg.Logger(a.stderr)
	return nil
}

// applyFlags overlays flags that map onto config fields.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	overrides := []struct {
		flag string
		key  string
		dst  *string
	}{
		{flag: "base-url", key: "base_url", dst: &cfg.BaseURL},
		{flag: "connection", key: "connection", dst: &cfg.Connection},
		{flag: "not-found", key: "not_found", dst: &cfg.NotFound},
		{flag: "log-level", key: "log.level", dst: &cfg.Log.Level},
	}
	for _, o := range overrides {
		f := cmd.Flags().Lookup(o.flag)
		if f == nil || !f.Changed {
			continue
		}
		*o.dst = f.Value.String()
		cfg.Set(o.key, config.SourceFlag)
	}

	if f := cmd.Flags().Lookup("fixtures"); f != nil && f.Changed {
		globs, err := cmd.Flags().GetStringSlice("fixtures")
		if err != nil {
			return err
		}
		cfg.Fixtures = globs
		cfg.Set("fixtures", config.SourceFlag)
	}
	return nil
}

// printResult writes the JSON encoding of data in --json mode, otherwise
// calls textFn.
func (a *app) printResult(data any, textFn func()) error {
	if a.jsonOutput {
		return output.JSON(a.stdout, data)
	}
	textFn()
	return nil
}
