package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/restmock/pkg/cli/internal/output"
	"github.com/getmockd/restmock/pkg/fixture"
)

type fileResult struct {
	Path     string `json:"path"`
	Fixtures int    `json:"fixtures"`
	Error    string `json:"error,omitempty"`
}

type fixtureSummary struct {
	URL        string   `json:"url"`
	Kind       string   `json:"kind"`
	Candidates []string `json:"candidates"`
	Source     string   `json:"source"`
}

type validateResult struct {
	Valid    bool             `json:"valid"`
	Files    []fileResult     `json:"files"`
	Fixtures []fixtureSummary `json:"fixtures"`
	Errors   []string         `json:"errors,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file|glob]...",
		Short: "Validate fixture files",
		Long: `Validate fixture files without running any requests.

This command checks:
  - JSON/YAML syntax
  - the fixture schema (known candidate keys, value types)
  - candidate rules (status range, data shape, JSONPath and capture syntax)
  - URL specs defined in more than one file

With no arguments the fixture globs from the project config are used.`,
		Example: `  # Validate every fixture under testdata
  restmock validate 'testdata/**/*.yaml'

  # Machine-readable report
  restmock validate --json fixtures/users.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := args
			if len(patterns) == 0 {
				patterns = a.cfg.Fixtures
			}
			if len(patterns) == 0 {
				return errors.New("no fixture files given and none configured")
			}
			return a.runValidate(patterns)
		},
	}
	return cmd
}

func (a *app) runValidate(patterns []string) error {
	result := validateResult{Files: []fileResult{}, Fixtures: []fixtureSummary{}}
	var loaded []fixture.Fixtures
	var sources []string

	for _, pattern := range patterns {
		files, err := fixture.Expand(pattern)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		for _, path := range files {
			f, err := fixture.LoadFile(path)
			if err != nil {
				result.Files = append(result.Files, fileResult{Path: path, Error: err.Error()})
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Files = append(result.Files, fileResult{Path: path, Fixtures: len(f)})
			loaded = append(loaded, f)
			sources = append(sources, path)
		}
	}

	for i, f := range loaded {
		for _, e := range f {
			result.Fixtures = append(result.Fixtures, summarize(e, sources[i]))
		}
	}
	if _, err := fixture.Merge(loaded...); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	result.Valid = len(result.Errors) == 0

	a.log.Debug("validated fixtures", "files", len(result.Files), "fixtures", len(result.Fixtures), "valid", result.Valid)

	if err := a.printResult(result, func() { a.printValidation(result) }); err != nil {
		return err
	}
	if !result.Valid {
		return ErrValidationFailed
	}
	return nil
}

func summarize(e fixture.Entry, source string) fixtureSummary {
	kind := "fragment"
	if e.IsPath() {
		kind = "path"
	}
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("#%d", i)
		}
	}
	return fixtureSummary{URL: e.URL, Kind: kind, Candidates: names, Source: source}
}

func (a *app) printValidation(r validateResult) {
	title := cases.Title(language.English)

	for _, f := range r.Files {
		if f.Error != "" {
			fmt.Fprintf(a.stdout, "FAIL  %s\n", f.Path)
			continue
		}
		fmt.Fprintf(a.stdout, "ok    %s (%d fixtures)\n", f.Path, f.Fixtures)
	}

	if len(r.Fixtures) > 0 {
		fmt.Fprintln(a.stdout)
		tw := output.Table(a.stdout)
		fmt.Fprintln(tw, "URL\tKIND\tCANDIDATES")
		for _, s := range r.Fixtures {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.URL, title.String(s.Kind), strings.Join(s.Candidates, ", "))
		}
		_ = tw.Flush()
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(a.stderr)
		fmt.Fprintf(a.stderr, "%d error(s):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(a.stderr, "  - %s\n", e)
		}
		return
	}
	fmt.Fprintf(a.stdout, "\n%s: %d fixtures in %d files\n", title.String("valid"), len(r.Fixtures), len(r.Files))
}
