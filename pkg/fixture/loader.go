package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadFile reads a fixture document, choosing the parser by extension
// (.json, .yaml, .yml).
func LoadFile(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := checkJSON(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}

	f, err := parse(data, path)
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// LoadGlob loads and merges every file matching pattern. Patterns support
// ** for recursive matching. Files are loaded in sorted path order; a URL
// spec defined in two files is an error.
func LoadGlob(pattern string) (Fixtures, error) {
	matches, err := Expand(pattern)
	if err != nil {
		return nil, err
	}

	all := make([]Fixtures, 0, len(matches))
	for _, match := range matches {
		f, err := LoadFile(match)
		if err != nil {
			return nil, err
		}
		all = append(all, f)
	}

	merged, err := Merge(all...)
	if err != nil {
		return nil, fmt.Errorf("merging %s: %w", pattern, err)
	}
	return merged, nil
}

// LoadGlobs loads several patterns in order and merges the result.
func LoadGlobs(patterns ...string) (Fixtures, error) {
	all := make([]Fixtures, 0, len(patterns))
	for _, p := range patterns {
		f, err := LoadGlob(p)
		if err != nil {
			return nil, err
		}
		all = append(all, f)
	}
	return Merge(all...)
}

// Expand returns the files matching pattern in sorted order. No match is
// ErrNoFixturesLoaded.
func Expand(pattern string) ([]string, error) {
	matches, err := expandGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFixturesLoaded, pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	return files, nil
}
