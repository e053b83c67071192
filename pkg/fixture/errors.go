package fixture

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for fixture loading.
var (
	ErrFileNotFound     = errors.New("fixture file not found")
	ErrEmptyFile        = errors.New("fixture file is empty")
	ErrInvalidDocument  = errors.New("invalid fixture document")
	ErrUnsupportedFile  = errors.New("unsupported fixture file extension")
	ErrDuplicateURL     = errors.New("duplicate fixture URL")
	ErrNoFixturesLoaded = errors.New("no fixture files matched")
)

// ConfigError reports a malformed candidate. It is raised when the fixture
// is built and again when a resolved candidate turns out to be malformed.
// Index is -1 when the problem is with the entry itself.
type ConfigError struct {
	URL    string
	Index  int
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	if e.Index < 0 {
		return fmt.Sprintf("fixture %q: %s", e.URL, reason)
	}
	return fmt.Sprintf("fixture %q candidate %d: %s", e.URL, e.Index, reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SchemaError reports a document that does not satisfy the fixture schema.
type SchemaError struct {
	// Source is the file name or "<input>".
	Source string
	// Problems lists "location: message" entries.
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema validation failed: %s", e.Source, strings.Join(e.Problems, "; "))
}

func (e *SchemaError) Unwrap() error {
	return ErrInvalidDocument
}
