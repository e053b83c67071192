package matching

import (
	"fmt"
	"sort"

	"github.com/ohler55/ojg/jp"
)

// JSONPathResult contains the results of JSONPath matching.
type JSONPathResult struct {
	// Matched is true when every condition held.
	Matched bool
	// Values contains the value extracted by each expression, keyed by expression.
	Values map[string]any
	// Failed is the first expression that did not hold (empty when Matched).
	Failed string
}

// MatchJSONPath evaluates JSONPath conditions against a decoded document.
// Every condition must hold. An expected value of {"exists": bool} checks
// presence only; any other expected value must Equal one of the results.
// Conditions are evaluated in sorted expression order so Failed is stable.
func MatchJSONPath(conditions map[string]any, doc any) JSONPathResult {
	if len(conditions) == 0 {
		return JSONPathResult{Matched: true}
	}

	paths := make([]string, 0, len(conditions))
	for path := range conditions {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	result := JSONPathResult{Matched: true, Values: make(map[string]any, len(conditions))}
	for _, path := range paths {
		matched, value := matchSingleJSONPath(path, conditions[path], doc)
		if !matched {
			return JSONPathResult{Failed: path}
		}
		if value != nil {
			result.Values[path] = value
		}
	}
	return result
}

// matchSingleJSONPath evaluates a single JSONPath condition.
// Returns (true, extractedValue) if matched, (false, nil) if not.
func matchSingleJSONPath(path string, expected any, doc any) (bool, any) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return false, nil
	}

	results := expr.Get(doc)

	if exists, ok := existenceCheck(expected); ok {
		if len(results) == 0 {
			return !exists, nil
		}
		if exists {
			return true, results[0]
		}
		return false, nil
	}

	for _, r := range results {
		if Equal(r, expected) {
			return true, r
		}
	}
	return false, nil
}

// existenceCheck reports whether expected is {"exists": bool} and returns the flag.
func existenceCheck(expected any) (bool, bool) {
	m, ok := asMap(expected)
	if !ok || len(m) != 1 {
		return false, false
	}
	raw, ok := m["exists"]
	if !ok {
		return false, false
	}
	b, ok := raw.(bool)
	return b, ok
}

// Extract returns the first value selected by a JSONPath expression.
// The boolean is false when nothing was selected.
func Extract(path string, doc any) (any, bool, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, false, fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	results := expr.Get(doc)
	if len(results) == 0 {
		return nil, false, nil
	}
	return results[0], true, nil
}

// ValidateJSONPathExpression validates a JSONPath expression at load time.
func ValidateJSONPathExpression(path string) error {
	if _, err := jp.ParseString(path); err != nil {
		return fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	return nil
}
