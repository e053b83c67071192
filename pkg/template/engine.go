package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/getmockd/restmock/internal/matching"
	"github.com/getmockd/restmock/pkg/variables"
)

// Engine resolves placeholders. It is safe for concurrent use; the only
// state it holds is its sequence counters.
type Engine struct {
	sequences *sequences
}

// New creates a new template engine with its own sequence counters.
func New() *Engine {
	return &Engine{sequences: newSequences()}
}

// templateRegex matches {{expression}} patterns with optional whitespace.
var templateRegex = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

var (
	// sequence("name") or sequence("name", start)
	sequencePattern = regexp.MustCompile(`^sequence\("([^"]+)"(?:,\s*(\d+))?\)$`)
	// faker.kind
	fakerPattern = regexp.MustCompile(`^faker\.(\w+)$`)
	// upper(value), lower(value), default(value, "fallback")
	funcCallPattern = regexp.MustCompile(`^(upper|lower|default)\((.+)\)$`)
)

// Resolve returns a copy of value with every placeholder substituted.
// Mappings (including their keys), sequences and matching.Set values are
// walked recursively. Values without placeholders are returned unchanged.
func (e *Engine) Resolve(value any, vars *variables.Store) (any, error) {
	switch v := value.(type) {
	case string:
		return e.resolveString(v, vars)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			key, err := e.ResolveString(k, vars)
			if err != nil {
				return nil, err
			}
			resolved, err := e.Resolve(val, vars)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			resolved, err := e.Resolve(val, vars)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case matching.Set:
		vals := v.Values()
		for i, val := range vals {
			resolved, err := e.Resolve(val, vars)
			if err != nil {
				return nil, err
			}
			vals[i] = resolved
		}
		return matching.NewSet(vals...), nil
	default:
		return value, nil
	}
}

// ResolveString substitutes placeholders in s and always returns a string.
func (e *Engine) ResolveString(s string, vars *variables.Store) (string, error) {
	out, err := e.interpolate(s, vars)
	if err != nil {
		return "", err
	}
	return out, nil
}

// HasPlaceholders reports whether value contains at least one placeholder.
func HasPlaceholders(value any) bool {
	switch v := value.(type) {
	case string:
		return templateRegex.MatchString(v)
	case map[string]any:
		for k, val := range v {
			if HasPlaceholders(k) || HasPlaceholders(val) {
				return true
			}
		}
	case []any:
		for _, val := range v {
			if HasPlaceholders(val) {
				return true
			}
		}
	case matching.Set:
		for _, val := range v.Values() {
			if HasPlaceholders(val) {
				return true
			}
		}
	}
	return false
}

// resolveString keeps the raw value type when s is a single placeholder.
func (e *Engine) resolveString(s string, vars *variables.Store) (any, error) {
	loc := templateRegex.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, nil
	}
	if loc[0] == 0 && loc[1] == len(s) {
		return e.evaluate(s[loc[2]:loc[3]], vars)
	}
	return e.interpolate(s, vars)
}

func (e *Engine) interpolate(s string, vars *variables.Store) (string, error) {
	matches := templateRegex.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		val, err := e.evaluate(s[m[2]:m[3]], vars)
		if err != nil {
			return "", err
		}
		b.WriteString(stringify(val))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// evaluate processes a single template expression.
func (e *Engine) evaluate(expr string, vars *variables.Store) (any, error) {
	expr = strings.TrimSpace(expr)

	if val, ok := builtin(expr); ok {
		return val, nil
	}

	if m := fakerPattern.FindStringSubmatch(expr); m != nil {
		val, ok := fakeValue(m[1])
		if !ok {
			return nil, &ExpressionError{Expression: expr, Reason: fmt.Sprintf("unknown faker kind %q", m[1])}
		}
		return val, nil
	}

	if m := sequencePattern.FindStringSubmatch(expr); m != nil {
		start := int64(1)
		if m[2] != "" {
			n, err := strconv.ParseInt(m[2], 10, 64)
			if err != nil {
				return nil, &ExpressionError{Expression: expr, Reason: err.Error()}
			}
			start = n
		}
		return e.sequences.next(m[1], start), nil
	}

	if m := funcCallPattern.FindStringSubmatch(expr); m != nil {
		return e.evaluateFunc(m[1], m[2], vars)
	}

	return lookup(expr, vars)
}

func (e *Engine) evaluateFunc(name, args string, vars *variables.Store) (any, error) {
	switch name {
	case "default":
		arg, fallback, ok := strings.Cut(args, ",")
		if !ok {
			return nil, &ExpressionError{Expression: name + "(" + args + ")", Reason: "default needs a value and a fallback"}
		}
		fallback = strings.Trim(strings.TrimSpace(fallback), `"`)
		val, err := e.evaluate(arg, vars)
		if err != nil {
			if _, undefined := err.(*UndefinedVariableError); undefined {
				return fallback, nil
			}
			return nil, err
		}
		if val == nil || val == "" {
			return fallback, nil
		}
		return val, nil
	case "upper", "lower":
		val, err := e.evaluate(args, vars)
		if err != nil {
			return nil, err
		}
		if name == "upper" {
			return strings.ToUpper(stringify(val)), nil
		}
		return strings.ToLower(stringify(val)), nil
	}
	return nil, &ExpressionError{Expression: name + "(" + args + ")", Reason: "unknown function"}
}

// lookup resolves vars.name.path or name.path against the store.
func lookup(expr string, vars *variables.Store) (any, error) {
	path := strings.Split(strings.TrimPrefix(expr, "vars."), ".")
	name := path[0]
	if name == "" {
		return nil, &ExpressionError{Expression: expr, Reason: "empty variable name"}
	}
	if vars == nil {
		return nil, &UndefinedVariableError{Name: name, Expression: expr}
	}
	cur, ok := vars.Get(name)
	if !ok {
		return nil, &UndefinedVariableError{Name: name, Expression: expr}
	}

	for _, seg := range path[1:] {
		switch c := cur.(type) {
		case map[string]any:
			next, ok := c[seg]
			if !ok {
				return nil, &UndefinedVariableError{Name: name, Expression: expr}
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, &UndefinedVariableError{Name: name, Expression: expr}
			}
			cur = c[idx]
		default:
			return nil, &UndefinedVariableError{Name: name, Expression: expr}
		}
	}
	return cur, nil
}

// stringify renders a value for interpolation into a larger string.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}
