package fixture

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/restmock/internal/matching"
)

// setKey marks a mapping that decodes to a matching.Set.
const setKey = "$set"

// Candidate keys in a fixture document.
const (
	keyName       = "name"
	keyFilter     = "filter"
	keyJSONPath   = "jsonpath"
	keyWhen       = "when"
	keyData       = "data"
	keyStatusCode = "status_code"
	keyCapture    = "capture"
)

// ParseJSON parses a JSON fixture document.
func ParseJSON(data []byte) (Fixtures, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if err := checkJSON(data); err != nil {
		return nil, err
	}
	return parse(data, "<input>")
}

// checkJSON rejects input that is YAML but not JSON.
func checkJSON(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parsing JSON: %v", ErrInvalidDocument, err)
	}
	return nil
}

// ParseYAML parses a YAML fixture document.
func ParseYAML(data []byte) (Fixtures, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	return parse(data, "<input>")
}

func parse(data []byte, source string) (Fixtures, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing YAML: %v", ErrInvalidDocument, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, ErrEmptyFile
	}
	root := doc.Content[0]

	if err := validateSchema(root, source); err != nil {
		return nil, err
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping of URL to candidates", ErrInvalidDocument)
	}

	fixtures := make(Fixtures, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		url := root.Content[i].Value
		entry, err := decodeEntry(url, root.Content[i+1])
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, entry)
	}

	if err := fixtures.Validate(); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func decodeEntry(url string, node *yaml.Node) (Entry, error) {
	entry := Entry{URL: url}
	if node.Kind != yaml.SequenceNode {
		return entry, &ConfigError{URL: url, Index: -1, Reason: "candidates must be a sequence"}
	}
	for i, cn := range node.Content {
		c, err := decodeCandidate(cn)
		if err != nil {
			return entry, &ConfigError{URL: url, Index: i, Err: err}
		}
		entry.Candidates = append(entry.Candidates, c)
	}
	return entry, nil
}

func decodeCandidate(node *yaml.Node) (Candidate, error) {
	var c Candidate
	if node.Kind != yaml.MappingNode {
		return c, fmt.Errorf("candidate must be a mapping, got %s", node.ShortTag())
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case keyName:
			c.Name = val.Value
		case keyWhen:
			c.When = val.Value
		case keyFilter:
			filter, err := nodeValue(val)
			if err != nil {
				return c, err
			}
			c.Filter = normalizeFilter(filter)
		case keyJSONPath:
			v, err := nodeValue(val)
			if err != nil {
				return c, err
			}
			m, ok := v.(map[string]any)
			if !ok {
				return c, fmt.Errorf("%s must be a mapping", keyJSONPath)
			}
			c.JSONPath = m
		case keyData:
			v, err := nodeValue(val)
			if err != nil {
				return c, err
			}
			c.Data = v
		case keyStatusCode:
			if isNull(val) {
				continue
			}
			if err := val.Decode(&c.StatusCode); err != nil {
				return c, fmt.Errorf("%s: %w", keyStatusCode, err)
			}
		case keyCapture:
			if err := val.Decode(&c.Capture); err != nil {
				return c, fmt.Errorf("%s: %w", keyCapture, err)
			}
		default:
			return c, fmt.Errorf("unknown candidate key %q", key)
		}
	}
	return c, nil
}

// normalizeFilter turns a bare predicate into a one-element list.
func normalizeFilter(v any) []any {
	switch f := v.(type) {
	case nil:
		return nil
	case []any:
		return f
	default:
		return []any{f}
	}
}

// nodeValue converts a YAML node to plain Go values. Mappings of the form
// {"$set": [...]} become matching.Set.
func nodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return nodeValue(node.Content[0])
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, n := range node.Content {
			v, err := nodeValue(n)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		if len(node.Content) == 2 && node.Content[0].Value == setKey {
			items, err := nodeValue(node.Content[1])
			if err != nil {
				return nil, err
			}
			list, ok := items.([]any)
			if !ok {
				return nil, fmt.Errorf("%s must be a sequence", setKey)
			}
			return matching.NewSet(list...), nil
		}
		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := nodeValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[node.Content[i].Value] = v
		}
		return out, nil
	case yaml.ScalarNode:
		return scalarValue(node)
	}
	return nil, fmt.Errorf("unsupported YAML node kind %d", node.Kind)
}

func scalarValue(node *yaml.Node) (any, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool", "!!int", "!!float":
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		// Strings, timestamps and anything else keep their source text.
		return node.Value, nil
	}
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
