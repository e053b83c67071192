package fixture

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "restmock-fixture.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Schema returns the JSON Schema fixture documents are validated against.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// validateSchema checks a decoded document against the fixture schema.
func validateSchema(root *yaml.Node, source string) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling fixture schema: %w", err)
	}

	doc, err := nodeValue(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	// Round-trip through JSON so the validator sees JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	err = schema.Validate(instance)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &SchemaError{Source: source, Problems: []string{err.Error()}}
	}
	schemaErr := &SchemaError{Source: source}
	collectSchemaProblems(verr, schemaErr)
	return schemaErr
}

// collectSchemaProblems flattens the leaves of a validation error tree.
func collectSchemaProblems(err *jsonschema.ValidationError, out *SchemaError) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out.Problems = append(out.Problems, loc+": "+err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaProblems(cause, out)
	}
}
