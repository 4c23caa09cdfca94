// Package schema validates the YAML source index against an embedded JSON
// schema before any field of it is trusted.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	sigyaml "sigs.k8s.io/yaml"
)

const sourceIndexSchemaName = "source-index.schema.json"

// ValidateSourceIndex checks that the YAML document in data conforms to the
// source index schema.
func ValidateSourceIndex(data []byte) error {
	jsonData, err := sigyaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting source index to JSON: %w", err)
	}
	return validateAgainstSchema(sourceIndexSchemaName, SourceIndexSchema, jsonData)
}

// validateAgainstSchema compiles schemaBytes and runs it against the JSON in
// data. name only identifies the schema in error messages.
func validateAgainstSchema(name string, schemaBytes, data []byte) error {
	comp := jsonschema.NewCompiler()
	if err := comp.AddResource(name, bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("loading schema %q: %w", name, err)
	}
	sch, err := comp.Compile(name)
	if err != nil {
		return fmt.Errorf("compiling schema %q: %w", name, err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON for %q: %w", name, err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation against %q failed: %w", name, err)
	}
	return nil
}
