// Package validate checks raw configuration documents against the
// embedded JSON schema before they are decoded.
package validate

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

//go:embed config.schema.json
var configSchema string

// ConfigYAML validates a YAML configuration document against the
// replicator config schema.
func ConfigYAML(data []byte) error {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting YAML to JSON: %w", err)
	}
	return AgainstSchema("config.schema.json", configSchema, jsonData)
}

// AgainstSchema validates a JSON document against the given schema.
func AgainstSchema(name, schema string, doc []byte) error {
	sch, err := jsonschema.CompileString(name, schema)
	if err != nil {
		return fmt.Errorf("compiling schema %s: %w", name, err)
	}

	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
