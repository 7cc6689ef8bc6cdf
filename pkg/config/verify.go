package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema []byte

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema.
// It checks required properties and numeric minimums of every object the schema describes.
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema jsonschema.Schema
	if err := json.Unmarshal(embeddedSchema, &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to a generic map, the same shape the schema describes
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	var problems []string
	checkObject(&schema, schema.Definitions, "", configMap, &problems)
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("schema violations: %s", strings.Join(problems, "; "))
	}
	return nil
}

// checkObject walks the schema node and the config value together, collecting violations
func checkObject(node *jsonschema.Schema, defs jsonschema.Definitions, path string, value map[string]any, problems *[]string) {
	node = resolveRef(node, defs)
	if node == nil {
		return
	}

	for _, req := range node.Required {
		if v, ok := value[req]; !ok || isZero(v) {
			*problems = append(*problems, fmt.Sprintf("%s is required", join(path, req)))
		}
	}

	if node.Properties == nil {
		return
	}
	for pair := node.Properties.Oldest(); pair != nil; pair = pair.Next() {
		name, prop := pair.Key, resolveRef(pair.Value, defs)
		v, ok := value[name]
		if !ok || prop == nil {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			checkObject(prop, defs, join(path, name), val, problems)
		case float64:
			if prop.Minimum != "" {
				var minimum float64
				if err := json.Unmarshal([]byte(prop.Minimum), &minimum); err == nil && val < minimum {
					*problems = append(*problems, fmt.Sprintf("%s must be >= %v", join(path, name), minimum))
				}
			}
		}
	}
}

func resolveRef(node *jsonschema.Schema, defs jsonschema.Definitions) *jsonschema.Schema {
	if node == nil || node.Ref == "" {
		return node
	}
	name := strings.TrimPrefix(node.Ref, "#/$defs/")
	return defs[name]
}

func isZero(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return val == 0
	}
	return false
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// GenerateSchema generates a JSON schema for the Config struct.
// Only fields tagged with jsonschema:"required" are required.
func GenerateSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
	return r.Reflect(&Config{})
}
