package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/frago-dev/frago/internal/recipe"
)

// paramTypes maps declared input types to JSON-schema types.
var paramTypes = map[string]string{
	"string":  "string",
	"number":  "number",
	"boolean": "boolean",
	"array":   "array",
	"object":  "object",
}

// buildParamSchema compiles the recipe's input declarations into a JSON
// schema for the params object.
func buildParamSchema(rec *recipe.Recipe) (*jsonschema.Schema, error) {
	properties := map[string]any{}
	var required []string
	for name, in := range rec.Inputs {
		schemaType, ok := paramTypes[in.Type]
		if !ok {
			return nil, &recipe.ValidationError{
				Recipe:   rec.Name,
				Problems: []string{fmt.Sprintf("input %s has unsupported type %q", name, in.Type)},
			}
		}
		properties[name] = map[string]any{"type": schemaType}
		if in.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("params.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("params.json")
}

// validateParams checks params against the recipe's declared inputs and
// returns every violation at once.
func validateParams(rec *recipe.Recipe, params map[string]any) error {
	if len(rec.Inputs) == 0 {
		return nil
	}
	schema, err := buildParamSchema(rec)
	if err != nil {
		return err
	}

	if params == nil {
		params = map[string]any{}
	}
	// Round-trip through JSON so native Go ints and structs validate the
	// same way a decoded request body would.
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	problems := collectLeaves(ve, nil)
	sort.Strings(problems)
	return &recipe.ValidationError{Recipe: rec.Name, Problems: problems}
}

// collectLeaves flattens the nested cause tree into one message per
// concrete violation.
func collectLeaves(ve *jsonschema.ValidationError, acc []string) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(acc, fmt.Sprintf("%s: %s", loc, ve.Message))
	}
	for _, cause := range ve.Causes {
		acc = collectLeaves(cause, acc)
	}
	return acc
}
