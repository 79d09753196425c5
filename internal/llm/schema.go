package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/pergola-quoter/constants"
)

// BuildExtractionJSONSchema returns the JSON-Schema (draft 2020-12 subset) of an extraction as a
// generic map. It is sent to the model inside the prompt and used locally to validate the answer.
// Dimensions may be strings or missing so that unreadable values surface per item instead of
// failing the document.
func BuildExtractionJSONSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			constants.FieldProduct: map[string]any{"type": "string", "minLength": 1},
			constants.FieldWidth:   dimensionProp(),
			constants.FieldHeight:  dimensionProp(),
			constants.FieldPlace:   map[string]any{"type": "string"},
		},
		"required": []string{constants.FieldProduct},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			constants.FieldItems:    map[string]any{"type": "array", "items": item},
			constants.FieldNotFound: map[string]any{"type": "boolean"},
			constants.FieldMessage:  map[string]any{"type": "string"},
		},
	}
}

func dimensionProp() map[string]any {
	return map[string]any{"type": []string{"number", "string"}}
}

var extractionSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compileSchema(BuildExtractionJSONSchema())
})

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateExtraction validates data against the extraction schema.
func ValidateExtraction(data []byte) error {
	schema, err := extractionSchema()
	if err != nil {
		return err
	}
	return validate(schema, data)
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema(schemaMap)
	if err != nil {
		return err
	}
	return validate(schema, data)
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
