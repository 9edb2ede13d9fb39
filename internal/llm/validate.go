package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateJSONAgainstSchema checks a model reply against the invoice schema.
// Any mismatch is returned as an error; callers decide whether to sanitize
// and retry or give up on the reply.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	raw, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	schema, err := jsonschema.CompileString("invoice.json", string(raw))
	if err != nil {
		return fmt.Errorf("compile invoice schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("model output rejected by schema: %w", err)
	}
	return nil
}
