package llm

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is sent to the model as the output contract and used
// locally to validate the response before accepting it.
func BuildInvoiceJSONSchema() map[string]any {
	props := map[string]any{
		"document_type":    map[string]any{"type": "string"},
		"invoice_number":   map[string]any{"type": "string", "minLength": 1},
		"invoice_date":     dateProp(),
		"due_date":         dateProp(),
		"provider_name":    map[string]any{"type": "string"},
		"provider_cif":     map[string]any{"type": "string"},
		"provider_address": map[string]any{"type": "string"},
		"provider_phone":   map[string]any{"type": "string"},
		"provider_email":   map[string]any{"type": "string"},
		"subtotal":         decimalProp(),
		"iva_amount":       decimalProp(),
		"iva_percentage":   map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0},
		"total":            decimalProp(),
		"payment_method":   map[string]any{"type": "string"},
		"line_items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"description": map[string]any{"type": "string"},
					"quantity":    map[string]any{"type": "number"},
					"unit_price":  map[string]any{"type": "number"},
					"amount":      map[string]any{"type": "number"},
				},
				"required": []string{"description"},
			},
		},
	}

	// Nothing is required: the model reports only what it can read, and the
	// pipeline degrades gracefully on partial output.
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d+(\.\d{1,2})?$`,
	}
}

func dateProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d{4}-\d{2}-\d{2}$`,
	}
}
