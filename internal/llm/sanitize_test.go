package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sanitized(t *testing.T, in string) (map[string]any, []string) {
	t.Helper()
	out, dropped, err := SanitizeFields([]byte(in))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	return m, dropped
}

func TestSanitizeDropsNullsAndBlanks(t *testing.T) {
	m, dropped := sanitized(t, `{
		"invoice_number": "A-1",
		"provider_name": null,
		"provider_phone": "  ",
		"payment_method": "null",
		"total": null
	}`)
	assert.Equal(t, "A-1", m["invoice_number"])
	assert.NotContains(t, m, "provider_name")
	assert.NotContains(t, m, "provider_phone")
	assert.NotContains(t, m, "payment_method")
	assert.NotContains(t, m, "total")
	assert.ElementsMatch(t, []string{"provider_name", "provider_phone", "payment_method", "total"}, dropped)
}

func TestSanitizeNormalizesMoney(t *testing.T) {
	m, dropped := sanitized(t, `{
		"subtotal": 1000,
		"iva_amount": "210,00",
		"total": "1210.00"
	}`)
	assert.Equal(t, "1000.00", m["subtotal"])
	assert.Equal(t, "210.00", m["iva_amount"])
	assert.Equal(t, "1210.00", m["total"])
	assert.Empty(t, dropped)

	m, dropped = sanitized(t, `{"total": "unos mil euros"}`)
	assert.NotContains(t, m, "total")
	assert.Equal(t, []string{"total"}, dropped)
}

func TestSanitizeNormalizesCIF(t *testing.T) {
	m, _ := sanitized(t, `{"provider_cif": "b-12.345 674"}`)
	assert.Equal(t, "B12345674", m["provider_cif"])
}

func TestSanitizeEnforcesISODates(t *testing.T) {
	m, dropped := sanitized(t, `{
		"invoice_date": "2024-03-15",
		"due_date": "15/04/2024"
	}`)
	assert.Equal(t, "2024-03-15", m["invoice_date"])
	assert.NotContains(t, m, "due_date")
	assert.Equal(t, []string{"due_date"}, dropped)
}

func TestSanitizedOutputValidates(t *testing.T) {
	schema := BuildInvoiceJSONSchema()
	raw := `{
		"invoice_number": "FAC-7",
		"provider_name": "Acme S.L.",
		"subtotal": 1000,
		"iva_amount": "210,00",
		"total": "1210.00",
		"invoice_date": "2024-03-15",
		"due_date": "algún día"
	}`
	require.Error(t, ValidateJSONAgainstSchema(schema, []byte(raw)))

	clean, _, err := SanitizeFields([]byte(raw))
	require.NoError(t, err)
	assert.NoError(t, ValidateJSONAgainstSchema(schema, clean))
}
