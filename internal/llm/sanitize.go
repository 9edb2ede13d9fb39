package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reDecimal  = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	reISODate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	moneyKeys  = []string{"subtotal", "iva_amount", "total"}
	dateKeys   = []string{"invoice_date", "due_date"}
	stringKeys = []string{
		"document_type", "invoice_number", "provider_name", "provider_cif",
		"provider_address", "provider_phone", "provider_email", "payment_method",
	}
)

// SanitizeFields normalizes or drops fields that don't meet the stricter
// schema so the overall document can still validate: models occasionally
// return numbers for decimal strings, nulls for absent fields, or dates in
// the document's own format.
func SanitizeFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string

	for _, k := range stringKeys {
		switch t := m[k].(type) {
		case nil:
			if _, ok := m[k]; ok {
				delete(m, k)
				dropped = append(dropped, k)
			}
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				dropped = append(dropped, k)
			} else {
				m[k] = s
			}
		}
	}

	// provider_cif: strip separators so the checksum can run downstream
	if v, ok := m["provider_cif"].(string); ok {
		m["provider_cif"] = strings.ToUpper(strings.NewReplacer("-", "", ".", "", " ", "").Replace(v))
	}

	for _, k := range moneyKeys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k)
		case float64:
			m[k] = fmt.Sprintf("%.2f", t)
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				dropped = append(dropped, k)
				continue
			}
			if !reDecimal.MatchString(s) {
				if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
					m[k] = fmt.Sprintf("%.2f", f)
				} else {
					delete(m, k)
					dropped = append(dropped, k)
				}
			}
		default:
			delete(m, k)
			dropped = append(dropped, k)
		}
	}

	for _, k := range dateKeys {
		if v, ok := m[k]; ok {
			s, isStr := v.(string)
			if !isStr || !reISODate.MatchString(strings.TrimSpace(s)) {
				delete(m, k)
				dropped = append(dropped, k)
			} else {
				m[k] = strings.TrimSpace(s)
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}
