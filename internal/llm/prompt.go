package llm

import "strings"

// BuildSystemPrompt composes the system message: output contract, date and
// money formats, and Spanish-invoice reading guidance.
func BuildSystemPrompt() string {
	parts := []string{
		"You are an invoice parser for Spanish business documents (facturas, tickets, recibos).",
		"Return ONLY a JSON object that matches the provided JSON Schema. No markdown, no commentary.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Money fields are decimal strings with a dot separator and up to two decimals (e.g. \"1234.56\").",
		"The provider is the ISSUER of the document (the business selling), never the customer.",
		"provider_cif is the Spanish tax ID (CIF/NIF): one letter, seven digits, one control character; strip separators.",
		"Omit any field you cannot read. Never invent values.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps the OCR text (or points at the file when no text is
// available) together with the schema the answer must satisfy.
func BuildUserPrompt(req ExtractRequest, schemaJSON string) string {
	var b strings.Builder
	if strings.TrimSpace(req.OCRText) != "" {
		b.WriteString("Extract the invoice fields from this document text:\n\n")
		b.WriteString(req.OCRText)
	} else {
		b.WriteString("No readable text was recovered from the document at ")
		b.WriteString(req.FileURL)
		b.WriteString(" (" + req.ContentType + "). Report only what can be inferred; omit everything else.")
	}
	b.WriteString("\n\nJSON Schema for the answer:\n")
	b.WriteString(schemaJSON)
	b.WriteString("\n\nReturn ONLY JSON that matches the schema.")
	return b.String()
}
