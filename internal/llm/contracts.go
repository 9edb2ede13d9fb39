package llm

import "context"

// InvoiceFields is the flat record the model returns: bare values with no
// per-field confidence. The merger assigns the fixed confidence policy.
type InvoiceFields struct {
	DocumentType    string     `json:"document_type,omitempty"`
	InvoiceNumber   string     `json:"invoice_number,omitempty"`
	InvoiceDate     string     `json:"invoice_date,omitempty"` // YYYY-MM-DD
	DueDate         string     `json:"due_date,omitempty"`     // YYYY-MM-DD
	ProviderName    string     `json:"provider_name,omitempty"`
	ProviderCIF     string     `json:"provider_cif,omitempty"`
	ProviderAddress string     `json:"provider_address,omitempty"`
	ProviderPhone   string     `json:"provider_phone,omitempty"`
	ProviderEmail   string     `json:"provider_email,omitempty"`
	Subtotal        string     `json:"subtotal,omitempty"`   // decimal
	IVAAmount       string     `json:"iva_amount,omitempty"` // decimal
	IVAPercentage   float64    `json:"iva_percentage,omitempty"`
	Total           string     `json:"total,omitempty"` // decimal
	PaymentMethod   string     `json:"payment_method,omitempty"`
	LineItems       []LineItem `json:"line_items,omitempty"`
}

// LineItem is one invoice concept row as the model reports it.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
}

// ExtractRequest carries everything the AI extractor needs for one document.
type ExtractRequest struct {
	FileURL     string
	ContentType string
	OCRText     string
}

// FieldExtractor is the interface the pipeline depends on. The raw JSON the
// model produced is returned alongside the decoded fields for audit.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (InvoiceFields, []byte, error)
}
