package entity

// Field is one extracted datum with a confidence score in [0,100]. A nil
// Value means the field was not found. Fields are never mutated after
// creation; the merger always builds new ones.
type Field[T any] struct {
	Value      *T    `json:"value"`
	Confidence int   `json:"confidence"`
	Valid      *bool `json:"valid,omitempty"` // checksum result where applicable (CIF)
}

// NewField wraps a found value with its confidence.
func NewField[T any](v T, confidence int) Field[T] {
	return Field[T]{Value: &v, Confidence: confidence}
}

// NewValidatedField wraps a found value together with a checksum verdict.
func NewValidatedField[T any](v T, confidence int, valid bool) Field[T] {
	f := NewField(v, confidence)
	f.Valid = &valid
	return f
}

// Present reports whether the field holds a value.
func (f Field[T]) Present() bool { return f.Value != nil }

// Or returns the field value, or fallback when the field is empty.
func (f Field[T]) Or(fallback T) T {
	if f.Value == nil {
		return fallback
	}
	return *f.Value
}

// ProviderIdentity is the extracted identity of the issuing provider.
type ProviderIdentity struct {
	Name    Field[string] `json:"name"`
	CIF     Field[string] `json:"cif"`
	Address Field[string] `json:"address"`
	Phone   Field[string] `json:"phone"`
	Email   Field[string] `json:"email"`
}

// Empty reports whether the identity carries neither a CIF nor a name.
func (p ProviderIdentity) Empty() bool {
	return !p.CIF.Present() && !p.Name.Present()
}

// Concept is one invoice line item, in document order.
type Concept struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
}

// IVA groups the VAT amount with its rate when the rate was visible.
type IVA struct {
	Amount     Field[float64] `json:"amount"`
	Percentage *float64       `json:"percentage,omitempty"`
}

// ExtractionCandidate is one extraction attempt's structured output. Two
// candidates may exist per document (regex-origin, AI-origin); at most one
// merged candidate is persisted.
type ExtractionCandidate struct {
	DocumentType  Field[string]    `json:"document_type"`
	InvoiceNumber Field[string]    `json:"invoice_number"`
	InvoiceDate   Field[string]    `json:"invoice_date"` // YYYY-MM-DD
	DueDate       Field[string]    `json:"due_date"`     // YYYY-MM-DD
	Provider      ProviderIdentity `json:"provider"`
	Subtotal      Field[float64]   `json:"subtotal"`
	IVA           IVA              `json:"iva"`
	Total         Field[float64]   `json:"total"`
	PaymentMethod Field[string]    `json:"payment_method"`
	Concepts      []Concept        `json:"concepts,omitempty"`
	Confidence    int              `json:"confidence"`
}

// HasAnyField reports whether any field at all was extracted.
func (c ExtractionCandidate) HasAnyField() bool {
	return c.DocumentType.Present() ||
		c.InvoiceNumber.Present() ||
		c.InvoiceDate.Present() ||
		c.DueDate.Present() ||
		c.Provider.Name.Present() ||
		c.Provider.CIF.Present() ||
		c.Provider.Address.Present() ||
		c.Provider.Phone.Present() ||
		c.Provider.Email.Present() ||
		c.Subtotal.Present() ||
		c.IVA.Amount.Present() ||
		c.Total.Present() ||
		c.PaymentMethod.Present() ||
		len(c.Concepts) > 0
}
