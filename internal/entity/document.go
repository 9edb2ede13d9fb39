package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/neo44hd/docarchive/constants"
)

// OCR page extraction methods.
const (
	PageMethodDirect = "direct" // digital text layer read straight from the file
	PageMethodOCR    = "ocr"    // optical recognition
)

// OCRPage records how one page's text was obtained.
type OCRPage struct {
	Method string `json:"method"` // PageMethodDirect | PageMethodOCR
}

// OCRResult is the text extraction outcome cached on the document.
type OCRResult struct {
	Success    bool      `json:"success"`
	Text       string    `json:"text"`
	Confidence float32   `json:"confidence"` // 0..100
	Pages      []OCRPage `json:"pages,omitempty"`
}

// Provider link types and methods.
const (
	LinkTypeLinked  = "linked"
	LinkTypeCreated = "created"

	LinkMethodCIF    = "cif"
	LinkMethodName   = "name"
	LinkMethodManual = "manual"
	LinkMethodAuto   = "auto"
)

// ProviderLink describes how a document was attributed to a provider.
// Immutable once set; re-linking replaces it wholesale.
type ProviderLink struct {
	Type       string    `json:"type"` // LinkTypeLinked | LinkTypeCreated
	ProviderID uuid.UUID `json:"provider_id"`
	Name       string    `json:"name"`   // the stored provider name, not the extracted one
	Method     string    `json:"method"` // LinkMethodCIF | LinkMethodName | LinkMethodManual | LinkMethodAuto
}

// Provider is a business-entity record documents are attributed to.
// Identity fields default to the empty string, never null.
type Provider struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	CIF                 string     `json:"cif"`
	Address             string     `json:"address"`
	Phone               string     `json:"phone"`
	Email               string     `json:"email"`
	AutoCreated         bool       `json:"auto_created"`
	CreatedFromDocument *uuid.UUID `json:"created_from_document,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Document is the aggregate root of the archive.
type Document struct {
	ID                  uuid.UUID                `json:"id"`
	FileURL             string                   `json:"file_url"`
	ContentType         string                   `json:"content_type"`
	ProcessingStatus    constants.DocumentStatus `json:"processing_status"`
	OCRResult           *OCRResult               `json:"ocr_result,omitempty"`
	ExtractedRecord     *ExtractionCandidate     `json:"extracted_record,omitempty"`
	Validation          *ValidationReport        `json:"validation,omitempty"`
	ProviderLink        *ProviderLink            `json:"provider_link,omitempty"`
	ManuallyEdited      bool                     `json:"manually_edited"`
	ErrorMessage        *string                  `json:"error_message,omitempty"`
	ProcessingStartedAt *time.Time               `json:"processing_started_at,omitempty"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}
