package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/entity"
)

// DocumentRepository is the document store contract. Every status or field
// update is a plain overwrite; the store is the sole arbiter of a document's
// current state (last writer wins).
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	// List returns documents ordered by creation time, optionally filtered
	// by status. limit <= 0 means no limit.
	List(ctx context.Context, status *constants.DocumentStatus, limit int) ([]*entity.Document, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error
	MarkProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	SaveOCR(ctx context.Context, id uuid.UUID, ocr *entity.OCRResult) error
	// SaveExtraction persists the merged record, its validation report, and
	// the terminal status in one write.
	SaveExtraction(ctx context.Context, id uuid.UUID, rec *entity.ExtractionCandidate, report *entity.ValidationReport, status constants.DocumentStatus) error
	// SaveRecord overwrites the extracted record directly (the manual-edit
	// escape hatch); it does not touch the validation report.
	SaveRecord(ctx context.Context, id uuid.UUID, rec *entity.ExtractionCandidate, manuallyEdited bool) error
	// SaveProviderLink replaces the link wholesale; nil unlinks.
	SaveProviderLink(ctx context.Context, id uuid.UUID, link *entity.ProviderLink) error
	SaveError(ctx context.Context, id uuid.UUID, message string) error
	// ResetForReprocess clears the extracted record, validation report, OCR
	// cache, error and manual-edit flag, and re-enters at pending. The
	// provider link is preserved.
	ResetForReprocess(ctx context.Context, id uuid.UUID) error
}

// ProviderRepository is the provider store contract. Filters are exact
// matches; result order is the store's natural order, which the resolver
// treats as authoritative for first-match-wins.
type ProviderRepository interface {
	FilterByCIF(ctx context.Context, cif string) ([]*entity.Provider, error)
	FilterByName(ctx context.Context, name string) ([]*entity.Provider, error)
	Create(ctx context.Context, p *entity.Provider) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Provider, error)
}
