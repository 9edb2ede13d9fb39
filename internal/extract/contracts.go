package extract

import (
	"context"

	"github.com/neo44hd/docarchive/internal/entity"
)

// TextExtractor is stage 1: file -> text. Implementations may read a digital
// text layer directly or delegate to an optical recognition service; the
// per-page method is reported in the result.
type TextExtractor interface {
	ProcessDocument(ctx context.Context, fileURL, contentType string) (entity.OCRResult, error)
}
