package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/entity"
)

// RemoteOCR is an optical recognition service for scanned pages. It is an
// external collaborator; implementations own their timeouts.
type RemoteOCR interface {
	Recognize(ctx context.Context, fileURL, contentType string) (entity.OCRResult, error)
}

// Config tunes the local extraction strategy.
type Config struct {
	// MaxPages caps how many PDF pages are read; 0 = no limit.
	MaxPages int
	// MinDirectTextChars is the minimum text yield for the direct PDF path
	// to count as success; below it the file goes to optical recognition.
	MinDirectTextChars int
}

// Extractor implements extract.TextExtractor. Digital PDFs are read through
// their text layer; scans and images are delegated to the remote OCR.
type Extractor struct {
	cfg    Config
	remote RemoteOCR
	logger *slog.Logger
}

func NewExtractor(cfg Config, remote RemoteOCR, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinDirectTextChars <= 0 {
		cfg.MinDirectTextChars = 100
	}
	return &Extractor{cfg: cfg, remote: remote, logger: logger}
}

// ProcessDocument picks a strategy based on content type.
func (e *Extractor) ProcessDocument(ctx context.Context, fileURL, contentType string) (entity.OCRResult, error) {
	if contentType == constants.ContentTypeText {
		return e.plainText(fileURL)
	}
	if contentType == constants.ContentTypePDF {
		res, err := e.pdfText(fileURL)
		if err == nil && len(strings.TrimSpace(res.Text)) >= e.cfg.MinDirectTextChars {
			e.logger.Info("ocr.direct.ok",
				"file_url", fileURL,
				"pages", len(res.Pages),
				"text_len", len(res.Text),
			)
			return res, nil
		}
		if err != nil {
			e.logger.Warn("ocr.direct.failed", "file_url", fileURL, "error", err)
		} else {
			e.logger.Info("ocr.direct.insufficient_text",
				"file_url", fileURL, "text_len", len(strings.TrimSpace(res.Text)))
		}
	}

	if e.remote == nil {
		return entity.OCRResult{}, fmt.Errorf("no recognition path for %s (%s)", fileURL, contentType)
	}
	res, err := e.remote.Recognize(ctx, fileURL, contentType)
	if err != nil {
		return entity.OCRResult{}, fmt.Errorf("remote ocr: %w", err)
	}
	return res, nil
}

// plainText reads a text document at a local path or file:// URL verbatim.
func (e *Extractor) plainText(fileURL string) (entity.OCRResult, error) {
	raw, err := os.ReadFile(strings.TrimPrefix(fileURL, "file://"))
	if err != nil {
		return entity.OCRResult{}, fmt.Errorf("read text document: %w", err)
	}
	return entity.OCRResult{
		Success:    true,
		Text:       string(raw),
		Confidence: 100,
	}, nil
}

// pdfText reads the digital text layer of a PDF at a local path or file://
// URL. Extraction confidence is fixed high: a text layer is authoritative.
func (e *Extractor) pdfText(fileURL string) (entity.OCRResult, error) {
	path := strings.TrimPrefix(fileURL, "file://")
	f, err := os.Open(path)
	if err != nil {
		return entity.OCRResult{}, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	text, pages, err := readPDF(f)
	if err != nil {
		return entity.OCRResult{}, err
	}
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		pages = e.cfg.MaxPages
	}

	result := entity.OCRResult{
		Success:    true,
		Text:       text,
		Confidence: 95,
	}
	for i := 0; i < pages; i++ {
		result.Pages = append(result.Pages, entity.OCRPage{Method: entity.PageMethodDirect})
	}
	return result, nil
}
