package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/entity"
	"github.com/neo44hd/docarchive/internal/extract"
	"github.com/neo44hd/docarchive/internal/llm"
	"github.com/neo44hd/docarchive/internal/merge"
	"github.com/neo44hd/docarchive/internal/providers"
	"github.com/neo44hd/docarchive/internal/repository"
	"github.com/neo44hd/docarchive/internal/validation"
)

// Processor sequences OCR → extraction → merge → validation → provider
// resolution → persistence for one document. Every status transition is
// written immediately so a crash mid-run leaves the document at its
// last-completed state for audit.
type Processor struct {
	Logger    *slog.Logger
	Documents repository.DocumentRepository
	Resolver  *providers.Resolver
	OCR       extract.TextExtractor
	Regex     *extract.RegexExtractor
	AI        llm.FieldExtractor
}

func NewProcessor(
	logger *slog.Logger,
	docs repository.DocumentRepository,
	resolver *providers.Resolver,
	ocr extract.TextExtractor,
	regex *extract.RegexExtractor,
	ai llm.FieldExtractor,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:    logger,
		Documents: docs,
		Resolver:  resolver,
		OCR:       ocr,
		Regex:     regex,
		AI:        ai,
	}
}

// Process runs the full pipeline for one document and returns its terminal
// status. A document whose current status does not permit entering
// processing is rejected untouched. Adapter failures (OCR, AI) degrade
// gracefully; store failures are fatal for the run and force the error
// status with the message recorded.
func (p *Processor) Process(ctx context.Context, docID uuid.UUID) (constants.DocumentStatus, error) {
	doc, err := p.Documents.Get(ctx, docID)
	if err != nil {
		return constants.StatusError, fmt.Errorf("load document: %w", err)
	}

	if !doc.ProcessingStatus.CanTransition(constants.StatusProcessing) {
		return doc.ProcessingStatus, fmt.Errorf("document %s: illegal transition %s -> %s",
			docID, doc.ProcessingStatus, constants.StatusProcessing)
	}
	if err := p.Documents.MarkProcessing(ctx, docID, time.Now().UTC()); err != nil {
		return p.fail(ctx, docID, fmt.Errorf("mark processing: %w", err))
	}
	doc.ProcessingStatus = constants.StatusProcessing

	// Text acquisition stage. Scanned formats go through the OCR transition
	// with the result cached; plain text documents carry their own text
	// layer and read it through the same extractor seam. Failure does not
	// abort: extraction proceeds with whatever text (possibly none) was
	// obtained.
	text := ""
	switch {
	case constants.RequiresTextExtraction(doc.ContentType):
		if err := p.advance(ctx, doc, constants.StatusOCR); err != nil {
			return p.fail(ctx, docID, err)
		}
		ocrRes, ocrErr := p.OCR.ProcessDocument(ctx, doc.FileURL, doc.ContentType)
		if ocrErr != nil {
			p.Logger.Warn("pipeline.ocr.degraded", "document_id", docID, "error", ocrErr)
			ocrRes.Success = false
		}
		if err := p.Documents.SaveOCR(ctx, docID, &ocrRes); err != nil {
			return p.fail(ctx, docID, fmt.Errorf("save ocr result: %w", err))
		}
		text = ocrRes.Text
		p.Logger.Info("pipeline.ocr.done",
			"document_id", docID,
			"success", ocrRes.Success,
			"pages", len(ocrRes.Pages),
			"text_len", len(text),
		)
	default:
		res, readErr := p.OCR.ProcessDocument(ctx, doc.FileURL, doc.ContentType)
		if readErr != nil {
			p.Logger.Warn("pipeline.read.degraded", "document_id", docID, "error", readErr)
		} else {
			text = res.Text
		}
	}

	// Extraction + merge stage.
	if err := p.advance(ctx, doc, constants.StatusExtracting); err != nil {
		return p.fail(ctx, docID, err)
	}

	rxCandidate := p.Regex.Extract(text)

	// The AI extractor is optional wiring; without it low-confidence regex
	// output goes to validation as-is.
	var aiRecord *llm.InvoiceFields
	if p.AI != nil && (rxCandidate == nil || rxCandidate.Confidence < constants.AIFallbackThreshold) {
		fields, _, aiErr := p.AI.ExtractFields(ctx, llm.ExtractRequest{
			FileURL:     doc.FileURL,
			ContentType: doc.ContentType,
			OCRText:     text,
		})
		if aiErr != nil {
			// degrade to "no AI candidate"
			p.Logger.Warn("pipeline.ai.degraded", "document_id", docID, "error", aiErr)
		} else {
			aiRecord = &fields
		}
	}

	merged := merge.Merge(rxCandidate, aiRecord)

	// Validation + provider resolution stage.
	if err := p.advance(ctx, doc, constants.StatusValidating); err != nil {
		return p.fail(ctx, docID, err)
	}
	report := validation.Validate(merged)

	// An existing link survives re-processing; resolution only runs for
	// unlinked documents.
	if doc.ProviderLink == nil {
		link, err := p.Resolver.Resolve(ctx, merged.Provider, docID)
		if err != nil {
			return p.fail(ctx, docID, fmt.Errorf("resolve provider: %w", err))
		}
		if link != nil {
			if err := p.Documents.SaveProviderLink(ctx, docID, link); err != nil {
				return p.fail(ctx, docID, fmt.Errorf("save provider link: %w", err))
			}
			p.Logger.Info("pipeline.provider.linked",
				"document_id", docID,
				"provider_id", link.ProviderID,
				"method", link.Method,
				"type", link.Type,
			)
		}
	}

	final := routeStatus(merged.Confidence, report.IsComplete)
	if !doc.ProcessingStatus.CanTransition(final) {
		return p.fail(ctx, docID, fmt.Errorf("illegal transition %s -> %s", doc.ProcessingStatus, final))
	}
	if err := p.Documents.SaveExtraction(ctx, docID, &merged, &report, final); err != nil {
		return p.fail(ctx, docID, fmt.Errorf("save extraction: %w", err))
	}

	p.Logger.Info("pipeline.done",
		"document_id", docID,
		"status", string(final),
		"confidence", merged.Confidence,
		"is_complete", report.IsComplete,
		"missing", len(report.MissingCritical),
		"warnings", len(report.Warnings),
	)
	return final, nil
}

// advance moves the document to the next pipeline status, rejecting edges
// the state machine does not permit.
func (p *Processor) advance(ctx context.Context, doc *entity.Document, next constants.DocumentStatus) error {
	if !doc.ProcessingStatus.CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s", doc.ProcessingStatus, next)
	}
	if err := p.Documents.UpdateStatus(ctx, doc.ID, next); err != nil {
		return fmt.Errorf("enter %s: %w", next, err)
	}
	doc.ProcessingStatus = next
	return nil
}

// Reprocess restarts the full pipeline from scratch: the previous extracted
// record, validation report and OCR cache are discarded (manual edits
// included), the provider link is preserved.
func (p *Processor) Reprocess(ctx context.Context, docID uuid.UUID) (constants.DocumentStatus, error) {
	doc, err := p.Documents.Get(ctx, docID)
	if err != nil {
		return constants.StatusError, fmt.Errorf("load document: %w", err)
	}
	if doc.ManuallyEdited {
		p.Logger.Warn("pipeline.reprocess.discarding_manual_edits", "document_id", docID)
	}
	if err := p.Documents.ResetForReprocess(ctx, docID); err != nil {
		return constants.StatusError, fmt.Errorf("reset document: %w", err)
	}
	return p.Process(ctx, docID)
}

// fail forces the error status and records the message for operators. The
// run is not retried automatically.
func (p *Processor) fail(ctx context.Context, docID uuid.UUID, cause error) (constants.DocumentStatus, error) {
	p.Logger.Error("pipeline.failed", "document_id", docID, "error", cause)
	if err := p.Documents.SaveError(ctx, docID, cause.Error()); err != nil {
		p.Logger.Error("pipeline.record_error_failed", "document_id", docID, "error", err)
	}
	return constants.StatusError, cause
}

// routeStatus implements the terminal routing policy.
func routeStatus(confidence int, isComplete bool) constants.DocumentStatus {
	switch {
	case isComplete && confidence >= constants.CompleteMinConfidence:
		return constants.StatusCompleted
	case confidence >= constants.ReviewMinConfidence:
		return constants.StatusNeedsReview
	default:
		return constants.StatusError
	}
}
