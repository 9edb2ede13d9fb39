package pipeline

import (
	"context"
	"fmt"

	"github.com/neo44hd/docarchive/constants"
)

// BatchResult summarizes one ProcessPending run.
type BatchResult struct {
	Picked      int
	Completed   int
	NeedsReview int
	Errored     int
}

// ProcessPending drains up to limit pending documents sequentially. A
// document failing does not stop the batch; its error is logged and counted.
func (p *Processor) ProcessPending(ctx context.Context, limit int) (BatchResult, error) {
	pending := constants.StatusPending
	docs, err := p.Documents.List(ctx, &pending, limit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list pending documents: %w", err)
	}

	res := BatchResult{Picked: len(docs)}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		status, err := p.Process(ctx, doc.ID)
		if err != nil {
			p.Logger.Error("batch.document_failed", "document_id", doc.ID, "error", err)
		}
		switch status {
		case constants.StatusCompleted:
			res.Completed++
		case constants.StatusNeedsReview:
			res.NeedsReview++
		default:
			res.Errored++
		}
	}

	p.Logger.Info("batch.done",
		"picked", res.Picked,
		"completed", res.Completed,
		"needs_review", res.NeedsReview,
		"errored", res.Errored,
	)
	return res, nil
}
