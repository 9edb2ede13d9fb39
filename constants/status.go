package constants

// DocumentStatus is the canonical processing status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending     DocumentStatus = "pending"        // registered, waiting for pickup
	StatusProcessing  DocumentStatus = "processing"     // orchestrator picked the document up
	StatusOCR         DocumentStatus = "ocr_processing" // text extraction in progress
	StatusExtracting  DocumentStatus = "extracting"     // field extraction + merge in progress
	StatusValidating  DocumentStatus = "validating"     // validation + provider resolution
	StatusCompleted   DocumentStatus = "completed"      // terminal: complete and confident
	StatusNeedsReview DocumentStatus = "needs_review"   // terminal: human correction required
	StatusError       DocumentStatus = "error"          // terminal: failed run
)

// transitions holds the forward-only edges of a single pipeline run.
// StatusError is additionally reachable from every non-terminal state.
var transitions = map[DocumentStatus][]DocumentStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusOCR, StatusExtracting},
	StatusOCR:        {StatusExtracting},
	StatusExtracting: {StatusValidating},
	StatusValidating: {StatusCompleted, StatusNeedsReview, StatusError},
}

// CanTransition reports whether next is a legal successor of s within one run.
// Re-processing re-enters at StatusPending through an explicit reset, which
// bypasses this check on purpose.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	if next == StatusError {
		return !s.Terminal()
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends a pipeline run.
func (s DocumentStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusNeedsReview, StatusError:
		return true
	}
	return false
}
