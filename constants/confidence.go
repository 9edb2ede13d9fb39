package constants

// Confidence policy for extraction and merging. All values are percentages
// in [0,100]. They live here so the policy is auditable in one place instead
// of being scattered through the callers.
const (
	// AIPrimaryConfidence is assigned to AI-sourced primary fields (document
	// type, invoice number, dates, provider identity, money amounts). The
	// model returns bare values without a per-field confidence signal.
	AIPrimaryConfidence = 70

	// AISecondaryConfidence is assigned to AI-sourced secondary fields
	// (address, phone, email, payment method).
	AISecondaryConfidence = 60

	// AICandidateConfidence is the floor for the merged candidate whenever an
	// AI record contributed. A pure-AI document must not be routed to error
	// just because the regex layer produced nothing.
	AICandidateConfidence = 65

	// AIFallbackThreshold: the AI extractor is invoked when the regex
	// candidate is missing or scores below this.
	AIFallbackThreshold = 50

	// MinTextLength: OCR text shorter than this is not worth pattern
	// extraction; the extractor returns nil and the orchestrator goes
	// straight to the AI extractor.
	MinTextLength = 50

	// CompleteMinConfidence and ReviewMinConfidence route a validated
	// document to completed / needs_review / error.
	CompleteMinConfidence = 60
	ReviewMinConfidence   = 30
)
