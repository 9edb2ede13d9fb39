package entity

// ValidationReport is the validator's output. It is derived data, recomputed
// on every re-validation, never updated incrementally.
type ValidationReport struct {
	IsComplete      bool     `json:"is_complete"`
	MissingCritical []string `json:"missing_critical"`
	Warnings        []string `json:"warnings"`
}
