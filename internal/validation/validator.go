package validation

import (
	"fmt"
	"math"

	"github.com/neo44hd/docarchive/internal/entity"
	"github.com/neo44hd/docarchive/internal/extract"
)

// Operator-facing labels for missing critical fields. Reviewers read these
// verbatim in the archive UI, so they stay in Spanish.
const (
	MissingProvider      = "Proveedor"
	MissingInvoiceNumber = "Número de factura"
	MissingTotal         = "Total"

	// SentinelAllMissing is reported alone when nothing at all was extracted.
	SentinelAllMissing = "Todos los datos"
)

// TotalsTolerance is the rounding slack allowed between subtotal+IVA and the
// stated total, in euros.
const TotalsTolerance = 0.05

// Validate checks a merged candidate for completeness and business-rule
// violations. It is pure and idempotent: the same candidate always yields an
// identical report, and the candidate is never mutated.
func Validate(c entity.ExtractionCandidate) entity.ValidationReport {
	report := entity.ValidationReport{
		MissingCritical: []string{},
		Warnings:        []string{},
	}

	if !c.HasAnyField() {
		report.MissingCritical = append(report.MissingCritical, SentinelAllMissing)
		return report
	}

	// Critical fields: provider identity (name or CIF), invoice number, total.
	if c.Provider.Empty() {
		report.MissingCritical = append(report.MissingCritical, MissingProvider)
	}
	if !c.InvoiceNumber.Present() {
		report.MissingCritical = append(report.MissingCritical, MissingInvoiceNumber)
	}
	if !c.Total.Present() {
		report.MissingCritical = append(report.MissingCritical, MissingTotal)
	}
	report.IsComplete = len(report.MissingCritical) == 0

	// Warnings are non-blocking findings, in a fixed order.
	if cif := c.Provider.CIF; cif.Present() {
		checked := cif.Valid != nil && !*cif.Valid
		if checked || (cif.Valid == nil && !extract.ValidateCIF(*cif.Value)) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("CIF con dígito de control no válido: %s", *cif.Value))
		}
	}
	if c.Subtotal.Present() && c.IVA.Amount.Present() && c.Total.Present() {
		sum := *c.Subtotal.Value + *c.IVA.Amount.Value
		if math.Abs(sum-*c.Total.Value) > TotalsTolerance {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("El subtotal más IVA (%.2f) no cuadra con el total (%.2f)", sum, *c.Total.Value))
		}
	}
	if !c.InvoiceDate.Present() {
		report.Warnings = append(report.Warnings, "Falta la fecha de factura")
	}
	if !c.DueDate.Present() {
		report.Warnings = append(report.Warnings, "Falta la fecha de vencimiento")
	}

	return report
}
