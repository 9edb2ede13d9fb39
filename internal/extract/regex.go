package extract

import (
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/entity"
)

// Per-field confidence assigned by pattern specificity. A labeled match
// ("Nº factura: F-2024/001") scores higher than a bare-shape fallback.
const (
	confLabeled  = 90
	confKeyword  = 80
	confFallback = 70
	confWeak     = 60
	confGuess    = 50
)

// weights used for the candidate-level confidence aggregation. Only measured
// fields add weight, so finding more fields never lowers the score.
var fieldWeights = map[string]int{
	"document_type":  5,
	"invoice_number": 20,
	"invoice_date":   10,
	"provider_name":  15,
	"provider_cif":   15,
	"subtotal":       5,
	"iva":            5,
	"total":          20,
	"payment_method": 5,
}

// RegexExtractor derives a structured candidate from raw OCR text using
// pattern rules. Every field is extracted independently.
type RegexExtractor struct {
	logger *slog.Logger
}

func NewRegexExtractor(logger *slog.Logger) *RegexExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegexExtractor{logger: logger}
}

// Extract parses text into a candidate. It returns nil (not an empty
// candidate) when the text is too short to attempt extraction, which the
// orchestrator uses to skip straight to the AI extractor.
func (e *RegexExtractor) Extract(text string) *entity.ExtractionCandidate {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < constants.MinTextLength {
		e.logger.Debug("extract.regex.skipped", "text_len", len(trimmed))
		return nil
	}

	c := &entity.ExtractionCandidate{
		DocumentType:  extractDocumentType(trimmed),
		InvoiceNumber: extractInvoiceNumber(trimmed),
		InvoiceDate:   extractInvoiceDate(trimmed),
		DueDate:       extractDueDate(trimmed),
		Provider:      extractProviderIdentity(trimmed),
		PaymentMethod: extractPaymentMethod(trimmed),
		Concepts:      extractConcepts(trimmed),
	}
	c.Subtotal = extractMoney(trimmed, reSubtotal)
	c.IVA = extractIVA(trimmed)
	c.Total = extractMoney(trimmed, reTotal)
	c.Confidence = aggregateConfidence(c)

	e.logger.Debug("extract.regex.done",
		"confidence", c.Confidence,
		"invoice_number", c.InvoiceNumber.Present(),
		"provider_cif", c.Provider.CIF.Present(),
		"total", c.Total.Present(),
	)
	return c
}

func extractDocumentType(text string) entity.Field[string] {
	switch {
	case reDocFactura.MatchString(text):
		return entity.NewField("factura", confLabeled)
	case reDocTicket.MatchString(text):
		return entity.NewField("ticket", confKeyword)
	case reDocAlbaran.MatchString(text):
		return entity.NewField("albaran", confKeyword)
	case reDocRecibo.MatchString(text):
		return entity.NewField("recibo", confKeyword)
	case reDocPresupuesto.MatchString(text):
		return entity.NewField("presupuesto", confKeyword)
	}
	return entity.Field[string]{}
}

func extractInvoiceNumber(text string) entity.Field[string] {
	if m := reInvoiceNumLabeled.FindStringSubmatch(text); m != nil {
		return entity.NewField(strings.TrimRight(m[1], "."), confLabeled)
	}
	if m := reInvoiceNumAfter.FindStringSubmatch(text); m != nil {
		return entity.NewField(strings.TrimRight(m[1], "."), confKeyword)
	}
	if m := reInvoiceNumLoose.FindStringSubmatch(text); m != nil {
		return entity.NewField(m[1], confFallback)
	}
	return entity.Field[string]{}
}

func extractInvoiceDate(text string) entity.Field[string] {
	if m := reDateInvoice.FindStringSubmatch(text); m != nil {
		if iso, ok := normalizeDate(m[1]); ok {
			return entity.NewField(iso, confLabeled)
		}
	}
	if m := reDateLong.FindStringSubmatch(text); m != nil {
		if iso, ok := normalizeLongDate(m[1], m[2], m[3]); ok {
			return entity.NewField(iso, confKeyword)
		}
	}
	if m := reDateBare.FindStringSubmatch(text); m != nil {
		if iso, ok := normalizeDate(m[1]); ok {
			return entity.NewField(iso, confWeak)
		}
	}
	return entity.Field[string]{}
}

func extractDueDate(text string) entity.Field[string] {
	if m := reDateDue.FindStringSubmatch(text); m != nil {
		if iso, ok := normalizeDate(m[1]); ok {
			return entity.NewField(iso, confLabeled)
		}
	}
	return entity.Field[string]{}
}

func extractProviderIdentity(text string) entity.ProviderIdentity {
	var id entity.ProviderIdentity

	// CIF: a labeled match wins; an invalid checksum does not reject the
	// field, it only sets Valid=false for downstream consumers to weigh.
	if m := reCIFLabeled.FindStringSubmatch(text); m != nil {
		cif := NormalizeCIF(m[1])
		id.CIF = entity.NewValidatedField(cif, confLabeled, ValidateCIF(cif))
	} else if m := reCIFBare.FindStringSubmatch(text); m != nil {
		cif := NormalizeCIF(m[1])
		id.CIF = entity.NewValidatedField(cif, confFallback, ValidateCIF(cif))
	}

	if m := reCompanyLine.FindStringSubmatch(text); m != nil {
		id.Name = entity.NewField(strings.TrimSpace(m[1]), confKeyword)
	} else if name := firstPlausibleLine(text); name != "" {
		id.Name = entity.NewField(name, confGuess)
	}

	if m := reAddr.FindStringSubmatch(text); m != nil {
		id.Address = entity.NewField(strings.TrimSpace(m[1]), confFallback)
	}
	if m := rePhone.FindString(text); m != "" {
		id.Phone = entity.NewField(strings.TrimSpace(m), confFallback)
	}
	if m := reEmail.FindString(text); m != "" {
		id.Email = entity.NewField(m, confKeyword)
	}
	return id
}

// firstPlausibleLine falls back to the head of the document for a provider
// name: invoices almost always open with the issuer's letterhead.
func firstPlausibleLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		l := strings.TrimSpace(line)
		if len(l) < 3 || len(l) > 60 {
			continue
		}
		if reDocFactura.MatchString(l) || reDocTicket.MatchString(l) ||
			reCIFLabeled.MatchString(l) || reDateBare.MatchString(l) {
			continue
		}
		return l
	}
	return ""
}

func extractMoney(text string, re *regexp.Regexp) entity.Field[float64] {
	if m := re.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			return entity.NewField(v, confKeyword)
		}
	}
	return entity.Field[float64]{}
}

func extractIVA(text string) entity.IVA {
	if m := reIVA.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[2]); ok {
			iva := entity.IVA{Amount: entity.NewField(v, confLabeled)}
			if pct, ok := parseAmount(m[1]); ok {
				iva.Percentage = &pct
			}
			return iva
		}
	}
	if m := reIVAPlain.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			return entity.IVA{Amount: entity.NewField(v, confFallback)}
		}
	}
	return entity.IVA{}
}

func extractPaymentMethod(text string) entity.Field[string] {
	for _, pm := range paymentMethods {
		if pm.re.MatchString(text) {
			return entity.NewField(pm.label, confKeyword)
		}
	}
	return entity.Field[string]{}
}

func extractConcepts(text string) []entity.Concept {
	var out []entity.Concept
	for _, m := range reConceptLine.FindAllStringSubmatch(text, 50) {
		qty, okQ := parseAmount(m[2])
		unit, okU := parseAmount(m[3])
		amount, okA := parseAmount(m[4])
		if !okQ || !okU || !okA {
			continue
		}
		desc := strings.TrimSpace(m[1])
		if desc == "" {
			continue
		}
		out = append(out, entity.Concept{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   unit,
			Amount:      amount,
		})
	}
	return out
}

// aggregateConfidence scores the candidate from the weighted per-field
// confidences of the fields that were actually found. Monotonic: an extra
// field can only add to the sum.
func aggregateConfidence(c *entity.ExtractionCandidate) int {
	score := 0.0
	add := func(name string, conf int, present bool) {
		if present {
			score += float64(fieldWeights[name]) * float64(conf) / 100.0
		}
	}
	add("document_type", c.DocumentType.Confidence, c.DocumentType.Present())
	add("invoice_number", c.InvoiceNumber.Confidence, c.InvoiceNumber.Present())
	add("invoice_date", c.InvoiceDate.Confidence, c.InvoiceDate.Present())
	add("provider_name", c.Provider.Name.Confidence, c.Provider.Name.Present())
	add("provider_cif", c.Provider.CIF.Confidence, c.Provider.CIF.Present())
	add("subtotal", c.Subtotal.Confidence, c.Subtotal.Present())
	add("iva", c.IVA.Amount.Confidence, c.IVA.Amount.Present())
	add("total", c.Total.Confidence, c.Total.Present())
	add("payment_method", c.PaymentMethod.Confidence, c.PaymentMethod.Present())

	conf := int(math.Round(score))
	if conf > 100 {
		conf = 100
	}
	return conf
}
