package merge

import (
	"strconv"
	"strings"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/entity"
	"github.com/neo44hd/docarchive/internal/extract"
	"github.com/neo44hd/docarchive/internal/llm"
)

// Merge reconciles the regex candidate with the AI flat record into the one
// candidate that gets persisted.
//
// The rule is strict precedence, not confidence weighting: a regex hit, even
// a low-confidence one, always wins over an AI value, because pattern-
// anchored extraction is the more trustworthy source whenever it fires.
// AI-sourced fields get the fixed confidence policy from constants since the
// model reports bare values. Either input may be nil.
func Merge(rx *entity.ExtractionCandidate, ai *llm.InvoiceFields) entity.ExtractionCandidate {
	var out entity.ExtractionCandidate
	if rx != nil {
		out = *rx
	}

	if ai != nil {
		out.DocumentType = mergeString(out.DocumentType, ai.DocumentType, constants.AIPrimaryConfidence)
		out.InvoiceNumber = mergeString(out.InvoiceNumber, ai.InvoiceNumber, constants.AIPrimaryConfidence)
		out.InvoiceDate = mergeString(out.InvoiceDate, ai.InvoiceDate, constants.AIPrimaryConfidence)
		out.DueDate = mergeString(out.DueDate, ai.DueDate, constants.AIPrimaryConfidence)

		out.Provider.Name = mergeString(out.Provider.Name, ai.ProviderName, constants.AIPrimaryConfidence)
		out.Provider.CIF = mergeCIF(out.Provider.CIF, ai.ProviderCIF)
		out.Provider.Address = mergeString(out.Provider.Address, ai.ProviderAddress, constants.AISecondaryConfidence)
		out.Provider.Phone = mergeString(out.Provider.Phone, ai.ProviderPhone, constants.AISecondaryConfidence)
		out.Provider.Email = mergeString(out.Provider.Email, ai.ProviderEmail, constants.AISecondaryConfidence)

		out.Subtotal = mergeMoney(out.Subtotal, ai.Subtotal, constants.AIPrimaryConfidence)
		out.IVA = mergeIVA(out.IVA, ai)
		out.Total = mergeMoney(out.Total, ai.Total, constants.AIPrimaryConfidence)
		out.PaymentMethod = mergeString(out.PaymentMethod, ai.PaymentMethod, constants.AISecondaryConfidence)

		if len(out.Concepts) == 0 && len(ai.LineItems) > 0 {
			out.Concepts = toConcepts(ai.LineItems)
		}
	}

	out.Confidence = candidateConfidence(rx, ai)
	return out
}

// candidateConfidence floors the merged score at AICandidateConfidence when
// an AI record contributed; a pure-regex merge passes its score through.
func candidateConfidence(rx *entity.ExtractionCandidate, ai *llm.InvoiceFields) int {
	conf := 0
	if rx != nil {
		conf = rx.Confidence
	}
	if ai != nil && conf < constants.AICandidateConfidence {
		conf = constants.AICandidateConfidence
	}
	return conf
}

func mergeString(rx entity.Field[string], aiVal string, conf int) entity.Field[string] {
	if rx.Present() {
		return rx
	}
	if s := strings.TrimSpace(aiVal); s != "" {
		return entity.NewField(s, conf)
	}
	return rx
}

// mergeCIF wraps an AI-supplied CIF with its checksum verdict; validity is
// computed once here, at extraction time, not re-derived later.
func mergeCIF(rx entity.Field[string], aiVal string) entity.Field[string] {
	if rx.Present() {
		return rx
	}
	cif := extract.NormalizeCIF(aiVal)
	if cif == "" {
		return rx
	}
	return entity.NewValidatedField(cif, constants.AIPrimaryConfidence, extract.ValidateCIF(cif))
}

func mergeMoney(rx entity.Field[float64], aiVal string, conf int) entity.Field[float64] {
	if rx.Present() {
		return rx
	}
	v, ok := parseDecimal(aiVal)
	if !ok {
		return rx
	}
	return entity.NewField(v, conf)
}

func mergeIVA(rx entity.IVA, ai *llm.InvoiceFields) entity.IVA {
	if rx.Amount.Present() {
		return rx
	}
	v, ok := parseDecimal(ai.IVAAmount)
	if !ok {
		return rx
	}
	out := entity.IVA{Amount: entity.NewField(v, constants.AIPrimaryConfidence)}
	if ai.IVAPercentage > 0 {
		pct := ai.IVAPercentage
		out.Percentage = &pct
	}
	return out
}

func toConcepts(items []llm.LineItem) []entity.Concept {
	out := make([]entity.Concept, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			continue
		}
		out = append(out, entity.Concept{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	return out
}

func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
