package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Pattern rules for Spanish invoices and tickets. Labeled patterns carry a
// higher confidence than bare-shape fallbacks; the extractor tries them in
// order and keeps the first hit.

var (
	reDocFactura        = regexp.MustCompile(`(?i)\bFACTURA(?:\s+(?:SIMPLIFICADA|RECTIFICATIVA|PROFORMA))?\b`)
	reDocTicket         = regexp.MustCompile(`(?i)\b(?:TICKET|TIQUE)\b`)
	reDocAlbaran        = regexp.MustCompile(`(?i)\bALBAR[ÁA]N\b`)
	reDocRecibo         = regexp.MustCompile(`(?i)\bRECIBO\b`)
	reDocPresupuesto    = regexp.MustCompile(`(?i)\bPRESUPUESTO\b`)

	reInvoiceNumLabeled = regexp.MustCompile(`(?i)(?:n[ºo°]\.?|n[uú]m(?:ero)?\.?)\s*(?:de\s+)?factura\s*[:#]?\s*([A-Z0-9][A-Z0-9\-/.]{1,24})`)
	reInvoiceNumAfter   = regexp.MustCompile(`(?i)factura\s*(?:n[ºo°]\.?|n[uú]m\.?)?\s*[:#]\s*([A-Z0-9][A-Z0-9\-/.]{1,24})`)
	reInvoiceNumLoose   = regexp.MustCompile(`(?i)\bfactura\s+([A-Z]{0,4}[\-/]?\d{2,12}(?:[\-/]\d{1,6})?)\b`)

	reDateInvoice = regexp.MustCompile(`(?i)fecha(?:\s+de)?\s*(?:factura|emisi[oó]n|expedici[oó]n)?\s*[:.]?\s*(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`)
	reDateDue     = regexp.MustCompile(`(?i)(?:fecha\s+de\s+)?vencimiento\s*[:.]?\s*(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`)
	reDateLong    = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)\s+de\s+(\d{4})`)
	reDateBare    = regexp.MustCompile(`\b(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})\b`)

	reCIFLabeled = regexp.MustCompile(`(?i)(?:C\.?I\.?F\.?|N\.?I\.?F\.?)\s*[:.]?\s*([ABCDEFGHJKLMNPQRSUVW][\-. ]?\d{7}[\-. ]?[0-9A-J])\b`)
	reCIFBare    = regexp.MustCompile(`\b([ABCDEFGHJKLMNPQRSUVW]\d{7}[0-9A-J])\b`)

	reCompanyLine = regexp.MustCompile(`(?m)^[ \t]*([A-ZÁÉÍÓÚÑ&][\wÁÉÍÓÚÑáéíóúñ&.,\- ]{1,58}(?:S\.?L\.?U?|S\.?A\.?U?|S\.?C\.?P?|C\.?B)\.?)[ \t]*$`)

	reTotal    = regexp.MustCompile(`(?i)total(?:\s+(?:factura|a\s+pagar|importe))?\s*[:.]?\s*([0-9][0-9.,]*)\s*€?`)
	reSubtotal = regexp.MustCompile(`(?i)(?:subtotal|base\s+imponible|importe\s+bruto)\s*[:.]?\s*([0-9][0-9.,]*)\s*€?`)
	reIVA      = regexp.MustCompile(`(?i)I\.?V\.?A\.?\s*\(?\s*(\d{1,2}(?:[.,]\d{1,2})?)\s*%\s*\)?\s*[:.]?\s*([0-9][0-9.,]*)\s*€?`)
	reIVAPlain = regexp.MustCompile(`(?i)I\.?V\.?A\.?\s*[:.]?\s*([0-9][0-9.,]*)\s*€?`)

	reEmail = regexp.MustCompile(`\b[\w.%+\-]+@[\w.\-]+\.[A-Za-z]{2,}\b`)
	rePhone = regexp.MustCompile(`(?:\+34[\s.\-]?)?\b[6789]\d{2}[\s.\-]?\d{2}[\s.\-]?\d{2}[\s.\-]?\d{2}\b`)
	reAddr  = regexp.MustCompile(`(?im)^[ \t]*((?:calle|c/|avda\.?|avenida|plaza|pza\.?|paseo|p[ºo]\.?|pol[íi]gono|carretera|ctra\.?|camino)\s+[^\n]{3,78})$`)

	reConceptLine = regexp.MustCompile(`(?m)^[ \t]*(\D.{2,58}?)\s{2,}(\d{1,4}(?:[.,]\d{1,2})?)\s+([0-9][0-9.,]*)\s+([0-9][0-9.,]*)[ \t]*€?[ \t]*$`)
)

// payment method keywords mapped to canonical labels.
var paymentMethods = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)\btransferencia\b`), "transferencia"},
	{regexp.MustCompile(`(?i)\bdomiciliaci[oó]n\b|\brecibo\s+domiciliado\b`), "domiciliacion"},
	{regexp.MustCompile(`(?i)\btarjeta\b`), "tarjeta"},
	{regexp.MustCompile(`(?i)\befectivo\b|\bcontado\b`), "efectivo"},
	{regexp.MustCompile(`(?i)\bbizum\b`), "bizum"},
	{regexp.MustCompile(`(?i)\bcheque\b|\bpagar[ée]\b`), "cheque"},
}

var spanishMonths = map[string]string{
	"enero": "01", "febrero": "02", "marzo": "03", "abril": "04",
	"mayo": "05", "junio": "06", "julio": "07", "agosto": "08",
	"septiembre": "09", "octubre": "10", "noviembre": "11", "diciembre": "12",
}

// parseAmount converts Spanish ("1.234,56") or plain ("1234.56") number
// formats to a float. Returns false for unparseable input.
func parseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.Trim(raw, "€ \t"))
	if s == "" {
		return 0, false
	}
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')
	switch {
	case lastComma > lastDot:
		// comma is the decimal separator, dots are thousands
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma:
		// dot is the decimal separator, commas are thousands
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// normalizeDate converts "dd/mm/yyyy" (and - or . separators, two-digit
// years) to ISO "yyyy-mm-dd". Returns false when the parts are not a
// plausible day/month.
func normalizeDate(raw string) (string, bool) {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return "", false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if year < 100 {
		year += 2000
	}
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1990 || year > 2099 {
		return "", false
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(year))
	b.WriteByte('-')
	if month < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(month))
	b.WriteByte('-')
	if day < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(day))
	return b.String(), true
}

// normalizeLongDate converts a "15 de marzo de 2024" match to ISO form.
func normalizeLongDate(day, month, year string) (string, bool) {
	m, ok := spanishMonths[strings.ToLower(month)]
	if !ok {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	if d < 10 {
		return year + "-" + m + "-0" + day, true
	}
	return year + "-" + m + "-" + day, true
}
