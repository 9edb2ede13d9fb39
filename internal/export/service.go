package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/entity"
	"github.com/neo44hd/docarchive/internal/repository"
)

// Service is a tiny façade over the document store that produces XLSX bytes
// for exports.
type Service struct {
	documents repository.DocumentRepository
	logger    *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{documents: docs, logger: logger}
}

// ExportDocumentsXLSX returns an XLSX workbook (as bytes) with one row per
// document, optionally filtered by status. Headers are in Spanish because
// the workbook goes straight to the back-office operators.
func (s *Service) ExportDocumentsXLSX(ctx context.Context, status *constants.DocumentStatus) ([]byte, error) {
	start := time.Now()

	docs, err := s.documents.List(ctx, status, 0)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Documentos"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop excelize's default sheet.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Fecha factura",
		"Número de factura",
		"Proveedor",
		"CIF",
		"Base imponible",
		"IVA",
		"Total",
		"Forma de pago",
		"Estado",
		"Confianza",
		"Avisos",
		"Archivo",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		rec := d.ExtractedRecord
		if rec == nil {
			rec = &entity.ExtractionCandidate{}
		}

		write(1, rec.InvoiceDate.Or(""))
		write(2, rec.InvoiceNumber.Or(""))
		// Prefer the linked provider's stored name over the raw extraction.
		providerName := rec.Provider.Name.Or("")
		if d.ProviderLink != nil {
			providerName = d.ProviderLink.Name
		}
		write(3, providerName)
		write(4, rec.Provider.CIF.Or(""))
		writeAmount(write, 5, rec.Subtotal)
		writeAmount(write, 6, rec.IVA.Amount)
		writeAmount(write, 7, rec.Total)
		write(8, rec.PaymentMethod.Or(""))
		write(9, string(d.ProcessingStatus))
		write(10, rec.Confidence)
		warnings := ""
		if d.Validation != nil {
			warnings = strings.Join(d.Validation.Warnings, "; ")
		}
		write(11, truncate(warnings, 140))
		write(12, d.FileURL)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 18) // invoice number
	_ = f.SetColWidth(sheet, "C", "C", 28) // provider
	_ = f.SetColWidth(sheet, "D", "D", 12) // cif
	_ = f.SetColWidth(sheet, "E", "G", 14) // amounts
	_ = f.SetColWidth(sheet, "K", "K", 48) // warnings
	_ = f.SetColWidth(sheet, "L", "L", 60) // file

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeAmount(write func(col int, v any), col int, f entity.Field[float64]) {
	if f.Present() {
		write(col, fmt.Sprintf("%.2f", *f.Value))
		return
	}
	write(col, "")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
