package ocr

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF extracts the text layer of every page, row by row, with a
// form-feed between pages so downstream consumers can count them.
func readPDF(r io.Reader) (string, int, error) {
	// the reader needs random access and the total size, so buffer first
	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(r)
	if err != nil {
		return "", 0, fmt.Errorf("read pdf bytes: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), size)
	if err != nil {
		return "", 0, fmt.Errorf("parse pdf: %w", err)
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			// a broken page should not lose the rest of the document
			continue
		}
		if i > 1 {
			b.WriteString("\n\f\n")
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), numPages, nil
}
