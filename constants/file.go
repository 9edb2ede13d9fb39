package constants

import "strings"

// Content types the pipeline knows how to run text extraction for.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"
	ContentTypeText = "text/plain"
)

// RequiresTextExtraction reports whether the OCR stage should run for the
// given content type. Plain text documents skip straight to extraction.
func RequiresTextExtraction(contentType string) bool {
	switch normalizeContentType(contentType) {
	case ContentTypePDF, ContentTypePNG, ContentTypeJPEG:
		return true
	}
	return false
}

// ContentTypeForExt maps a file extension to a content type, or "" when the
// extension is not supported.
func ContentTypeForExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return ContentTypePDF
	case "png":
		return ContentTypePNG
	case "jpg", "jpeg":
		return ContentTypeJPEG
	case "txt":
		return ContentTypeText
	}
	return ""
}

func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
