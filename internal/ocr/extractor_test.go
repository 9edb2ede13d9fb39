package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/entity"
)

type stubRemote struct {
	res   entity.OCRResult
	err   error
	calls int
}

func (s *stubRemote) Recognize(context.Context, string, string) (entity.OCRResult, error) {
	s.calls++
	return s.res, s.err
}

func TestImagesGoStraightToRemote(t *testing.T) {
	remote := &stubRemote{res: entity.OCRResult{
		Success:    true,
		Text:       "texto reconocido",
		Confidence: 80,
		Pages:      []entity.OCRPage{{Method: entity.PageMethodOCR}},
	}}
	e := NewExtractor(Config{}, remote, nil)

	res, err := e.ProcessDocument(context.Background(), "/tmp/escaneo.png", constants.ContentTypePNG)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, "texto reconocido", res.Text)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, entity.PageMethodOCR, res.Pages[0].Method)
}

func TestUnreadablePDFFallsBackToRemote(t *testing.T) {
	remote := &stubRemote{res: entity.OCRResult{Success: true, Text: "desde ocr"}}
	e := NewExtractor(Config{}, remote, nil)

	res, err := e.ProcessDocument(context.Background(), "/no/existe.pdf", constants.ContentTypePDF)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, "desde ocr", res.Text)
}

func TestNoRecognitionPathIsAnError(t *testing.T) {
	e := NewExtractor(Config{}, nil, nil)

	_, err := e.ProcessDocument(context.Background(), "/tmp/escaneo.jpg", constants.ContentTypeJPEG)
	assert.Error(t, err)

	_, err = e.ProcessDocument(context.Background(), "/no/existe.pdf", constants.ContentTypePDF)
	assert.Error(t, err)
}

func TestPlainTextIsReadDirectly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factura.txt")
	require.NoError(t, os.WriteFile(path, []byte("FACTURA Nº A-100"), 0o600))
	e := NewExtractor(Config{}, nil, nil)

	res, err := e.ProcessDocument(context.Background(), "file://"+path, constants.ContentTypeText)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "FACTURA Nº A-100", res.Text)
	assert.Equal(t, float32(100), res.Confidence)
	assert.Empty(t, res.Pages)
}

func TestPlainTextMissingFileIsAnError(t *testing.T) {
	e := NewExtractor(Config{}, &stubRemote{}, nil)

	_, err := e.ProcessDocument(context.Background(), "/no/existe.txt", constants.ContentTypeText)
	assert.Error(t, err)
}

func TestRemoteErrorPropagates(t *testing.T) {
	boom := errors.New("service quota exceeded")
	e := NewExtractor(Config{}, &stubRemote{err: boom}, nil)

	_, err := e.ProcessDocument(context.Background(), "/tmp/escaneo.png", constants.ContentTypePNG)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
