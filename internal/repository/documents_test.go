package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/common"
	"github.com/neo44hd/docarchive/internal/entity"
)

func sqliteDocuments(t *testing.T) DocumentRepository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "archive.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDocumentRepository(db, DialectSQLite, testLogger())
}

func newPendingDoc() *entity.Document {
	return &entity.Document{
		ID:               uuid.New(),
		FileURL:          "/archivo/facturas/f.pdf",
		ContentType:      constants.ContentTypePDF,
		ProcessingStatus: constants.StatusPending,
	}
}

func TestDocumentCreateAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := sqliteDocuments(t)

	doc := newPendingDoc()
	require.NoError(t, repo.Create(ctx, doc))

	got, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.FileURL, got.FileURL)
	assert.Equal(t, constants.StatusPending, got.ProcessingStatus)
	assert.False(t, got.ManuallyEdited)
	assert.Nil(t, got.OCRResult)
	assert.Nil(t, got.ErrorMessage)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestDocumentGetNotFound(t *testing.T) {
	repo := sqliteDocuments(t)
	_, err := repo.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestDocumentUpdateNotFound(t *testing.T) {
	repo := sqliteDocuments(t)
	err := repo.UpdateStatus(context.Background(), uuid.New(), constants.StatusProcessing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestDocumentFullLifecyclePersists(t *testing.T) {
	ctx := context.Background()
	repo := sqliteDocuments(t)

	doc := newPendingDoc()
	require.NoError(t, repo.Create(ctx, doc))

	started := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.MarkProcessing(ctx, doc.ID, started))
	require.NoError(t, repo.UpdateStatus(ctx, doc.ID, constants.StatusOCR))
	require.NoError(t, repo.SaveOCR(ctx, doc.ID, &entity.OCRResult{
		Success:    true,
		Text:       "FACTURA ...",
		Confidence: 95,
		Pages:      []entity.OCRPage{{Method: entity.PageMethodDirect}},
	}))

	rec := &entity.ExtractionCandidate{
		InvoiceNumber: entity.NewField("FAC-1", 90),
		Provider: entity.ProviderIdentity{
			CIF: entity.NewValidatedField("B12345674", 90, true),
		},
		Total:      entity.NewField(1210.0, 80),
		Confidence: 77,
	}
	report := &entity.ValidationReport{IsComplete: true, MissingCritical: []string{}, Warnings: []string{}}
	require.NoError(t, repo.SaveExtraction(ctx, doc.ID, rec, report, constants.StatusCompleted))

	link := &entity.ProviderLink{
		Type:       entity.LinkTypeCreated,
		ProviderID: uuid.New(),
		Name:       "Acme S.L.",
		Method:     entity.LinkMethodAuto,
	}
	require.NoError(t, repo.SaveProviderLink(ctx, doc.ID, link))

	got, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, got.ProcessingStatus)
	require.NotNil(t, got.ProcessingStartedAt)
	assert.WithinDuration(t, started, *got.ProcessingStartedAt, time.Second)
	require.NotNil(t, got.OCRResult)
	assert.Equal(t, "FACTURA ...", got.OCRResult.Text)
	require.NotNil(t, got.ExtractedRecord)
	assert.Equal(t, "FAC-1", got.ExtractedRecord.InvoiceNumber.Or(""))
	require.NotNil(t, got.ExtractedRecord.Provider.CIF.Valid)
	assert.True(t, *got.ExtractedRecord.Provider.CIF.Valid)
	require.NotNil(t, got.Validation)
	assert.True(t, got.Validation.IsComplete)
	require.NotNil(t, got.ProviderLink)
	assert.Equal(t, link.ProviderID, got.ProviderLink.ProviderID)
}

func TestDocumentSaveErrorAndReset(t *testing.T) {
	ctx := context.Background()
	repo := sqliteDocuments(t)

	doc := newPendingDoc()
	require.NoError(t, repo.Create(ctx, doc))
	require.NoError(t, repo.SaveOCR(ctx, doc.ID, &entity.OCRResult{Success: true, Text: "x"}))
	require.NoError(t, repo.SaveRecord(ctx, doc.ID, &entity.ExtractionCandidate{Confidence: 10}, true))
	require.NoError(t, repo.SaveError(ctx, doc.ID, "ocr backend down"))

	got, _ := repo.Get(ctx, doc.ID)
	assert.Equal(t, constants.StatusError, got.ProcessingStatus)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "ocr backend down", *got.ErrorMessage)
	assert.True(t, got.ManuallyEdited)

	link := &entity.ProviderLink{Type: entity.LinkTypeLinked, ProviderID: uuid.New(), Name: "P", Method: entity.LinkMethodManual}
	require.NoError(t, repo.SaveProviderLink(ctx, doc.ID, link))
	require.NoError(t, repo.ResetForReprocess(ctx, doc.ID))

	got, _ = repo.Get(ctx, doc.ID)
	assert.Equal(t, constants.StatusPending, got.ProcessingStatus)
	assert.Nil(t, got.OCRResult)
	assert.Nil(t, got.ExtractedRecord)
	assert.Nil(t, got.Validation)
	assert.Nil(t, got.ErrorMessage)
	assert.Nil(t, got.ProcessingStartedAt)
	assert.False(t, got.ManuallyEdited)
	// the provider link is the one thing a reset keeps
	require.NotNil(t, got.ProviderLink)
	assert.Equal(t, link.ProviderID, got.ProviderLink.ProviderID)
}

func TestDocumentUnlinkStoresNull(t *testing.T) {
	ctx := context.Background()
	repo := sqliteDocuments(t)

	doc := newPendingDoc()
	require.NoError(t, repo.Create(ctx, doc))
	require.NoError(t, repo.SaveProviderLink(ctx, doc.ID, &entity.ProviderLink{
		Type: entity.LinkTypeLinked, ProviderID: uuid.New(), Name: "P", Method: entity.LinkMethodManual,
	}))
	require.NoError(t, repo.SaveProviderLink(ctx, doc.ID, nil))

	got, _ := repo.Get(ctx, doc.ID)
	assert.Nil(t, got.ProviderLink)
}

func TestDocumentListFilterAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := sqliteDocuments(t)

	var ids []uuid.UUID
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		d := newPendingDoc()
		d.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, d))
		ids = append(ids, d.ID)
	}
	require.NoError(t, repo.UpdateStatus(ctx, ids[1], constants.StatusCompleted))

	pending := constants.StatusPending
	got, err := repo.List(ctx, &pending, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[0], got[0].ID)
	assert.Equal(t, ids[2], got[1].ID)

	got, err = repo.List(ctx, &pending, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ids[0], got[0].ID)

	all, err := repo.List(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRebind(t *testing.T) {
	q := `UPDATE documents SET a = ?, b = ? WHERE id = ?`
	assert.Equal(t, q, rebind(DialectSQLite, q))
	assert.Equal(t, `UPDATE documents SET a = $1, b = $2 WHERE id = $3`, rebind(DialectPostgres, q))
}
