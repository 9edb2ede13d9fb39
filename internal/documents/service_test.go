package documents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/common"
	"github.com/neo44hd/docarchive/internal/entity"
	"github.com/neo44hd/docarchive/internal/repository"
)

func newService() (*Service, *repository.MemoryDocumentStore, *repository.MemoryProviderStore) {
	docs := repository.NewMemoryDocumentStore()
	provs := repository.NewMemoryProviderStore()
	return NewService(nil, docs, provs), docs, provs
}

func TestRegisterInfersContentType(t *testing.T) {
	svc, _, _ := newService()

	doc, err := svc.Register(context.Background(), "/archivo/facturas/2024/marzo.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, constants.ContentTypePDF, doc.ContentType)
	assert.Equal(t, constants.StatusPending, doc.ProcessingStatus)
	assert.NotEqual(t, uuid.Nil, doc.ID)

	fetched, err := svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.FileURL, fetched.FileURL)
}

func TestRegisterRejectsUnsupportedFiles(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Register(context.Background(), "/archivo/notas.docx", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Register(context.Background(), "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRegisterKeepsExplicitContentType(t *testing.T) {
	svc, _, _ := newService()

	doc, err := svc.Register(context.Background(), "/archivo/escaneo.bin", constants.ContentTypePNG)
	require.NoError(t, err)
	assert.Equal(t, constants.ContentTypePNG, doc.ContentType)
}

func TestUpdateRecordMarksManualEdit(t *testing.T) {
	svc, docs, _ := newService()
	doc, err := svc.Register(context.Background(), "/archivo/f.pdf", "")
	require.NoError(t, err)

	rec := &entity.ExtractionCandidate{
		InvoiceNumber: entity.NewField("CORREGIDO-1", 100),
		Confidence:    100,
	}
	require.NoError(t, svc.UpdateRecord(context.Background(), doc.ID, rec))

	stored, err := docs.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.ManuallyEdited)
	require.NotNil(t, stored.ExtractedRecord)
	assert.Equal(t, "CORREGIDO-1", stored.ExtractedRecord.InvoiceNumber.Or(""))
	// the correction is stored verbatim, no re-validation happens
	assert.Nil(t, stored.Validation)
	assert.Equal(t, constants.StatusPending, stored.ProcessingStatus)
}

func TestUpdateRecordRejectsNil(t *testing.T) {
	svc, _, _ := newService()
	err := svc.UpdateRecord(context.Background(), uuid.New(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestLinkAndUnlinkProvider(t *testing.T) {
	ctx := context.Background()
	svc, docs, provs := newService()

	doc, err := svc.Register(ctx, "/archivo/f.pdf", "")
	require.NoError(t, err)
	prov := &entity.Provider{
		ID:        uuid.New(),
		Name:      "Proveedor Manual S.L.",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, provs.Create(ctx, prov))

	link, err := svc.LinkProvider(ctx, doc.ID, prov.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LinkTypeLinked, link.Type)
	assert.Equal(t, entity.LinkMethodManual, link.Method)
	assert.Equal(t, "Proveedor Manual S.L.", link.Name)

	stored, _ := docs.Get(ctx, doc.ID)
	require.NotNil(t, stored.ProviderLink)
	assert.Equal(t, prov.ID, stored.ProviderLink.ProviderID)

	require.NoError(t, svc.UnlinkProvider(ctx, doc.ID))
	stored, _ = docs.Get(ctx, doc.ID)
	assert.Nil(t, stored.ProviderLink)

	// the provider record itself survives the unlink
	_, err = provs.Get(ctx, prov.ID)
	assert.NoError(t, err)
}

func TestLinkProviderUnknownProvider(t *testing.T) {
	svc, _, _ := newService()
	doc, err := svc.Register(context.Background(), "/archivo/f.pdf", "")
	require.NoError(t, err)

	_, err = svc.LinkProvider(context.Background(), doc.ID, uuid.New())
	assert.Error(t, err)
}
