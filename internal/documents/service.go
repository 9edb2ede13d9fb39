package documents

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/common"
	"github.com/neo44hd/docarchive/internal/entity"
	"github.com/neo44hd/docarchive/internal/repository"
)

// Service covers the document lifecycle outside the pipeline itself:
// registration, manual record edits, and manual provider (un)linking.
type Service struct {
	logger    *slog.Logger
	documents repository.DocumentRepository
	providers repository.ProviderRepository
}

func NewService(logger *slog.Logger, docs repository.DocumentRepository, provs repository.ProviderRepository) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, documents: docs, providers: provs}
}

// Register files a new document at pending. The content type is derived from
// the file extension when not supplied.
func (s *Service) Register(ctx context.Context, fileURL, contentType string) (*entity.Document, error) {
	if fileURL == "" {
		return nil, common.NewAppError("INVALID_INPUT", "file URL is required", common.ErrInvalidInput)
	}
	if contentType == "" {
		contentType = constants.ContentTypeForExt(filepath.Ext(fileURL))
	}
	if contentType == "" {
		return nil, common.NewAppError("INVALID_INPUT", "unsupported file type: "+filepath.Ext(fileURL), common.ErrInvalidInput)
	}

	now := time.Now().UTC()
	doc := &entity.Document{
		ID:               uuid.New(),
		FileURL:          fileURL,
		ContentType:      contentType,
		ProcessingStatus: constants.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, common.WrapError(err, "failed to register document")
	}
	s.logger.Info("documents.registered", "document_id", doc.ID, "content_type", contentType)
	return doc, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	return s.documents.Get(ctx, id)
}

// List returns documents, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *constants.DocumentStatus, limit int) ([]*entity.Document, error) {
	return s.documents.List(ctx, status, limit)
}

// UpdateRecord overwrites the document's extracted record with an operator
// correction. The record is stored verbatim: no re-validation, no status
// change, no confidence recomputation. The manual-edit flag marks it so a
// later reprocess can warn before discarding the correction.
func (s *Service) UpdateRecord(ctx context.Context, id uuid.UUID, rec *entity.ExtractionCandidate) error {
	if rec == nil {
		return common.NewAppError("INVALID_INPUT", "record is required", common.ErrInvalidInput)
	}
	if err := s.documents.SaveRecord(ctx, id, rec, true); err != nil {
		return common.WrapError(err, "failed to update record")
	}
	s.logger.Info("documents.record_edited", "document_id", id)
	return nil
}

// LinkProvider attributes the document to an existing provider by hand,
// replacing any previous link.
func (s *Service) LinkProvider(ctx context.Context, id, providerID uuid.UUID) (*entity.ProviderLink, error) {
	prov, err := s.providers.Get(ctx, providerID)
	if err != nil {
		return nil, common.WrapError(err, "failed to load provider")
	}
	link := &entity.ProviderLink{
		Type:       entity.LinkTypeLinked,
		ProviderID: prov.ID,
		Name:       prov.Name,
		Method:     entity.LinkMethodManual,
	}
	if err := s.documents.SaveProviderLink(ctx, id, link); err != nil {
		return nil, common.WrapError(err, "failed to link provider")
	}
	s.logger.Info("documents.provider_linked", "document_id", id, "provider_id", providerID)
	return link, nil
}

// UnlinkProvider removes the document's provider attribution. The provider
// record itself is kept even when it was auto-created from this document.
func (s *Service) UnlinkProvider(ctx context.Context, id uuid.UUID) error {
	if err := s.documents.SaveProviderLink(ctx, id, nil); err != nil {
		return common.WrapError(err, "failed to unlink provider")
	}
	s.logger.Info("documents.provider_unlinked", "document_id", id)
	return nil
}
