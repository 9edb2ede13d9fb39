package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neo44hd/docarchive/constants"
	"github.com/neo44hd/docarchive/internal/entity"
)

// MemoryDocumentStore is an in-memory DocumentRepository for tests and the
// -inmem CLI mode. It preserves insertion order for List.
type MemoryDocumentStore struct {
	mu    sync.RWMutex
	docs  map[uuid.UUID]*entity.Document
	order []uuid.UUID
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: make(map[uuid.UUID]*entity.Document)}
}

var _ DocumentRepository = (*MemoryDocumentStore)(nil)

func (s *MemoryDocumentStore) Create(_ context.Context, doc *entity.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	cp := *doc
	s.docs[doc.ID] = &cp
	s.order = append(s.order, doc.ID)
	return nil
}

func (s *MemoryDocumentStore) Get(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, errNotFound)
	}
	cp := *doc
	return &cp, nil
}

func (s *MemoryDocumentStore) List(_ context.Context, status *constants.DocumentStatus, limit int) ([]*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Document
	for _, id := range s.order {
		doc := s.docs[id]
		if status != nil && doc.ProcessingStatus != *status {
			continue
		}
		cp := *doc
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryDocumentStore) UpdateStatus(_ context.Context, id uuid.UUID, status constants.DocumentStatus) error {
	return s.mutate(id, func(d *entity.Document) {
		d.ProcessingStatus = status
	})
}

func (s *MemoryDocumentStore) MarkProcessing(_ context.Context, id uuid.UUID, startedAt time.Time) error {
	return s.mutate(id, func(d *entity.Document) {
		d.ProcessingStatus = constants.StatusProcessing
		t := startedAt.UTC()
		d.ProcessingStartedAt = &t
		d.ErrorMessage = nil
	})
}

func (s *MemoryDocumentStore) SaveOCR(_ context.Context, id uuid.UUID, ocr *entity.OCRResult) error {
	return s.mutate(id, func(d *entity.Document) {
		d.OCRResult = ocr
	})
}

func (s *MemoryDocumentStore) SaveExtraction(_ context.Context, id uuid.UUID, rec *entity.ExtractionCandidate, report *entity.ValidationReport, status constants.DocumentStatus) error {
	return s.mutate(id, func(d *entity.Document) {
		d.ExtractedRecord = rec
		d.Validation = report
		d.ProcessingStatus = status
	})
}

func (s *MemoryDocumentStore) SaveRecord(_ context.Context, id uuid.UUID, rec *entity.ExtractionCandidate, manuallyEdited bool) error {
	return s.mutate(id, func(d *entity.Document) {
		d.ExtractedRecord = rec
		d.ManuallyEdited = manuallyEdited
	})
}

func (s *MemoryDocumentStore) SaveProviderLink(_ context.Context, id uuid.UUID, link *entity.ProviderLink) error {
	return s.mutate(id, func(d *entity.Document) {
		d.ProviderLink = link
	})
}

func (s *MemoryDocumentStore) SaveError(_ context.Context, id uuid.UUID, message string) error {
	return s.mutate(id, func(d *entity.Document) {
		d.ProcessingStatus = constants.StatusError
		d.ErrorMessage = &message
	})
}

func (s *MemoryDocumentStore) ResetForReprocess(_ context.Context, id uuid.UUID) error {
	return s.mutate(id, func(d *entity.Document) {
		d.ProcessingStatus = constants.StatusPending
		d.OCRResult = nil
		d.ExtractedRecord = nil
		d.Validation = nil
		d.ErrorMessage = nil
		d.ManuallyEdited = false
		d.ProcessingStartedAt = nil
	})
}

func (s *MemoryDocumentStore) mutate(id uuid.UUID, fn func(*entity.Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, errNotFound)
	}
	fn(doc)
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// MemoryProviderStore is an in-memory ProviderRepository. Filter results come
// back in insertion order, which makes first-match-wins deterministic in
// tests.
type MemoryProviderStore struct {
	mu        sync.RWMutex
	providers []*entity.Provider
}

func NewMemoryProviderStore() *MemoryProviderStore {
	return &MemoryProviderStore{}
}

var _ ProviderRepository = (*MemoryProviderStore)(nil)

func (s *MemoryProviderStore) FilterByCIF(_ context.Context, cif string) ([]*entity.Provider, error) {
	return s.filter(func(p *entity.Provider) bool { return p.CIF == cif })
}

func (s *MemoryProviderStore) FilterByName(_ context.Context, name string) ([]*entity.Provider, error) {
	return s.filter(func(p *entity.Provider) bool { return p.Name == name })
}

func (s *MemoryProviderStore) filter(match func(*entity.Provider) bool) ([]*entity.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Provider
	for _, p := range s.providers {
		if match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryProviderStore) Create(_ context.Context, p *entity.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	s.providers = append(s.providers, &cp)
	return nil
}

func (s *MemoryProviderStore) Get(_ context.Context, id uuid.UUID) (*entity.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.providers {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("provider %s: %w", id, errNotFound)
}
