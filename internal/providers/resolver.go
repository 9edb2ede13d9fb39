package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/neo44hd/docarchive/internal/entity"
	"github.com/neo44hd/docarchive/internal/extract"
	"github.com/neo44hd/docarchive/internal/repository"
)

// Resolver deterministically links an extracted provider identity to an
// existing provider record, or creates one. Manual link/unlink actions never
// go through here; they write the link directly.
type Resolver struct {
	store  repository.ProviderRepository
	logger *slog.Logger
}

func NewResolver(store repository.ProviderRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve applies the resolution order: CIF exact match, then name exact
// match, then create. An identity with neither CIF nor name returns nil —
// no placeholder provider is ever created. Store failures propagate.
func (r *Resolver) Resolve(ctx context.Context, identity entity.ProviderIdentity, documentID uuid.UUID) (*entity.ProviderLink, error) {
	if identity.Empty() {
		return nil, nil
	}

	if identity.CIF.Present() {
		cif := extract.NormalizeCIF(*identity.CIF.Value)
		matches, err := r.store.FilterByCIF(ctx, cif)
		if err != nil {
			return nil, fmt.Errorf("filter providers by cif: %w", err)
		}
		if len(matches) > 0 {
			// Duplicate CIFs should not occur; when they do, the store's
			// first row wins and we surface the collision for operators.
			if len(matches) > 1 {
				r.logger.Warn("provider cif collision",
					"cif", cif,
					"matched", len(matches),
					"chosen", matches[0].ID,
				)
			}
			return &entity.ProviderLink{
				Type:       entity.LinkTypeLinked,
				ProviderID: matches[0].ID,
				Name:       matches[0].Name,
				Method:     entity.LinkMethodCIF,
			}, nil
		}
	}

	if identity.Name.Present() {
		matches, err := r.store.FilterByName(ctx, *identity.Name.Value)
		if err != nil {
			return nil, fmt.Errorf("filter providers by name: %w", err)
		}
		if len(matches) > 0 {
			return &entity.ProviderLink{
				Type:       entity.LinkTypeLinked,
				ProviderID: matches[0].ID,
				Name:       matches[0].Name,
				Method:     entity.LinkMethodName,
			}, nil
		}
	}

	// No match by CIF nor name: create, seeded with whatever identity fields
	// exist (empty string for the rest) and tagged for audit.
	p := &entity.Provider{
		ID:                  uuid.New(),
		Name:                identity.Name.Or(""),
		CIF:                 extract.NormalizeCIF(identity.CIF.Or("")),
		Address:             identity.Address.Or(""),
		Phone:               identity.Phone.Or(""),
		Email:               identity.Email.Or(""),
		AutoCreated:         true,
		CreatedFromDocument: &documentID,
	}
	if err := r.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	r.logger.Info("provider auto-created",
		"provider_id", p.ID,
		"name", p.Name,
		"cif", p.CIF,
		"document_id", documentID,
	)
	return &entity.ProviderLink{
		Type:       entity.LinkTypeCreated,
		ProviderID: p.ID,
		Name:       p.Name,
		Method:     entity.LinkMethodAuto,
	}, nil
}
