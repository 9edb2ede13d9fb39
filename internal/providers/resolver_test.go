package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo44hd/docarchive/internal/entity"
	"github.com/neo44hd/docarchive/internal/repository"
)

func seedProvider(t *testing.T, store repository.ProviderRepository, name, cif string) *entity.Provider {
	t.Helper()
	p := &entity.Provider{
		ID:        uuid.New(),
		Name:      name,
		CIF:       cif,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func TestResolveByCIFReturnsStoredName(t *testing.T) {
	store := repository.NewMemoryProviderStore()
	stored := seedProvider(t, store, "Suministros del Norte S.L.", "B12345674")

	// the extracted name differs from the stored one; the link must carry
	// the stored name
	identity := entity.ProviderIdentity{
		Name: entity.NewField("SUMINISTROS NORTE", 50),
		CIF:  entity.NewValidatedField("B-12.345.674", 90, true),
	}
	link, err := NewResolver(store, nil).Resolve(context.Background(), identity, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, entity.LinkTypeLinked, link.Type)
	assert.Equal(t, entity.LinkMethodCIF, link.Method)
	assert.Equal(t, stored.ID, link.ProviderID)
	assert.Equal(t, "Suministros del Norte S.L.", link.Name)
}

func TestResolveByNameWhenCIFUnknown(t *testing.T) {
	store := repository.NewMemoryProviderStore()
	stored := seedProvider(t, store, "Ferreteria Garcia S.A.", "")

	identity := entity.ProviderIdentity{
		Name: entity.NewField("Ferreteria Garcia S.A.", 80),
	}
	link, err := NewResolver(store, nil).Resolve(context.Background(), identity, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, entity.LinkTypeLinked, link.Type)
	assert.Equal(t, entity.LinkMethodName, link.Method)
	assert.Equal(t, stored.ID, link.ProviderID)
}

func TestResolveCreatesWhenUnmatched(t *testing.T) {
	store := repository.NewMemoryProviderStore()
	docID := uuid.New()

	identity := entity.ProviderIdentity{
		Name:  entity.NewField("Nueva Empresa S.L.", 80),
		CIF:   entity.NewValidatedField("B12345674", 90, true),
		Email: entity.NewField("info@nueva.es", 80),
	}
	link, err := NewResolver(store, nil).Resolve(context.Background(), identity, docID)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, entity.LinkTypeCreated, link.Type)
	assert.Equal(t, entity.LinkMethodAuto, link.Method)
	assert.Equal(t, "Nueva Empresa S.L.", link.Name)

	created, err := store.Get(context.Background(), link.ProviderID)
	require.NoError(t, err)
	assert.True(t, created.AutoCreated)
	require.NotNil(t, created.CreatedFromDocument)
	assert.Equal(t, docID, *created.CreatedFromDocument)
	assert.Equal(t, "B12345674", created.CIF)
	assert.Equal(t, "info@nueva.es", created.Email)
	assert.Equal(t, "", created.Address)
}

func TestResolveEmptyIdentityCreatesNothing(t *testing.T) {
	store := repository.NewMemoryProviderStore()

	identity := entity.ProviderIdentity{
		// address alone does not identify a provider
		Address: entity.NewField("Calle Mayor 12", 70),
	}
	link, err := NewResolver(store, nil).Resolve(context.Background(), identity, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, link)

	all, err := store.FilterByName(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestResolveCIFCollisionFirstWins(t *testing.T) {
	store := repository.NewMemoryProviderStore()
	first := seedProvider(t, store, "Duplicada Uno S.L.", "B12345674")
	seedProvider(t, store, "Duplicada Dos S.L.", "B12345674")

	identity := entity.ProviderIdentity{
		CIF: entity.NewValidatedField("B12345674", 90, true),
	}
	link, err := NewResolver(store, nil).Resolve(context.Background(), identity, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, first.ID, link.ProviderID)
	assert.Equal(t, "Duplicada Uno S.L.", link.Name)
}

type failingProviderStore struct {
	repository.ProviderRepository
	err error
}

func (s *failingProviderStore) FilterByCIF(context.Context, string) ([]*entity.Provider, error) {
	return nil, s.err
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	store := &failingProviderStore{ProviderRepository: repository.NewMemoryProviderStore(), err: boom}

	identity := entity.ProviderIdentity{
		CIF: entity.NewValidatedField("B12345674", 90, true),
	}
	link, err := NewResolver(store, nil).Resolve(context.Background(), identity, uuid.New())
	assert.Nil(t, link)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
