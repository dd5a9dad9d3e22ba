package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"imovelhub/internal/domain"
	"imovelhub/internal/importformat"
	"imovelhub/internal/remote"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAPI serves the read-only export path; mutations are never reached.
type stubAPI struct {
	listings map[uuid.UUID][]domain.Listing
}

func (s *stubAPI) ListListings(ctx context.Context, id uuid.UUID) ([]domain.Listing, error) {
	return s.listings[id], nil
}

func (s *stubAPI) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	return nil, nil
}

func (s *stubAPI) CreateCollection(ctx context.Context, in remote.CreateCollectionInput) (*domain.Collection, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAPI) UpdateCollection(ctx context.Context, id uuid.UUID, patch domain.CollectionPatch) (*domain.Collection, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAPI) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

func (s *stubAPI) CreateListing(ctx context.Context, collectionID uuid.UUID, data domain.ListingData) (*domain.Listing, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAPI) UpdateListing(ctx context.Context, collectionID, listingID uuid.UUID, patch domain.ListingPatch) (*domain.Listing, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAPI) DeleteListing(ctx context.Context, collectionID, listingID uuid.UUID) error {
	return errors.New("not implemented")
}

func sampleListing(collectionID uuid.UUID, title string) domain.Listing {
	price := 420000.0
	area := 70.0
	lat, lng := -23.5505, -46.6333
	ptype := domain.PropertyTypeApartment
	pool := true
	return domain.Listing{
		ID:           uuid.New(),
		CollectionID: collectionID,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		ListingData: domain.ListingData{
			Title:        title,
			Address:      "Av. Paulista, 1000",
			Price:        &price,
			TotalArea:    &area,
			PricePerArea: domain.ComputePricePerArea(&price, &area),
			PropertyType: &ptype,
			Pool:         &pool,
			CustomLat:    &lat,
			CustomLng:    &lng,
			Starred:      true,
			AddedAt:      time.Now().UTC().Truncate(time.Second),
		},
	}
}

func TestSingle_Envelope(t *testing.T) {
	col := domain.Collection{ID: uuid.New(), Label: "Favoritos", IsDefault: true, CreatedAt: time.Now().UTC()}
	env := Single(col, []domain.Listing{sampleListing(col.ID, "Apto 71")})

	assert.Equal(t, Version, env.Version)
	assert.False(t, env.ExportedAt.IsZero())
	assert.Equal(t, "Favoritos", env.Collection.Label)
	assert.Len(t, env.Listings, 1)
}

func TestSingle_NilListingsEmitsEmptyArray(t *testing.T) {
	col := domain.Collection{ID: uuid.New(), Label: "Vazia"}
	env := Single(col, nil)

	bs, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"listings":[]`)
}

func TestRoundTrip_SingleExportThroughNormalizer(t *testing.T) {
	col := domain.Collection{ID: uuid.New(), Label: "Favoritos", CreatedAt: time.Now().UTC()}
	original := sampleListing(col.ID, "Apto 71")
	env := Single(col, []domain.Listing{original})

	bs, err := json.Marshal(env)
	require.NoError(t, err)

	res, err := importformat.Normalize(bs, "")
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	g := res.Groups[0]
	assert.Equal(t, "Favoritos", g.Label)
	require.Len(t, g.Listings, 1)
	assert.Zero(t, g.Dropped)

	// Ids and server timestamps are re-derived on import; every
	// user-meaningful field survives the trip.
	got := g.Listings[0]
	assert.Equal(t, original.Title, got.Title)
	assert.Equal(t, original.Address, got.Address)
	assert.Equal(t, *original.Price, *got.Price)
	assert.Equal(t, *original.TotalArea, *got.TotalArea)
	assert.Equal(t, *original.PricePerArea, *got.PricePerArea)
	assert.Equal(t, *original.PropertyType, *got.PropertyType)
	assert.Equal(t, *original.Pool, *got.Pool)
	assert.Equal(t, *original.CustomLat, *got.CustomLat)
	assert.Equal(t, *original.CustomLng, *got.CustomLng)
	assert.True(t, got.Starred)
	assert.True(t, original.AddedAt.Equal(got.AddedAt))
}

func TestRoundTrip_FullExportThroughNormalizer(t *testing.T) {
	colA := domain.Collection{ID: uuid.New(), Label: "Casas"}
	colB := domain.Collection{ID: uuid.New(), Label: "Aptos"}
	api := &stubAPI{listings: map[uuid.UUID][]domain.Listing{
		colA.ID: {sampleListing(colA.ID, "Casa 1")},
		colB.ID: {sampleListing(colB.ID, "Apto 1"), sampleListing(colB.ID, "Apto 2")},
	}}

	env, err := All(context.Background(), api, []domain.Collection{colA, colB}, ContextPersonal)
	require.NoError(t, err)
	assert.Equal(t, ContextPersonal, env.Context)
	require.Len(t, env.Collections, 2)

	bs, err := json.Marshal(env)
	require.NoError(t, err)
	res, err := importformat.Normalize(bs, "")
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "Casas", res.Groups[0].Label)
	assert.Equal(t, "Aptos", res.Groups[1].Label)
	assert.Len(t, res.Groups[1].Listings, 2)
	assert.Equal(t, "Apto 1", res.Groups[1].Listings[0].Title)
}
