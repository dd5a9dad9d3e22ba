package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"imovelhub/internal/domain"
	"imovelhub/internal/export"
	"imovelhub/internal/importer"
	"imovelhub/internal/importformat"
	"imovelhub/internal/remote"
	"imovelhub/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Full round trip over a real HTTP boundary: the fiber app served through
// net/http, the remote client talking to it, and the import/store/export
// stack on top of the client.
func TestImportStoreExport_RoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Collection{}, &domain.Listing{}, &domain.ChangeEvent{}))

	srv := httptest.NewServer(adaptor.FiberApp(NewApp(db, "")))
	defer srv.Close()

	userID := uuid.New()
	client := &remote.Client{BaseURL: srv.URL, UserID: &userID}
	ctx := context.Background()

	existing, err := client.CreateCollection(ctx, remote.CreateCollectionInput{Label: "Imported", IsDefault: true})
	require.NoError(t, err)

	st := store.New(client, zerolog.Nop())
	require.NoError(t, st.Initialize(ctx))
	require.Equal(t, existing.ID, st.ActiveCollection().ID)

	// Two groups collide with the pre-existing label and with each other;
	// one raw entry has no address and must be dropped, not imported.
	doc := []byte(`{
		"version": "1.0",
		"collections": [
			{
				"collection": {"label": "Imported"},
				"listings": [
					{"titulo": "Casa A", "endereco": "Rua A, 1", "preco": 450000, "quartos": 3},
					{"titulo": "Casa B", "endereco": "Rua B, 2", "piscina": true}
				]
			},
			{
				"collection": {"label": "Imported"},
				"listings": [
					{"titulo": "Apto C", "endereco": "Av. C, 3", "tipoImovel": "apartamento"},
					{"titulo": "Sem endereco"}
				]
			}
		]
	}`)

	res, err := importformat.Normalize(doc, "")
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, 1, res.Dropped)

	rec := &importer.Reconciler{API: client}
	sum := rec.Import(ctx, res.Groups, st.Labels())
	assert.Equal(t, 2, sum.GroupsCreated)
	assert.Equal(t, 0, sum.GroupsFailed)
	assert.Equal(t, 3, sum.ListingsCreated)
	assert.Equal(t, 0, sum.ListingsFailed)
	assert.Equal(t, 1, sum.Dropped)
	require.Len(t, sum.Created, 2)
	assert.Equal(t, "Imported (2)", sum.Created[0].Label)
	assert.Equal(t, "Imported (3)", sum.Created[1].Label)

	require.NoError(t, st.Refresh(ctx))
	assert.ElementsMatch(t, []string{"Imported", "Imported (2)", "Imported (3)"}, st.Labels())
	// Active remains the default collection and still has nothing in it.
	assert.Equal(t, existing.ID, st.ActiveCollection().ID)
	assert.Empty(t, st.Listings())

	env, err := export.All(ctx, client, st.Collections(), export.ContextPersonal)
	require.NoError(t, err)
	assert.Equal(t, export.Version, env.Version)
	assert.Equal(t, export.ContextPersonal, env.Context)
	require.Len(t, env.Collections, 3)

	total := 0
	for _, g := range env.Collections {
		require.NotNil(t, g.Listings)
		total += len(g.Listings)
	}
	assert.Equal(t, 3, total)

	// The export must re-import cleanly, listing for listing.
	exported, err := json.Marshal(env)
	require.NoError(t, err)
	reimported, err := importformat.Normalize(exported, "")
	require.NoError(t, err)
	require.Len(t, reimported.Groups, 3)
	assert.Equal(t, 0, reimported.Dropped)
	assert.False(t, reimported.Empty())
}

func TestStoreMutations_OverHTTP(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Collection{}, &domain.Listing{}, &domain.ChangeEvent{}))

	srv := httptest.NewServer(adaptor.FiberApp(NewApp(db, "")))
	defer srv.Close()

	userID := uuid.New()
	client := &remote.Client{BaseURL: srv.URL, UserID: &userID}
	ctx := context.Background()

	st := store.New(client, zerolog.Nop())
	require.NoError(t, st.Initialize(ctx))

	col, err := st.CreateCollection(ctx, "Bairro Centro", false)
	require.NoError(t, err)
	require.NoError(t, st.SetActive(ctx, col.ID))

	price := 380000.0
	area := 95.0
	created, err := st.CreateListing(ctx, domain.ListingData{
		Title:     "Apto no centro",
		Address:   "Rua das Flores, 42",
		Price:     &price,
		TotalArea: &area,
	})
	require.NoError(t, err)
	require.NotNil(t, created.PricePerArea)
	assert.InDelta(t, 4000.0, *created.PricePerArea, 0.001)
	require.Len(t, st.Listings(), 1)

	starred := true
	updated, err := st.UpdateListing(ctx, created.ID, domain.ListingPatch{Starred: &starred})
	require.NoError(t, err)
	assert.True(t, updated.Starred)
	assert.True(t, st.Listings()[0].Starred)

	published, err := st.Publish(ctx, col.ID)
	require.NoError(t, err)
	require.NotNil(t, published.ShareToken)

	// The share link works without any owner scope header.
	anon := srv.Client()
	resp, err := anon.Get(srv.URL + "/api/v1/public/" + *published.ShareToken)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Data struct {
			Collection domain.Collection `json:"collection"`
			Listings   []domain.Listing  `json:"listings"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Bairro Centro", body.Data.Collection.Label)
	require.Len(t, body.Data.Listings, 1)

	require.NoError(t, st.DeleteListing(ctx, created.ID))
	assert.Empty(t, st.Listings())
	require.NoError(t, st.DeleteCollection(ctx, col.ID))
	assert.NotContains(t, st.Labels(), "Bairro Centro")
}
