package server

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"imovelhub/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupApp(t *testing.T) (*fiber.App, uuid.UUID) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Collection{}, &domain.Listing{}, &domain.ChangeEvent{}))
	return NewApp(db, ""), uuid.New()
}

func TestListCollections_MissingScope(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/api/v1/collections", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "error", result["status"])
}

func TestCreateAndListCollections(t *testing.T) {
	app, userID := setupApp(t)

	body, _ := json.Marshal(map[string]interface{}{"label": "Favoritos", "isDefault": true})
	req := httptest.NewRequest("POST", "/api/v1/collections", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-User", userID.String())
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/v1/collections", nil)
	req.Header.Set("X-Owner-User", userID.String())
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result struct {
		Status string              `json:"status"`
		Data   []domain.Collection `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "success", result.Status)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "Favoritos", result.Data[0].Label)
	assert.True(t, result.Data[0].IsDefault)
}

func TestUpdateCollection_InvalidID(t *testing.T) {
	app, userID := setupApp(t)

	body, _ := json.Marshal(map[string]interface{}{"label": "X"})
	req := httptest.NewRequest("PATCH", "/api/v1/collections/not-a-uuid", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-User", userID.String())
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestCreateListing_AndFetch(t *testing.T) {
	app, userID := setupApp(t)

	body, _ := json.Marshal(map[string]interface{}{"label": "Casas"})
	req := httptest.NewRequest("POST", "/api/v1/collections", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-User", userID.String())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var created struct {
		Data domain.Collection `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	body, _ = json.Marshal(map[string]interface{}{"titulo": "Casa 1", "endereco": "Rua X", "preco": 500000})
	req = httptest.NewRequest("POST", "/api/v1/collections/"+created.Data.ID.String()+"/listings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-User", userID.String())
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/v1/collections/"+created.Data.ID.String()+"/listings", nil)
	req.Header.Set("X-Owner-User", userID.String())
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var listed struct {
		Data []domain.Listing `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "Casa 1", listed.Data[0].Title)
}

func TestPublicCollection_UnknownToken(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/api/v1/public/no-such-token", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
