package server

import (
	"encoding/json"
	"errors"

	"imovelhub/internal/domain"
	"imovelhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers exposes the collection/listing service over HTTP.
type Handlers struct {
	Service *Service
}

// scopeFrom reads the owner scope headers. Exactly one must be set.
func scopeFrom(c *fiber.Ctx) (Scope, error) {
	var scope Scope
	if s := c.Get("X-Owner-User"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return scope, errors.New("Invalid X-Owner-User header")
		}
		scope.UserID = &id
	}
	if s := c.Get("X-Owner-Org"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return scope, errors.New("Invalid X-Owner-Org header")
		}
		scope.OrgID = &id
	}
	if !scope.valid() {
		return scope, ErrMissingScope
	}
	return scope, nil
}

func svcError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrCollectionNotFound), errors.Is(err, ErrListingNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound)
	case errors.Is(err, ErrLabelRequired), errors.Is(err, ErrTitleAddrRequired), errors.Is(err, ErrMissingScope):
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	default:
		return response.Error(c, err.Error(), fiber.StatusInternalServerError)
	}
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, errors.New("Invalid id: " + param)
	}
	return id, nil
}

// GET /api/v1/collections
func (h *Handlers) ListCollections(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	cols, err := h.Service.ListCollections(c.Context(), scope)
	if err != nil {
		return svcError(c, err)
	}
	if cols == nil {
		cols = []domain.Collection{}
	}
	return response.Success(c, "Collections fetched successfully", cols)
}

// POST /api/v1/collections
func (h *Handlers) CreateCollection(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	var body struct {
		Label     string `json:"label"`
		IsDefault bool   `json:"isDefault"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest)
	}
	col, err := h.Service.CreateCollection(c.Context(), scope, body.Label, body.IsDefault)
	if err != nil {
		return svcError(c, err)
	}
	return response.SuccessCreated(c, "Collection created successfully", col)
}

// PATCH /api/v1/collections/:id
func (h *Handlers) UpdateCollection(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	var patch domain.CollectionPatch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest)
	}
	col, err := h.Service.UpdateCollection(c.Context(), scope, id, patch)
	if err != nil {
		return svcError(c, err)
	}
	return response.Success(c, "Collection updated successfully", col)
}

// DELETE /api/v1/collections/:id
func (h *Handlers) DeleteCollection(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	if err := h.Service.DeleteCollection(c.Context(), scope, id); err != nil {
		return svcError(c, err)
	}
	return response.Success(c, "Collection deleted successfully", fiber.Map{"deleted": true})
}

// GET /api/v1/collections/:id/listings
func (h *Handlers) ListListings(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	listings, err := h.Service.ListListings(c.Context(), id)
	if err != nil {
		return svcError(c, err)
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	return response.Success(c, "Listings fetched successfully", listings)
}

// POST /api/v1/collections/:id/listings
func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	var data domain.ListingData
	if err := json.Unmarshal(c.Body(), &data); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest)
	}
	listing, err := h.Service.CreateListing(c.Context(), id, data)
	if err != nil {
		return svcError(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", listing)
}

// PATCH /api/v1/collections/:id/listings/:listingId
func (h *Handlers) UpdateListing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	listingID, err := parseID(c, "listingId")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	var patch domain.ListingPatch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest)
	}
	listing, err := h.Service.UpdateListing(c.Context(), id, listingID, patch)
	if err != nil {
		return svcError(c, err)
	}
	return response.Success(c, "Listing updated successfully", listing)
}

// DELETE /api/v1/collections/:id/listings/:listingId
func (h *Handlers) DeleteListing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	listingID, err := parseID(c, "listingId")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest)
	}
	if err := h.Service.DeleteListing(c.Context(), id, listingID); err != nil {
		return svcError(c, err)
	}
	return response.Success(c, "Listing deleted successfully", fiber.Map{"deleted": true})
}

// GET /api/v1/public/:token — anonymous read-only share link.
func (h *Handlers) PublicCollection(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return response.Error(c, "Missing share token", fiber.StatusBadRequest)
	}
	col, listings, err := h.Service.FindByShareToken(c.Context(), token)
	if err != nil {
		return svcError(c, err)
	}
	return response.Success(c, "Collection fetched successfully", fiber.Map{
		"collection": col,
		"listings":   listings,
	})
}
