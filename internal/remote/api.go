package remote

import (
	"context"
	"fmt"

	"imovelhub/internal/domain"

	"github.com/google/uuid"
)

// CreateCollectionInput is the payload for a collection create.
type CreateCollectionInput struct {
	Label     string `json:"label"`
	IsDefault bool   `json:"isDefault"`
}

// API is the collection/listing REST surface the client stack consumes.
// The remote service owns persistence; every returned object is the
// server's canonical version.
type API interface {
	ListCollections(ctx context.Context) ([]domain.Collection, error)
	CreateCollection(ctx context.Context, in CreateCollectionInput) (*domain.Collection, error)
	UpdateCollection(ctx context.Context, id uuid.UUID, patch domain.CollectionPatch) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, id uuid.UUID) error

	ListListings(ctx context.Context, collectionID uuid.UUID) ([]domain.Listing, error)
	CreateListing(ctx context.Context, collectionID uuid.UUID, data domain.ListingData) (*domain.Listing, error)
	UpdateListing(ctx context.Context, collectionID, listingID uuid.UUID, patch domain.ListingPatch) (*domain.Listing, error)
	DeleteListing(ctx context.Context, collectionID, listingID uuid.UUID) error
}

// OperationError is any failed remote call: transport failure (StatusCode 0)
// or a non-success HTTP status.
type OperationError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *OperationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": remote operation failed"
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
