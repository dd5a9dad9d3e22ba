package export

import (
	"context"
	"fmt"
	"time"

	"imovelhub/internal/domain"
	"imovelhub/internal/remote"
)

// Version tags every envelope this serializer emits. The normalizer accepts
// untagged (legacy) documents; the serializer never produces one.
const Version = "1.0"

// Export context discriminators for the full envelope.
const (
	ContextPersonal     = "personal"
	ContextOrganization = "organization"
)

// CollectionMeta is the collection metadata carried in an envelope.
type CollectionMeta struct {
	Label     string    `json:"label"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// Group is one {collection, listings} pair of the full envelope.
type Group struct {
	Collection CollectionMeta   `json:"collection"`
	Listings   []domain.Listing `json:"listings"`
}

// SingleEnvelope is the single-collection export shape.
type SingleEnvelope struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exportedAt"`
	Collection CollectionMeta   `json:"collection"`
	Listings   []domain.Listing `json:"listings"`
}

// FullEnvelope is the multi-collection export shape.
type FullEnvelope struct {
	Version     string    `json:"version"`
	ExportedAt  time.Time `json:"exportedAt"`
	Context     string    `json:"context"`
	Collections []Group   `json:"collections"`
}

func meta(c domain.Collection) CollectionMeta {
	return CollectionMeta{Label: c.Label, IsDefault: c.IsDefault, CreatedAt: c.CreatedAt}
}

// Single wraps one collection and its listings in a versioned envelope.
// Pure projection: nothing is mutated, every listing field rides along.
func Single(col domain.Collection, listings []domain.Listing) SingleEnvelope {
	if listings == nil {
		listings = []domain.Listing{}
	}
	return SingleEnvelope{
		Version:    Version,
		ExportedAt: time.Now().UTC(),
		Collection: meta(col),
		Listings:   listings,
	}
}

// All fetches every collection's listings and wraps them in the full
// envelope. scopeContext is ContextPersonal or ContextOrganization. Group
// order follows the given collection order; no cross-collection fetch
// ordering is guaranteed beyond that.
func All(ctx context.Context, api remote.API, cols []domain.Collection, scopeContext string) (*FullEnvelope, error) {
	env := &FullEnvelope{
		Version:     Version,
		ExportedAt:  time.Now().UTC(),
		Context:     scopeContext,
		Collections: make([]Group, 0, len(cols)),
	}
	for _, c := range cols {
		listings, err := api.ListListings(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", c.Label, err)
		}
		if listings == nil {
			listings = []domain.Listing{}
		}
		env.Collections = append(env.Collections, Group{Collection: meta(c), Listings: listings})
	}
	return env, nil
}
