package importer

import (
	"context"
	"fmt"
	"sync"

	"imovelhub/internal/domain"
	"imovelhub/internal/importformat"
	"imovelhub/internal/remote"

	"github.com/rs/zerolog/log"
)

// Reconciler turns normalized import groups into persisted collections and
// listings through the remote API. It never mutates any local cache; the
// caller refreshes its state store after the batch settles.
type Reconciler struct {
	API remote.API
}

// Summary is the outcome of one import batch. Partial failure is reported
// here, not raised: a failed collection-create skips that group's listings,
// a failed listing-create drops only that listing.
type Summary struct {
	Created         []domain.Collection
	GroupsCreated   int
	GroupsFailed    int
	ListingsCreated int
	ListingsFailed  int
	Dropped         int
	Errors          []error
}

// UniqueLabel disambiguates desired against the taken set by appending a
// parenthesized numeric suffix starting at 2: "Casas", "Casas (2)",
// "Casas (3)". Matching is exact and case-sensitive. Suffixes are unbounded,
// so this always terminates with a fresh label.
func UniqueLabel(desired string, taken map[string]struct{}) string {
	if _, exists := taken[desired]; !exists {
		return desired
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", desired, n)
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}

// Import persists every group in order. Collection creates are strictly
// sequential so the collision set stays current across the batch; listing
// creates within one group run concurrently and the call returns only after
// all of them settle.
func (r *Reconciler) Import(ctx context.Context, groups []importformat.Group, existingLabels []string) Summary {
	taken := make(map[string]struct{}, len(existingLabels))
	for _, l := range existingLabels {
		taken[l] = struct{}{}
	}

	var sum Summary
	for _, g := range groups {
		sum.Dropped += g.Dropped

		label := UniqueLabel(g.Label, taken)
		col, err := r.API.CreateCollection(ctx, remote.CreateCollectionInput{Label: label})
		if err != nil {
			// Listings of a failed group are never orphaned; the rest of
			// the batch still proceeds.
			sum.GroupsFailed++
			sum.ListingsFailed += len(g.Listings)
			sum.Errors = append(sum.Errors, fmt.Errorf("create collection %q: %w", label, err))
			log.Warn().Str("label", label).Err(err).Msg("Import: collection create failed, skipping group")
			continue
		}
		taken[label] = struct{}{}
		sum.Created = append(sum.Created, *col)
		sum.GroupsCreated++

		created, failed, errs := r.createListings(ctx, col, g.Listings)
		sum.ListingsCreated += created
		sum.ListingsFailed += failed
		sum.Errors = append(sum.Errors, errs...)
	}
	return sum
}

func (r *Reconciler) createListings(ctx context.Context, col *domain.Collection, listings []domain.ListingData) (created, failed int, errs []error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, data := range listings {
		wg.Add(1)
		go func(data domain.ListingData) {
			defer wg.Done()
			_, err := r.API.CreateListing(ctx, col.ID, data)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				errs = append(errs, fmt.Errorf("create listing %q in %q: %w", data.Title, col.Label, err))
				log.Warn().Str("title", data.Title).Str("label", col.Label).Err(err).Msg("Import: listing create failed")
				return
			}
			created++
		}(data)
	}
	wg.Wait()
	return created, failed, errs
}
