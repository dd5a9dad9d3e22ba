package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"imovelhub/internal/domain"
	"imovelhub/internal/remote"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the store lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoadingCollections
	StateReady
)

// ErrNoActiveCollection is returned by listing mutations when no collection
// is active.
var ErrNoActiveCollection = errors.New("no active collection")

// Store is the single in-memory source of UI truth for which collections
// exist, which one is active and what listings it contains. One instance is
// constructed per session and injected into consumers; it holds nothing
// beyond the in-memory cache, so a restart always re-fetches.
//
// Every mutation goes remote-first: the API call is issued, and only the
// server's canonical returned object is merged into the cache. A failed call
// leaves the cache exactly as it was. Overlapping mutations are allowed to
// race; the last response to arrive wins, except that a listings fetch whose
// collection is no longer active is discarded on arrival.
type Store struct {
	api remote.API
	log zerolog.Logger

	mu              sync.Mutex
	state           State
	collections     []domain.Collection
	activeID        uuid.UUID
	listings        []domain.Listing
	loadingListings bool
	listingsGen     uint64
	refreshCount    uint64
}

// New builds a store around the given API. Call Initialize before use.
func New(api remote.API, logger zerolog.Logger) *Store {
	return &Store{api: api, log: logger}
}

// Initialize fetches all collections for the owner scope and selects the
// default one (or the first returned). With zero collections the store is
// ready with no active collection. On failure the store returns to
// uninitialized and the same call can be retried.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoadingCollections
	s.mu.Unlock()

	cols, err := s.api.ListCollections(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateUninitialized
		s.mu.Unlock()
		return fmt.Errorf("load collections: %w", err)
	}

	s.mu.Lock()
	s.collections = cols
	s.state = StateReady
	s.activeID = uuid.Nil
	s.listings = nil
	if len(cols) > 0 {
		s.activeID = pickActive(cols)
	}
	active := s.activeID
	s.mu.Unlock()

	if active != uuid.Nil {
		s.loadListings(ctx, active)
	}
	return nil
}

// Dispose clears the cache and invalidates any in-flight listings fetch.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUninitialized
	s.collections = nil
	s.activeID = uuid.Nil
	s.listings = nil
	s.listingsGen++
	s.loadingListings = false
}

// pickActive prefers the default collection, falling back to the first.
func pickActive(cols []domain.Collection) uuid.UUID {
	for _, c := range cols {
		if c.IsDefault {
			return c.ID
		}
	}
	return cols[0].ID
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Collections returns a copy of the cached collections.
func (s *Store) Collections() []domain.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Collection, len(s.collections))
	copy(out, s.collections)
	return out
}

// Labels returns the cached collection labels in cache order, for the
// import reconciler's collision set.
func (s *Store) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c.Label)
	}
	return out
}

// ActiveCollection returns a copy of the active collection, or nil.
func (s *Store) ActiveCollection() *domain.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.collections {
		if c.ID == s.activeID {
			col := c
			return &col
		}
	}
	return nil
}

// Listings returns a copy of the active collection's cached listings.
func (s *Store) Listings() []domain.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

// LoadingListings reports whether a listings fetch for the active
// collection is still in flight.
func (s *Store) LoadingListings() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingListings
}

// RefreshCount is a monotonic counter bumped on every successful mutation.
// It carries no payload; observers only learn that something changed.
func (s *Store) RefreshCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCount
}

// SetActive switches the active collection and reloads its listings. The
// reload is staleness-guarded: if the active collection changes again before
// the fetch resolves, the stale result is discarded on arrival.
func (s *Store) SetActive(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if !s.hasCollectionLocked(id) {
		s.mu.Unlock()
		return fmt.Errorf("unknown collection %s", id)
	}
	s.activeID = id
	s.mu.Unlock()

	s.loadListings(ctx, id)
	return nil
}

func (s *Store) hasCollectionLocked(id uuid.UUID) bool {
	for _, c := range s.collections {
		if c.ID == id {
			return true
		}
	}
	return false
}

// loadListings fetches listings for id and applies them only if id is still
// the active collection and no newer fetch was dispatched meanwhile. A fetch
// failure logs and leaves an empty listing set; it never propagates.
func (s *Store) loadListings(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	s.listingsGen++
	gen := s.listingsGen
	s.loadingListings = true
	s.mu.Unlock()

	listings, err := s.api.ListListings(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	// The flag belongs to the newest dispatched fetch; only that one may
	// clear it. A superseded fetch leaves it for its successor.
	if gen == s.listingsGen {
		s.loadingListings = false
	}
	if gen != s.listingsGen || id != s.activeID {
		s.log.Debug().Str("collection_id", id.String()).Msg("Discarding stale listings response")
		return
	}
	if err != nil {
		s.log.Error().Str("collection_id", id.String()).Err(err).Msg("Listings fetch failed, falling back to empty set")
		s.listings = nil
		return
	}
	s.listings = listings
}

// Refresh re-fetches the collection list (e.g. after an import batch) and
// reloads listings for the then-active collection. If the previously active
// collection disappeared, the default (or first) remaining one takes over.
func (s *Store) Refresh(ctx context.Context) error {
	cols, err := s.api.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("refresh collections: %w", err)
	}

	s.mu.Lock()
	s.collections = cols
	if !s.hasCollectionLocked(s.activeID) {
		s.activeID = uuid.Nil
		s.listings = nil
		if len(cols) > 0 {
			s.activeID = pickActive(cols)
		}
	}
	active := s.activeID
	s.mu.Unlock()

	if active != uuid.Nil {
		s.loadListings(ctx, active)
	}
	return nil
}

// CreateCollection creates remotely, then merges. No optimistic insert: an
// entity that might fail to persist is never shown.
func (s *Store) CreateCollection(ctx context.Context, label string, isDefault bool) (*domain.Collection, error) {
	col, err := s.api.CreateCollection(ctx, remote.CreateCollectionInput{Label: label, IsDefault: isDefault})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if col.IsDefault {
		s.clearDefaultsLocked(col.ID)
	}
	s.collections = append(s.collections, *col)
	s.refreshCount++
	s.mu.Unlock()
	return col, nil
}

// UpdateCollection patches remotely and replaces the cached entry with the
// server's full returned object, so derived fields stay correct. When the
// result is marked default, every other cached collection loses the flag in
// the same state update.
func (s *Store) UpdateCollection(ctx context.Context, id uuid.UUID, patch domain.CollectionPatch) (*domain.Collection, error) {
	col, err := s.api.UpdateCollection(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if col.IsDefault {
		s.clearDefaultsLocked(col.ID)
	}
	for i := range s.collections {
		if s.collections[i].ID == col.ID {
			s.collections[i] = *col
			break
		}
	}
	s.refreshCount++
	s.mu.Unlock()
	return col, nil
}

// clearDefaultsLocked unsets is_default on every collection except keep.
// At most one default may ever be visible, even transiently.
func (s *Store) clearDefaultsLocked(keep uuid.UUID) {
	for i := range s.collections {
		if s.collections[i].ID != keep {
			s.collections[i].IsDefault = false
		}
	}
}

// SetDefault marks id as the default collection.
func (s *Store) SetDefault(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	t := true
	return s.UpdateCollection(ctx, id, domain.CollectionPatch{IsDefault: &t})
}

// Rename changes a collection's label.
func (s *Store) Rename(ctx context.Context, id uuid.UUID, label string) (*domain.Collection, error) {
	return s.UpdateCollection(ctx, id, domain.CollectionPatch{Label: &label})
}

// Publish makes the collection publicly readable via a share token.
func (s *Store) Publish(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	t := true
	return s.UpdateCollection(ctx, id, domain.CollectionPatch{IsPublic: &t})
}

// Unpublish revokes the share token.
func (s *Store) Unpublish(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	f := false
	return s.UpdateCollection(ctx, id, domain.CollectionPatch{IsPublic: &f})
}

// DeleteCollection deletes remotely and drops the cached entry. When the
// deleted collection is the active one, the successor (default, else first
// of the remaining) is chosen before the deletion is confirmed, so the
// client never points at a nonexistent collection. The successor's listings
// load is a background concern: a failure there logs and leaves an empty
// set rather than blocking the deletion.
func (s *Store) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if !s.hasCollectionLocked(id) {
		s.mu.Unlock()
		return fmt.Errorf("unknown collection %s", id)
	}
	successor := uuid.Nil
	if id == s.activeID {
		remaining := make([]domain.Collection, 0, len(s.collections))
		for _, c := range s.collections {
			if c.ID != id {
				remaining = append(remaining, c)
			}
		}
		if len(remaining) > 0 {
			successor = pickActive(remaining)
		}
	}
	s.mu.Unlock()

	if err := s.api.DeleteCollection(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.collections[:0]
	for _, c := range s.collections {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.collections = kept
	wasActive := s.activeID == id
	if wasActive {
		s.activeID = successor
		s.listings = nil
		s.listingsGen++
		s.loadingListings = false
	}
	s.refreshCount++
	s.mu.Unlock()

	if wasActive && successor != uuid.Nil {
		s.loadListings(ctx, successor)
	}
	return nil
}

// CreateListing adds a listing to the active collection, remote-first. The
// returned object is appended to the cache only if that collection is still
// active when the call settles.
func (s *Store) CreateListing(ctx context.Context, data domain.ListingData) (*domain.Listing, error) {
	s.mu.Lock()
	active := s.activeID
	s.mu.Unlock()
	if active == uuid.Nil {
		return nil, ErrNoActiveCollection
	}

	listing, err := s.api.CreateListing(ctx, active, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.activeID == active {
		s.listings = append(s.listings, *listing)
	}
	s.refreshCount++
	s.mu.Unlock()
	return listing, nil
}

// UpdateListing patches a listing of the active collection and replaces the
// cached entry with the server's full returned object.
func (s *Store) UpdateListing(ctx context.Context, listingID uuid.UUID, patch domain.ListingPatch) (*domain.Listing, error) {
	s.mu.Lock()
	active := s.activeID
	s.mu.Unlock()
	if active == uuid.Nil {
		return nil, ErrNoActiveCollection
	}

	listing, err := s.api.UpdateListing(ctx, active, listingID, patch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.activeID == active {
		for i := range s.listings {
			if s.listings[i].ID == listing.ID {
				s.listings[i] = *listing
				break
			}
		}
	}
	s.refreshCount++
	s.mu.Unlock()
	return listing, nil
}

// DeleteListing removes a listing from the active collection.
func (s *Store) DeleteListing(ctx context.Context, listingID uuid.UUID) error {
	s.mu.Lock()
	active := s.activeID
	s.mu.Unlock()
	if active == uuid.Nil {
		return ErrNoActiveCollection
	}

	if err := s.api.DeleteListing(ctx, active, listingID); err != nil {
		return err
	}

	s.mu.Lock()
	if s.activeID == active {
		kept := s.listings[:0]
		for _, l := range s.listings {
			if l.ID != listingID {
				kept = append(kept, l)
			}
		}
		s.listings = kept
	}
	s.refreshCount++
	s.mu.Unlock()
	return nil
}
