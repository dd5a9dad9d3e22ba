package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"imovelhub/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrCollectionNotFound = errors.New("Collection not found")
	ErrListingNotFound    = errors.New("Listing not found")
	ErrLabelRequired      = errors.New("Label is required")
	ErrTitleAddrRequired  = errors.New("Title and address are required")
	ErrMissingScope       = errors.New("Owner scope is required")
)

// Scope is the owning principal of a request: a user or an organization,
// never both.
type Scope struct {
	UserID *uuid.UUID
	OrgID  *uuid.UUID
}

func (s Scope) valid() bool {
	return (s.UserID != nil) != (s.OrgID != nil)
}

// Service implements the collection/listing API against the database.
type Service struct {
	DB *gorm.DB
}

func scopedQuery(db *gorm.DB, scope Scope) *gorm.DB {
	if scope.UserID != nil {
		return db.Where("user_id = ?", *scope.UserID)
	}
	return db.Where("org_id = ?", *scope.OrgID)
}

func (s *Service) ListCollections(ctx context.Context, scope Scope) ([]domain.Collection, error) {
	if !scope.valid() {
		return nil, ErrMissingScope
	}
	var cols []domain.Collection
	if err := scopedQuery(s.DB.WithContext(ctx), scope).Order("created_at ASC").Find(&cols).Error; err != nil {
		return nil, err
	}
	return cols, nil
}

func (s *Service) CreateCollection(ctx context.Context, scope Scope, label string, isDefault bool) (*domain.Collection, error) {
	if !scope.valid() {
		return nil, ErrMissingScope
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrLabelRequired
	}
	col := &domain.Collection{
		Label:     label,
		UserID:    scope.UserID,
		OrgID:     scope.OrgID,
		IsDefault: isDefault,
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if isDefault {
		// Only one default per owner scope.
		if err := scopedQuery(tx.Model(&domain.Collection{}), scope).Update("is_default", false).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Create(col).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordEvent(tx, "collection", col.ID, domain.EventCreated, map[string]interface{}{"label": col.Label}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return col, nil
}

func (s *Service) UpdateCollection(ctx context.Context, scope Scope, id uuid.UUID, patch domain.CollectionPatch) (*domain.Collection, error) {
	if !scope.valid() {
		return nil, ErrMissingScope
	}
	var col domain.Collection
	if err := scopedQuery(s.DB.WithContext(ctx), scope).Where("id = ?", id).First(&col).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}

	action := domain.EventUpdated
	eventData := map[string]interface{}{}
	if patch.Label != nil {
		label := strings.TrimSpace(*patch.Label)
		if label == "" {
			return nil, ErrLabelRequired
		}
		col.Label = label
		eventData["label"] = label
	}
	if patch.IsDefault != nil {
		col.IsDefault = *patch.IsDefault
		eventData["is_default"] = *patch.IsDefault
	}
	if patch.IsPublic != nil && *patch.IsPublic != col.IsPublic {
		col.IsPublic = *patch.IsPublic
		if col.IsPublic {
			token := uuid.NewString()
			col.ShareToken = &token
			action = domain.EventPublished
		} else {
			col.ShareToken = nil
			action = domain.EventUnpublished
		}
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if patch.IsDefault != nil && *patch.IsDefault {
		if err := scopedQuery(tx.Model(&domain.Collection{}), scope).Where("id <> ?", col.ID).Update("is_default", false).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	// Save with Select so clearing the share token writes NULL.
	if err := tx.Model(&col).Select("label", "is_default", "is_public", "share_token", "updated_at").Updates(map[string]interface{}{
		"label":       col.Label,
		"is_default":  col.IsDefault,
		"is_public":   col.IsPublic,
		"share_token": col.ShareToken,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordEvent(tx, "collection", col.ID, action, eventData); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	// Reload for server-derived fields (updated_at).
	if err := s.DB.WithContext(ctx).Where("id = ?", col.ID).First(&col).Error; err != nil {
		return nil, err
	}
	return &col, nil
}

func (s *Service) DeleteCollection(ctx context.Context, scope Scope, id uuid.UUID) error {
	if !scope.valid() {
		return ErrMissingScope
	}
	var col domain.Collection
	if err := scopedQuery(s.DB.WithContext(ctx), scope).Where("id = ?", id).First(&col).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollectionNotFound
		}
		return err
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Where("collection_id = ?", id).Delete(&domain.Listing{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&col).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := recordEvent(tx, "collection", id, domain.EventDeleted, map[string]interface{}{"label": col.Label}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// FindByShareToken resolves a public collection for the anonymous read-only
// link. No scope: the token is the credential.
func (s *Service) FindByShareToken(ctx context.Context, token string) (*domain.Collection, []domain.Listing, error) {
	var col domain.Collection
	if err := s.DB.WithContext(ctx).Where("share_token = ? AND is_public = ?", token, true).First(&col).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCollectionNotFound
		}
		return nil, nil, err
	}
	listings, err := s.ListListings(ctx, col.ID)
	if err != nil {
		return nil, nil, err
	}
	return &col, listings, nil
}

func (s *Service) ListListings(ctx context.Context, collectionID uuid.UUID) ([]domain.Listing, error) {
	var listings []domain.Listing
	if err := s.DB.WithContext(ctx).Where("collection_id = ?", collectionID).Order("created_at ASC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *Service) CreateListing(ctx context.Context, collectionID uuid.UUID, data domain.ListingData) (*domain.Listing, error) {
	if strings.TrimSpace(data.Title) == "" || strings.TrimSpace(data.Address) == "" {
		return nil, ErrTitleAddrRequired
	}
	var col domain.Collection
	if err := s.DB.WithContext(ctx).Where("id = ?", collectionID).First(&col).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}

	// Server-side guards mirroring import coercion.
	if data.PropertyType != nil && !domain.ValidPropertyType(*data.PropertyType) {
		data.PropertyType = nil
	}
	if data.CustomLat == nil || data.CustomLng == nil {
		data.CustomLat = nil
		data.CustomLng = nil
	}
	if data.PricePerArea == nil {
		data.PricePerArea = domain.ComputePricePerArea(data.Price, data.TotalArea)
	}

	listing := &domain.Listing{CollectionID: collectionID, ListingData: data}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(listing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordEvent(tx, "listing", listing.ID, domain.EventCreated, map[string]interface{}{"title": listing.Title}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *Service) UpdateListing(ctx context.Context, collectionID, listingID uuid.UUID, patch domain.ListingPatch) (*domain.Listing, error) {
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("id = ? AND collection_id = ?", listingID, collectionID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	patch.Apply(&listing.ListingData)
	if strings.TrimSpace(listing.Title) == "" || strings.TrimSpace(listing.Address) == "" {
		return nil, ErrTitleAddrRequired
	}
	// The price-per-area column is a display derivative; keep it in step
	// when price or area moved without an explicit override.
	if (patch.Price != nil || patch.TotalArea != nil) && patch.PricePerArea == nil {
		listing.PricePerArea = domain.ComputePricePerArea(listing.Price, listing.TotalArea)
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Save(&listing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordEvent(tx, "listing", listing.ID, domain.EventUpdated, map[string]interface{}{"title": listing.Title}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Where("id = ?", listing.ID).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (s *Service) DeleteListing(ctx context.Context, collectionID, listingID uuid.UUID) error {
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("id = ? AND collection_id = ?", listingID, collectionID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Delete(&listing).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := recordEvent(tx, "listing", listing.ID, domain.EventDeleted, map[string]interface{}{"title": listing.Title}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func recordEvent(tx *gorm.DB, entityType string, entityID uuid.UUID, action string, data map[string]interface{}) error {
	bs, _ := json.Marshal(data)
	return tx.Create(&domain.ChangeEvent{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		EventData:  datatypes.JSON(bs),
	}).Error
}
