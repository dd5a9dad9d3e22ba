package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property types accepted for a listing. Anything else is stored as null.
const (
	PropertyTypeHouse     = "casa"
	PropertyTypeApartment = "apartamento"
)

// ValidPropertyType reports whether s is one of the two recognized types.
func ValidPropertyType(s string) bool {
	return s == PropertyTypeHouse || s == PropertyTypeApartment
}

// ListingData holds every user-settable field of a listing. It is the wire
// shape shared by the import/export envelope, the create API and the record
// itself; JSON keys match the historical export files (Portuguese keys).
type ListingData struct {
	Title            string    `gorm:"column:title;not null" json:"titulo"`
	Address          string    `gorm:"column:address;not null" json:"endereco"`
	TotalArea        *float64  `gorm:"column:total_area" json:"areaTotal"`
	PrivateArea      *float64  `gorm:"column:private_area" json:"areaPrivativa"`
	Bedrooms         *int      `gorm:"column:bedrooms" json:"quartos"`
	Suites           *int      `gorm:"column:suites" json:"suites"`
	Bathrooms        *int      `gorm:"column:bathrooms" json:"banheiros"`
	GarageSpots      *int      `gorm:"column:garage_spots" json:"vagas"`
	Price            *float64  `gorm:"column:price;type:decimal(18,2)" json:"preco"`
	PricePerArea     *float64  `gorm:"column:price_per_area;type:decimal(18,2)" json:"precoM2"`
	Floor            *int      `gorm:"column:floor" json:"andar"`
	Pool             *bool     `gorm:"column:pool" json:"piscina"`
	Concierge24h     *bool     `gorm:"column:concierge_24h" json:"portaria24h"`
	Gym              *bool     `gorm:"column:gym" json:"academia"`
	UnobstructedView *bool     `gorm:"column:unobstructed_view" json:"vistaLivre"`
	HeatedPool       *bool     `gorm:"column:heated_pool" json:"piscinaAquecida"`
	PropertyType     *string   `gorm:"column:property_type;type:varchar(20)" json:"tipoImovel"`
	Link             *string   `gorm:"column:link" json:"link"`
	ImageURL         *string   `gorm:"column:image_url" json:"imagem"`
	Contact          *string   `gorm:"column:contact" json:"contato"`
	Starred          bool      `gorm:"column:starred;default:false" json:"favorito"`
	Visited          bool      `gorm:"column:visited;default:false" json:"visitado"`
	Struck           bool      `gorm:"column:struck;default:false" json:"riscado"`
	DiscardReason    *string   `gorm:"column:discard_reason" json:"motivoDescarte"`
	CustomLat        *float64  `gorm:"column:custom_lat" json:"customLat"`
	CustomLng        *float64  `gorm:"column:custom_lng" json:"customLng"`
	AddedAt          time.Time `gorm:"column:added_at" json:"addedAt"`
}

// HasCustomCoords reports whether the manual geocoordinate override is set.
// The pair is both-or-neither; a half-set pair is a bug upstream.
func (d *ListingData) HasCustomCoords() bool {
	return d.CustomLat != nil && d.CustomLng != nil
}

// ComputePricePerArea derives price/area. Nil operands or a zero area yield
// nil, never a division error.
func ComputePricePerArea(price, area *float64) *float64 {
	if price == nil || area == nil || *area == 0 {
		return nil
	}
	v := *price / *area
	return &v
}

// Listing is one real-estate property record. It belongs to exactly one
// collection and is never shared across collections.
type Listing struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CollectionID uuid.UUID `gorm:"column:collection_id;type:uuid;not null;index" json:"collectionId"`
	ListingData  `gorm:"embedded"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate assigns the id and defaults added_at to the creation date.
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.AddedAt.IsZero() {
		l.AddedAt = time.Now().UTC()
	}
	return nil
}

// ListingPatch is a partial update: only non-nil fields change. The one
// nullable thing a patch can clear is the custom coordinate pair, via
// ClearCustomCoords (half-setting the pair is not expressible).
type ListingPatch struct {
	Title             *string    `json:"titulo,omitempty"`
	Address           *string    `json:"endereco,omitempty"`
	TotalArea         *float64   `json:"areaTotal,omitempty"`
	PrivateArea       *float64   `json:"areaPrivativa,omitempty"`
	Bedrooms          *int       `json:"quartos,omitempty"`
	Suites            *int       `json:"suites,omitempty"`
	Bathrooms         *int       `json:"banheiros,omitempty"`
	GarageSpots       *int       `json:"vagas,omitempty"`
	Price             *float64   `json:"preco,omitempty"`
	PricePerArea      *float64   `json:"precoM2,omitempty"`
	Floor             *int       `json:"andar,omitempty"`
	Pool              *bool      `json:"piscina,omitempty"`
	Concierge24h      *bool      `json:"portaria24h,omitempty"`
	Gym               *bool      `json:"academia,omitempty"`
	UnobstructedView  *bool      `json:"vistaLivre,omitempty"`
	HeatedPool        *bool      `json:"piscinaAquecida,omitempty"`
	PropertyType      *string    `json:"tipoImovel,omitempty"`
	Link              *string    `json:"link,omitempty"`
	ImageURL          *string    `json:"imagem,omitempty"`
	Contact           *string    `json:"contato,omitempty"`
	Starred           *bool      `json:"favorito,omitempty"`
	Visited           *bool      `json:"visitado,omitempty"`
	Struck            *bool      `json:"riscado,omitempty"`
	DiscardReason     *string    `json:"motivoDescarte,omitempty"`
	CustomLat         *float64   `json:"customLat,omitempty"`
	CustomLng         *float64   `json:"customLng,omitempty"`
	ClearCustomCoords bool       `json:"clearCustomCoords,omitempty"`
	AddedAt           *time.Time `json:"addedAt,omitempty"`
}

// Apply merges the patch into d. Custom coordinates only change when both
// halves are supplied together, or when ClearCustomCoords resets the pair.
func (p *ListingPatch) Apply(d *ListingData) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Address != nil {
		d.Address = *p.Address
	}
	if p.TotalArea != nil {
		d.TotalArea = p.TotalArea
	}
	if p.PrivateArea != nil {
		d.PrivateArea = p.PrivateArea
	}
	if p.Bedrooms != nil {
		d.Bedrooms = p.Bedrooms
	}
	if p.Suites != nil {
		d.Suites = p.Suites
	}
	if p.Bathrooms != nil {
		d.Bathrooms = p.Bathrooms
	}
	if p.GarageSpots != nil {
		d.GarageSpots = p.GarageSpots
	}
	if p.Price != nil {
		d.Price = p.Price
	}
	if p.PricePerArea != nil {
		d.PricePerArea = p.PricePerArea
	}
	if p.Floor != nil {
		d.Floor = p.Floor
	}
	if p.Pool != nil {
		d.Pool = p.Pool
	}
	if p.Concierge24h != nil {
		d.Concierge24h = p.Concierge24h
	}
	if p.Gym != nil {
		d.Gym = p.Gym
	}
	if p.UnobstructedView != nil {
		d.UnobstructedView = p.UnobstructedView
	}
	if p.HeatedPool != nil {
		d.HeatedPool = p.HeatedPool
	}
	if p.PropertyType != nil {
		if ValidPropertyType(*p.PropertyType) {
			d.PropertyType = p.PropertyType
		} else {
			d.PropertyType = nil
		}
	}
	if p.Link != nil {
		d.Link = p.Link
	}
	if p.ImageURL != nil {
		d.ImageURL = p.ImageURL
	}
	if p.Contact != nil {
		d.Contact = p.Contact
	}
	if p.Starred != nil {
		d.Starred = *p.Starred
	}
	if p.Visited != nil {
		d.Visited = *p.Visited
	}
	if p.Struck != nil {
		d.Struck = *p.Struck
	}
	if p.DiscardReason != nil {
		d.DiscardReason = p.DiscardReason
	}
	if p.ClearCustomCoords {
		d.CustomLat = nil
		d.CustomLng = nil
	} else if p.CustomLat != nil && p.CustomLng != nil {
		d.CustomLat = p.CustomLat
		d.CustomLng = p.CustomLng
	}
	if p.AddedAt != nil {
		d.AddedAt = *p.AddedAt
	}
}
