package importformat

import (
	"math"
	"strings"
	"time"

	"imovelhub/internal/domain"
)

// CoerceListing validates and coerces one raw listing object into the
// canonical shape. It returns ok=false when the listing must be dropped
// (missing title or address); every other irregularity is coerced, never
// rejected: non-finite or mistyped numbers and non-bool booleans become
// null, an unrecognized property type becomes null, and a half-set custom
// coordinate pair is reset to null/null. Unknown keys are ignored.
// Coercion is a projection: coercing already-coerced data changes nothing.
func CoerceListing(raw map[string]interface{}) (domain.ListingData, bool) {
	title := strField(raw, "titulo")
	address := strField(raw, "endereco")
	if title == "" || address == "" {
		return domain.ListingData{}, false
	}

	d := domain.ListingData{
		Title:            title,
		Address:          address,
		TotalArea:        numField(raw, "areaTotal"),
		PrivateArea:      numField(raw, "areaPrivativa"),
		Bedrooms:         intField(raw, "quartos"),
		Suites:           intField(raw, "suites"),
		Bathrooms:        intField(raw, "banheiros"),
		GarageSpots:      intField(raw, "vagas"),
		Price:            numField(raw, "preco"),
		PricePerArea:     numField(raw, "precoM2"),
		Floor:            intField(raw, "andar"),
		Pool:             boolField(raw, "piscina"),
		Concierge24h:     boolField(raw, "portaria24h"),
		Gym:              boolField(raw, "academia"),
		UnobstructedView: boolField(raw, "vistaLivre"),
		HeatedPool:       boolField(raw, "piscinaAquecida"),
		Link:             optStrField(raw, "link"),
		ImageURL:         optStrField(raw, "imagem"),
		Contact:          optStrField(raw, "contato"),
		Starred:          flagField(raw, "favorito"),
		Visited:          flagField(raw, "visitado"),
		Struck:           flagField(raw, "riscado"),
		DiscardReason:    optStrField(raw, "motivoDescarte"),
		CustomLat:        numField(raw, "customLat"),
		CustomLng:        numField(raw, "customLng"),
		AddedAt:          timeField(raw, "addedAt"),
	}

	if t := strField(raw, "tipoImovel"); domain.ValidPropertyType(t) {
		d.PropertyType = &t
	}

	// Both-or-neither: a lone half of the pair is dropped here, not deferred.
	if d.CustomLat == nil || d.CustomLng == nil {
		d.CustomLat = nil
		d.CustomLng = nil
	}

	return d, true
}

func strField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func optStrField(m map[string]interface{}, key string) *string {
	if s := strField(m, key); s != "" {
		return &s
	}
	return nil
}

func numField(m map[string]interface{}, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

func intField(m map[string]interface{}, key string) *int {
	f := numField(m, key)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

func boolField(m map[string]interface{}, key string) *bool {
	if b, ok := m[key].(bool); ok {
		return &b
	}
	return nil
}

// flagField is boolField for the non-nullable UI flags: anything that is
// not strictly true coerces to false.
func flagField(m map[string]interface{}, key string) bool {
	b, ok := m[key].(bool)
	return ok && b
}

func timeField(m map[string]interface{}, key string) time.Time {
	if s, ok := m[key].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
