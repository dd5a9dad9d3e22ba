package importformat

import (
	"encoding/json"
	"strings"

	"imovelhub/internal/domain"
)

// DefaultLabel names a legacy import that arrives without any collection
// metadata and without a caller-supplied hint.
const DefaultLabel = "Lista importada"

// FormatError means the input matched none of the recognized envelope
// shapes. Nothing is created when it is returned.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "unrecognized import format: " + e.Reason
}

// Group is one (collection label, listings) pair ready for import. Dropped
// counts the raw entries rejected by coercion (missing title/address or not
// an object at all).
type Group struct {
	Label    string
	Listings []domain.ListingData
	Dropped  int
}

// Result is the normalized form of an arbitrary import document. Groups
// preserve input order; listings within a group preserve input order.
type Result struct {
	Groups  []Group
	Dropped int
}

// Empty reports whether no group kept a single valid listing. The caller
// decides whether that is a user-facing error.
func (r *Result) Empty() bool {
	for _, g := range r.Groups {
		if len(g.Listings) > 0 {
			return false
		}
	}
	return true
}

// collectionMeta is the subset of collection metadata the envelope carries.
type collectionMeta struct {
	Label string `json:"label"`
}

// fullEntry is one {collection, listings} pair of the multi-collection form.
type fullEntry struct {
	Collection collectionMeta    `json:"collection"`
	Listings   []json.RawMessage `json:"listings"`
}

// Normalize converts an arbitrary parsed JSON document into import groups.
// Three shapes are recognized, tried in order: a bare listing array (legacy,
// no version tag), a full multi-collection export ({version, collections})
// and a single-collection export ({collection, listings}). Anything else is
// a *FormatError. A missing version tag is never a reason to reject.
func Normalize(raw json.RawMessage, labelHint string) (*Result, error) {
	// json.Unmarshal accepts null into a slice, so the array probe must
	// look at the document itself before the legacy branch claims it.
	if isJSONArray(raw) {
		var legacy []json.RawMessage
		if err := json.Unmarshal(raw, &legacy); err == nil {
			label := strings.TrimSpace(labelHint)
			if label == "" {
				label = DefaultLabel
			}
			res := &Result{Groups: []Group{coerceGroup(label, legacy)}}
			res.Dropped = res.Groups[0].Dropped
			return res, nil
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, &FormatError{Reason: "not a JSON object or array"}
	}

	if rawCollections, ok := obj["collections"]; ok {
		if !isJSONArray(rawCollections) {
			return nil, &FormatError{Reason: "collections field is not an array"}
		}
		var entries []fullEntry
		if err := json.Unmarshal(rawCollections, &entries); err == nil {
			res := &Result{}
			for _, e := range entries {
				label := strings.TrimSpace(e.Collection.Label)
				if label == "" {
					label = DefaultLabel
				}
				g := coerceGroup(label, e.Listings)
				res.Groups = append(res.Groups, g)
				res.Dropped += g.Dropped
			}
			return res, nil
		}
	}

	if rawListings, ok := obj["listings"]; ok {
		if !isJSONArray(rawListings) {
			return nil, &FormatError{Reason: "listings field is not an array"}
		}
		var listings []json.RawMessage
		if err := json.Unmarshal(rawListings, &listings); err != nil {
			return nil, &FormatError{Reason: "listings field is not an array"}
		}
		var meta collectionMeta
		if rawMeta, ok := obj["collection"]; ok {
			_ = json.Unmarshal(rawMeta, &meta)
		}
		label := strings.TrimSpace(meta.Label)
		if label == "" {
			label = strings.TrimSpace(labelHint)
		}
		if label == "" {
			label = DefaultLabel
		}
		res := &Result{Groups: []Group{coerceGroup(label, listings)}}
		res.Dropped = res.Groups[0].Dropped
		return res, nil
	}

	return nil, &FormatError{Reason: "no collections or listings field"}
}

// isJSONArray reports whether the document's first token opens an array.
func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return b == '['
		}
	}
	return false
}

func coerceGroup(label string, raws []json.RawMessage) Group {
	g := Group{Label: label}
	for _, r := range raws {
		var m map[string]interface{}
		if err := json.Unmarshal(r, &m); err != nil {
			g.Dropped++
			continue
		}
		data, ok := CoerceListing(m)
		if !ok {
			g.Dropped++
			continue
		}
		g.Listings = append(g.Listings, data)
	}
	return g
}
