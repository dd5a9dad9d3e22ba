package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"imovelhub/internal/domain"

	"github.com/google/uuid"
)

// Client is an API backed by the HTTP service. Owner scope is fixed at
// construction: exactly one of UserID/OrgID should be set, and every
// request carries it as a header.
type Client struct {
	BaseURL string
	UserID  *uuid.UUID
	OrgID   *uuid.UUID
	HTTP    *http.Client
}

// defaultHTTPClient serves clients constructed without an HTTP client. One
// Client is shared by concurrent callers, so do must never write fields.
var defaultHTTPClient = &http.Client{Timeout: 15 * time.Second}

type successEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Status string `json:"status"`
	Error  struct {
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	httpc := c.HTTP
	if httpc == nil {
		httpc = defaultHTTPClient
	}
	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return &OperationError{Op: op, Err: err}
		}
		reader = bytes.NewReader(bs)
	}
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &OperationError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.UserID != nil {
		req.Header.Set("X-Owner-User", c.UserID.String())
	}
	if c.OrgID != nil {
		req.Header.Set("X-Owner-Org", c.OrgID.String())
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return &OperationError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorEnvelope
		msg := string(respBody)
		if err := json.Unmarshal(respBody, &e); err == nil && e.Error.Message != "" {
			msg = e.Error.Message
		}
		return &OperationError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	var env successEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return &OperationError{Op: op, Err: err}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &OperationError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	var out []domain.Collection
	if err := c.do(ctx, "list collections", http.MethodGet, "/api/v1/collections", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCollection(ctx context.Context, in CreateCollectionInput) (*domain.Collection, error) {
	var out domain.Collection
	if err := c.do(ctx, "create collection", http.MethodPost, "/api/v1/collections", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCollection(ctx context.Context, id uuid.UUID, patch domain.CollectionPatch) (*domain.Collection, error) {
	var out domain.Collection
	if err := c.do(ctx, "update collection", http.MethodPatch, "/api/v1/collections/"+id.String(), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, "delete collection", http.MethodDelete, "/api/v1/collections/"+id.String(), nil, nil)
}

func (c *Client) ListListings(ctx context.Context, collectionID uuid.UUID) ([]domain.Listing, error) {
	var out []domain.Listing
	path := "/api/v1/collections/" + collectionID.String() + "/listings"
	if err := c.do(ctx, "list listings", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateListing(ctx context.Context, collectionID uuid.UUID, data domain.ListingData) (*domain.Listing, error) {
	var out domain.Listing
	path := "/api/v1/collections/" + collectionID.String() + "/listings"
	if err := c.do(ctx, "create listing", http.MethodPost, path, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateListing(ctx context.Context, collectionID, listingID uuid.UUID, patch domain.ListingPatch) (*domain.Listing, error) {
	var out domain.Listing
	path := "/api/v1/collections/" + collectionID.String() + "/listings/" + listingID.String()
	if err := c.do(ctx, "update listing", http.MethodPatch, path, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteListing(ctx context.Context, collectionID, listingID uuid.UUID) error {
	path := "/api/v1/collections/" + collectionID.String() + "/listings/" + listingID.String()
	return c.do(ctx, "delete listing", http.MethodDelete, path, nil, nil)
}
