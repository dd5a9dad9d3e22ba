package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"imovelhub/internal/domain"
	"imovelhub/internal/importformat"
)

// Typed failures of the text-to-listing service. Callers branch on these;
// anything else about the service is opaque.
var (
	ErrUnauthorized       = errors.New("parse: unauthorized")
	ErrServiceUnavailable = errors.New("parse: service unavailable")
	ErrRateLimited        = errors.New("parse: rate limited")
	ErrMalformedResponse  = errors.New("parse: malformed response")
)

// Parser turns a pasted raw-text property ad into structured listing fields.
type Parser interface {
	Parse(ctx context.Context, rawText string) (*domain.ListingData, error)
}

// HTTPParser is a Parser backed by the remote parsing service.
type HTTPParser struct {
	URL    string
	APIKey string
	HTTP   *http.Client
}

// One HTTPParser may serve concurrent callers, so Parse never writes
// parser fields; this is the fallback when HTTP is left nil.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

func (p *HTTPParser) Parse(ctx context.Context, rawText string) (*domain.ListingData, error) {
	httpc := p.HTTP
	if httpc == nil {
		httpc = defaultHTTPClient
	}
	body, _ := json.Marshal(map[string]string{"text": rawText})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: status %d", ErrMalformedResponse, resp.StatusCode)
	}

	respBody, _ := io.ReadAll(resp.Body)
	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	// Service output goes through the same coercion as imported data; a
	// result without title and address is unusable.
	data, ok := importformat.CoerceListing(raw)
	if !ok {
		return nil, fmt.Errorf("%w: missing title or address", ErrMalformedResponse)
	}
	return &data, nil
}
