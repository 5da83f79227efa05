package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is the record-store contract consumed by external workers and the
// CLI. Implementations return *PermissionDeniedError for authorization
// failures and ErrUnavailable when the platform cannot be reached.
type Client interface {
	// CreateRecord creates a record and returns its generated identifier.
	CreateRecord(ctx context.Context, recordType string, fields map[string]any) (string, error)
	// GetRecord reads a record's fields by identifier.
	GetRecord(ctx context.Context, recordType, id string) (map[string]any, error)
	// UpdateRecord replaces fields on an existing record.
	UpdateRecord(ctx context.Context, recordType, id string, fields map[string]any) error
}

// RESTClient is a thin HTTP implementation of Client.
type RESTClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient creates a client for the given base URL.
func NewRESTClient(baseURL, apiKey string) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateRecord posts the fields and returns the identifier the platform
// generated.
func (c *RESTClient) CreateRecord(ctx context.Context, recordType string, fields map[string]any) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/records/%s", c.baseURL, recordType),
		"create", recordType, fields, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

// GetRecord reads a record by identifier.
func (c *RESTClient) GetRecord(ctx context.Context, recordType, id string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/records/%s/%s", c.baseURL, recordType, id),
		"read", recordType, nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRecord replaces fields on an existing record.
func (c *RESTClient) UpdateRecord(ctx context.Context, recordType, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("%s/records/%s/%s", c.baseURL, recordType, id),
		"update", recordType, fields, nil)
}

func (c *RESTClient) do(ctx context.Context, method, url, operation, resource string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", operation, resource, err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", operation, resource, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", operation, resource, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return &PermissionDeniedError{Operation: operation, Resource: resource}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s %s: %w: status %d", operation, resource, ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: unexpected status %d", operation, resource, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", operation, resource, err)
		}
	}
	return nil
}
