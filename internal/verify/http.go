package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// HTTPClient calls the face recognition service's POST /verify endpoint.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

var _ Verifier = (*HTTPClient)(nil)

// NewHTTPClient creates a client with sensible defaults.
func NewHTTPClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("verify: base URL is required")
	}
	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client (timeouts, transport).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

type verifyRequest struct {
	EmployeeID string `json:"employee_id"`
	ImageB64   string `json:"image_b64"`
}

type verifyResponse struct {
	Verified bool    `json:"verified"`
	Score    float64 `json:"score"`
}

func (c *HTTPClient) Verify(ctx context.Context, employeeID, imageB64 string) (bool, error) {
	body, err := json.Marshal(verifyRequest{EmployeeID: employeeID, ImageB64: imageB64})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify: call face service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verify: face service returned %d", resp.StatusCode)
	}
	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("verify: decode response: %w", err)
	}
	return out.Verified, nil
}
