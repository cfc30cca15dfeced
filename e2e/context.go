package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vpexchange/internal/exchange/models"
)

// TestContext holds state between test steps
type TestContext struct {
	stack *stack

	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte
	IssuerToken      string

	// exchange and transaction the holder is currently working with
	ExchangeID    string
	TransactionID string
	Challenge     string
}

// NewTestContext starts a fresh in-process stack for one scenario.
func NewTestContext() *TestContext {
	s := newStack()
	return &TestContext{
		stack:   s,
		BaseURL: s.api.URL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Close stops every server the scenario started.
func (tc *TestContext) Close() {
	if tc.stack != nil {
		tc.stack.close()
	}
}

// POST makes a POST request and stores the response
func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, tc.authHeaders())
}

// PUT makes a PUT request and stores the response
func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body, nil)
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil, tc.authHeaders())
}

func (tc *TestContext) authHeaders() map[string]string {
	if tc.IssuerToken == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + tc.IssuerToken}
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// ExchangeResponse decodes the last response as a holder-facing exchange response.
func (tc *TestContext) ExchangeResponse() (*models.ExchangeResponse, error) {
	var resp models.ExchangeResponse
	if err := json.Unmarshal(tc.LastResponseBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exchange response: %w", err)
	}
	return &resp, nil
}

// GetResponseField extracts a top-level field from the JSON response
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}
	return value, nil
}

// ResponseContains checks if the response body contains the text
func (tc *TestContext) ResponseContains(text string) bool {
	return strings.Contains(string(tc.LastResponseBody), text)
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}
