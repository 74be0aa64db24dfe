// Raw HTTP access to the studyx backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/studyx/internal/shared"
)

const defaultBaseURL string = "http://127.0.0.1:3000"

// RequestIDHeader carries a fresh id on every backend request for log correlation.
const RequestIDHeader = "X-Request-ID"

// APIService performs raw HTTP requests against the backend and returns undecoded responses.
//
// [TaskService] builds the typed endpoints on top of it; the CLI's api command uses it directly.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// BaseURL returns the backend root every path is appended to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
	RequestID  string
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns nil for 2xx responses and an [shared.ErrAPIRequest] error otherwise,
// including the backend's detail or error message when the body has one.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}

	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil {
		if body.Detail != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, r.StatusCode, body.Detail)
		}
		if body.Error != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, r.StatusCode, body.Error)
		}
	}
	return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, r.StatusCode)
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get performs a GET request to the specified path with optional query parameters and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, nil, data)
}

// PostJSON marshals v and posts it to path.
func (a *APIService) PostJSON(ctx context.Context, path string, v any) (*APIResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return a.Post(ctx, path, data)
}

func (a *APIService) do(ctx context.Context, method, path string, query url.Values, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
		RequestID:  requestID,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
