// Package client provides a typed Go SDK for the auditdesk REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the top-level auditdesk API client.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client

	Entities        *EntityService
	Plans           *PlanService
	Audits          *AuditService
	Findings        *FindingService
	Recommendations *RecommendationService
	Auth            *AuthService
	Users           *UserService
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request. The token can be
// replaced later with SetToken.
func WithToken(token string) Option {
	return func(c *Client) { c.tokens = NewTokenStore(token) }
}

// WithTokenSource makes the client read its bearer token from ts on every
// request. Sign-in stores the new token only when ts has a Set(string) method.
// Logout clears it through TokenClearer, or failing that through Set.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates an auditdesk client for the given base URL (e.g. "http://localhost:3030").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		tokens:     NewTokenStore(""),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, o := range opts {
		o(c)
	}

	c.Entities = &EntityService{newResource[Entity, EntityInput, EntityInput](c, "/api/entities")}
	c.Plans = &PlanService{newResource[Plan, PlanInput, PlanInput](c, "/api/plans")}
	c.Audits = &AuditService{newResource[Audit, AuditInput, AuditInput](c, "/api/audits")}
	c.Findings = &FindingService{newResource[Finding, FindingInput, FindingUpdate](c, "/api/findings")}
	c.Recommendations = &RecommendationService{
		res: newResource[Recommendation, RecommendationInput, RecommendationInput](c, "/api/recommendations"),
	}
	c.Auth = &AuthService{c: c}
	c.Users = &UserService{c: c}

	return c
}

// Token returns the bearer token currently in use.
func (c *Client) Token() string {
	return c.tokens.Token()
}

// SetToken replaces the bearer token. It has no effect when the token source
// was supplied with WithTokenSource and cannot be set.
func (c *Client) SetToken(token string) {
	if s, ok := c.tokens.(interface{ Set(string) }); ok {
		s.Set(token)
	}
}

// ClearToken forgets the bearer token, preferring the source's own Clear.
func (c *Client) ClearToken() {
	if cl, ok := c.tokens.(TokenClearer); ok {
		cl.Clear()
		return
	}

	c.SetToken("")
}

// Health returns the liveness check response.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/api/health", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Ready returns the readiness check response. A not-ready server answers 503,
// which is returned as an *APIError.
func (c *Client) Ready(ctx context.Context) (*ReadyResponse, error) {
	var resp ReadyResponse
	if err := c.get(ctx, "/api/ready", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Dashboard returns the headline counters.
func (c *Client) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	var resp DashboardSummary
	if err := c.get(ctx, "/api/dashboard", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Activity queries the write-activity log (admin only).
func (c *Client) Activity(ctx context.Context, opts *ActivityOptions) ([]ActivityEntry, bool, error) {
	var resp struct {
		Data    []ActivityEntry `json:"data"`
		HasMore bool            `json:"has_more"`
	}

	if err := c.get(ctx, "/api/activity", opts.values(), &resp); err != nil {
		return nil, false, err
	}

	return resp.Data, resp.HasMore, nil
}

// do executes an HTTP request and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	u := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}

		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// get is a convenience wrapper for GET requests with query parameters.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	return c.do(ctx, http.MethodGet, path, nil, result)
}

// post is a convenience wrapper for POST requests.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// put is a convenience wrapper for PUT requests.
func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// del is a convenience wrapper for DELETE requests.
func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
