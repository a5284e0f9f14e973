// Package client is a typed HTTP client for the presswala API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/presswala/internal/domain"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends token as a bearer credential on every call.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticated reports whether the client carries a credential.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// APIError is a non-2xx answer. It unwraps to the matching domain sentinel
// so callers can use errors.Is across the wire.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	case http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrInvalidTransition
	default:
		return nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) WhoAmI(ctx context.Context) (string, error) {
	var resp struct {
		Principal string `json:"principal"`
	}
	if err := c.do(ctx, http.MethodGet, "/whoami", nil, &resp); err != nil {
		return "", err
	}
	return resp.Principal, nil
}

// CallerProfile returns nil when the caller has not saved a profile yet.
func (c *Client) CallerProfile(ctx context.Context) (*domain.UserProfile, error) {
	var p *domain.UserProfile
	if err := c.do(ctx, http.MethodGet, "/me/profile", nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) SaveProfile(ctx context.Context, p domain.UserProfile) error {
	return c.do(ctx, http.MethodPut, "/me/profile", p, nil)
}

func (c *Client) IsCallerAdmin(ctx context.Context) (bool, error) {
	var resp struct {
		Admin bool `json:"admin"`
	}
	if err := c.do(ctx, http.MethodGet, "/me/admin", nil, &resp); err != nil {
		return false, err
	}
	return resp.Admin, nil
}

// ClaimAdminIfFirst answers false with a nil error when someone else
// already holds the bootstrap claim.
func (c *Client) ClaimAdminIfFirst(ctx context.Context) (bool, error) {
	var resp struct {
		Granted bool `json:"granted"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin/claim", nil, &resp); err != nil {
		return false, err
	}
	return resp.Granted, nil
}

func (c *Client) CallerRole(ctx context.Context) (domain.Role, error) {
	var resp struct {
		Role domain.Role `json:"role"`
	}
	if err := c.do(ctx, http.MethodGet, "/me/role", nil, &resp); err != nil {
		return "", err
	}
	return resp.Role, nil
}

func (c *Client) Register(ctx context.Context, p domain.UserProfile) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodPost, "/users", p, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Notifications(ctx context.Context) ([]domain.Notification, error) {
	var out []domain.Notification
	err := c.do(ctx, http.MethodGet, "/me/notifications", nil, &out)
	return out, err
}

func (c *Client) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var s domain.AdminStats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Pricing(ctx context.Context) (*domain.Pricing, error) {
	var p domain.Pricing
	if err := c.do(ctx, http.MethodGet, "/pricing", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ActiveItems(ctx context.Context) ([]domain.ClothingItem, error) {
	var out []domain.ClothingItem
	err := c.do(ctx, http.MethodGet, "/clothing-items/active", nil, &out)
	return out, err
}

func (c *Client) Shops(ctx context.Context, status domain.ShopStatus) ([]domain.Shop, error) {
	path := "/shops"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var out []domain.Shop
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Areas(ctx context.Context) ([]domain.Area, error) {
	var out []domain.Area
	err := c.do(ctx, http.MethodGet, "/areas", nil, &out)
	return out, err
}
