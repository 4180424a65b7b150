// Package api is the REST client for the Sistema de Buses backend.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/sistemabuses/busadmin/engine/fleet"
	"github.com/sistemabuses/busadmin/pkg/config"
	"github.com/sistemabuses/busadmin/pkg/logger"
	"github.com/sistemabuses/busadmin/pkg/version"
)

const headerRequestID = "X-Request-ID"

type ctxKey string

// skipAuthKey marks requests that must not carry the session token.
const skipAuthKey ctxKey = "skip_auth"

// Client provides access to every backend resource. The session it
// authenticates with is explicit and can be swapped with SetSession.
type Client struct {
	http       *resty.Client
	baseURL    string
	authScheme string

	mu             sync.RWMutex
	session        Session
	onUnauthorized func()
}

type Option func(*Client)

// WithOnUnauthorized registers a hook run after any 401 response.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewClient builds a client from configuration. session may be nil.
func NewClient(cfg *config.Config, session *Session, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	baseURL, err := validateBaseURL(cfg.API.BaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:    baseURL,
		authScheme: normalizeScheme(cfg.API.AuthScheme),
	}
	if session != nil {
		c.session = *session
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = c.buildHTTPClient(cfg)
	return c, nil
}

func validateBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", fmt.Errorf("base URL must be absolute, got: %s", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base URL scheme must be http or https, got: %s", parsed.Scheme)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

func normalizeScheme(s string) string {
	if strings.EqualFold(s, "bearer") {
		return "Bearer"
	}
	return "Token"
}

func (c *Client) buildHTTPClient(cfg *config.Config) *resty.Client {
	client := resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(cfg.API.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent()).
		SetRetryCount(cfg.API.RetryCount).
		SetRetryWaitTime(cfg.API.RetryWait).
		SetRetryMaxWaitTime(cfg.API.Timeout)
	client.AddRetryCondition(retryCondition)
	client.OnBeforeRequest(c.decorateRequest)
	if cfg.API.Debug {
		client.SetDebug(true)
	}
	return client
}

// retryCondition retries idempotent reads on transport errors and on
// statuses that are likely transient.
func retryCondition(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func (c *Client) decorateRequest(_ *resty.Client, r *resty.Request) error {
	if r.Header.Get(headerRequestID) == "" {
		r.SetHeader(headerRequestID, uuid.NewString())
	}
	if skip, ok := r.Context().Value(skipAuthKey).(bool); ok && skip {
		return nil
	}
	if token := c.Session().Token; token != "" {
		r.SetHeader("Authorization", c.authScheme+" "+token)
	}
	return nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns a copy of the current authentication context.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) Workers() *Resource[fleet.Worker] {
	return NewResource[fleet.Worker](c, fleet.KindWorkers.Path())
}

func (c *Client) Buses() *Resource[fleet.Bus] {
	return NewResource[fleet.Bus](c, fleet.KindBuses.Path())
}

func (c *Client) Roles() *Resource[fleet.Role] {
	return NewResource[fleet.Role](c, fleet.KindRoles.Path())
}

func (c *Client) RoleAssignments() *Resource[fleet.RoleAssignment] {
	return NewResource[fleet.RoleAssignment](c, fleet.KindRoleAssignments.Path())
}

func (c *Client) BusAssignments() *Resource[fleet.BusAssignment] {
	return NewResource[fleet.BusAssignment](c, fleet.KindBusAssignments.Path())
}

// doRequest performs a request and returns the raw response body.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, query map[string]string) ([]byte, error) {
	log := logger.FromContext(ctx)
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := executeRequest(req, method, path)
	if err != nil {
		log.Debug("API request failed", "method", method, "path", path, "error", err)
		return nil, &NetworkError{Method: method, Path: path, Cause: err}
	}
	if err := c.handleResponse(resp, method, path); err != nil {
		log.Debug("API request rejected", "method", method, "path", path, "status", resp.StatusCode())
		return nil, err
	}
	log.Debug("API request completed", "method", method, "path", path, "status", resp.StatusCode(),
		"duration", resp.Time())
	return resp.Body(), nil
}

func executeRequest(req *resty.Request, method, path string) (*resty.Response, error) {
	switch method {
	case http.MethodGet:
		return req.Get(path)
	case http.MethodPost:
		return req.Post(path)
	case http.MethodPut:
		return req.Put(path)
	case http.MethodDelete:
		return req.Delete(path)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}
}

func (c *Client) handleResponse(resp *resty.Response, method, path string) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	if resp.StatusCode() == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return &NetworkError{
		Status:  resp.StatusCode(),
		Payload: append([]byte(nil), resp.Body()...),
		Method:  method,
		Path:    path,
	}
}

func withoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey, true)
}
