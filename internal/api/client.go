package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramops/bagdesk/internal/logging"
)

// StaffAPI is the record source and admin provisioning surface used by the
// dashboard. *Client implements it; tests substitute fakes.
type StaffAPI interface {
	FetchVoyages(ctx context.Context) ([]Voyage, error)
	FetchVoyage(ctx context.Context, id ID) (Voyage, error)
	FetchVoyageBaggage(ctx context.Context, voyageID ID) ([]Baggage, error)
	FetchBaggage(ctx context.Context, id ID) (Baggage, error)
	ReportLost(ctx context.Context, id ID) error
	ReportFound(ctx context.Context, id ID) error
	FetchUsers(ctx context.Context) ([]User, error)
	CreateStaff(ctx context.Context, req StaffRequest) error
}

// Ensure Client implements StaffAPI at compile time.
var _ StaffAPI = (*Client)(nil)

// TokenIssuer hands out the bearer token attached to every request.
type TokenIssuer interface {
	IssueToken(ctx context.Context) (string, error)
}

// RequestObserver receives one call per completed HTTP exchange. Status is
// zero when the request never produced a response.
type RequestObserver interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
}

// ErrNotFound reports a 404 or a record missing from a listing.
var ErrNotFound = errors.New("not found")

// Error is a non-2xx reply. Body holds the server text untouched.
type Error struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 replies.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// ServerMessage returns the reply body when err carries one.
func ServerMessage(err error) (string, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return "", false
	}
	msg := strings.TrimSpace(apiErr.Body)
	return msg, msg != ""
}

// Client talks to the baggage back end over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenIssuer
	userAgent string
	log       logging.Logger
	observer  RequestObserver
}

const (
	defaultBaseURL   = "http://127.0.0.1:8080"
	defaultUserAgent = "bagdesk/dev"
	requestTimeout   = 5 * time.Second
	maxErrorBody     = 4 << 10
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger routes request logs to l.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver records request outcomes, typically into Prometheus.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client rooted at baseURL. tokens may be nil for
// unauthenticated use.
func NewClient(baseURL string, tokens TokenIssuer, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		tokens:    tokens,
		userAgent: defaultUserAgent,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchVoyages retrieves every voyage visible to staff.
func (c *Client) FetchVoyages(ctx context.Context) ([]Voyage, error) {
	var payload []Voyage
	if err := c.do(ctx, http.MethodGet, "/voyages/staff", "/voyages/staff", nil, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = []Voyage{}
	}
	return payload, nil
}

// FetchVoyage looks a voyage up in the staff listing. The back end has no
// single-voyage endpoint.
func (c *Client) FetchVoyage(ctx context.Context, id ID) (Voyage, error) {
	voyages, err := c.FetchVoyages(ctx)
	if err != nil {
		return Voyage{}, err
	}
	for _, v := range voyages {
		if v.ID == id {
			return v, nil
		}
	}
	return Voyage{}, fmt.Errorf("voyage %s: %w", id, ErrNotFound)
}

// FetchVoyageBaggage lists the bags checked in on a voyage.
func (c *Client) FetchVoyageBaggage(ctx context.Context, voyageID ID) ([]Baggage, error) {
	if voyageID == "" {
		return nil, fmt.Errorf("voyage id required")
	}
	var payload []Baggage
	path := "/bagages/staff/voyage/" + url.PathEscape(voyageID.String())
	if err := c.do(ctx, http.MethodGet, "/bagages/staff/voyage/{id}", path, nil, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = []Baggage{}
	}
	return payload, nil
}

// FetchBaggage retrieves one bag with its voyage back-reference.
func (c *Client) FetchBaggage(ctx context.Context, id ID) (Baggage, error) {
	if id == "" {
		return Baggage{}, fmt.Errorf("baggage id required")
	}
	var payload Baggage
	path := "/bagages/staff/" + url.PathEscape(id.String())
	if err := c.do(ctx, http.MethodGet, "/bagages/staff/{id}", path, nil, &payload); err != nil {
		return Baggage{}, err
	}
	return payload, nil
}

// ReportLost flags a bag as lost.
func (c *Client) ReportLost(ctx context.Context, id ID) error {
	return c.report(ctx, id, "signaler-perdu")
}

// ReportFound clears a lost report.
func (c *Client) ReportFound(ctx context.Context, id ID) error {
	return c.report(ctx, id, "signaler-retrouve")
}

func (c *Client) report(ctx context.Context, id ID, action string) error {
	if id == "" {
		return fmt.Errorf("baggage id required")
	}
	path := "/bagages/" + url.PathEscape(id.String()) + "/" + action
	return c.do(ctx, http.MethodPost, "/bagages/{id}/"+action, path, struct{}{}, nil)
}

// FetchUsers lists every account. Admin only.
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	var payload []User
	if err := c.do(ctx, http.MethodGet, "/admin/users", "/admin/users", nil, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = []User{}
	}
	return payload, nil
}

// CreateStaff provisions a staff account. The badge is lower-cased before
// sending; all other validation belongs to the server.
func (c *Client) CreateStaff(ctx context.Context, req StaffRequest) error {
	req.Badge = strings.ToLower(strings.TrimSpace(req.Badge))
	return c.do(ctx, http.MethodPost, "/admin/staff", "/admin/staff", req, nil)
}

func (c *Client) do(ctx context.Context, method, route, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.IssueToken(ctx)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(route, 0, elapsed)
		c.log.Warn("api request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.observe(route, resp.StatusCode, elapsed)
	c.log.Debug("api request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", elapsed)

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Body: string(raw)}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) observe(route string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(route, status, elapsed)
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
