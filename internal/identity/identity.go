// Package identity signs desk staff in against a password identity service
// and issues the bearer tokens attached to API calls.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/ramops/bagdesk/internal/logging"
)

var (
	// ErrNotSignedIn is returned when a token is requested with no session.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrInvalidCredentials is returned when the service rejects a badge or
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Principal is the signed-in account.
type Principal struct {
	UID       string
	Email     string
	Badge     string
	ExpiresAt time.Time
}

// Role classifies the principal by address.
func (p Principal) Role() Role {
	return RoleOf(p.Email)
}

// IsAdmin reports whether the principal's address is in admins.
func (p Principal) IsAdmin(admins []string) bool {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return false
	}
	for _, a := range admins {
		if strings.ToLower(strings.TrimSpace(a)) == email {
			return true
		}
	}
	return false
}

// Provider is the identity collaborator consumed by the dashboard.
type Provider interface {
	CurrentPrincipal() (Principal, bool)
	IssueToken(ctx context.Context) (string, error)
	SignIn(ctx context.Context, badge, password string) (Principal, error)
	SignOut()
}

// Ensure PasswordProvider implements Provider at compile time.
var _ Provider = (*PasswordProvider)(nil)

// Config locates the identity service.
type Config struct {
	IdentityURL string // hosts /v1/accounts:signInWithPassword
	TokenURL    string // hosts /v1/token
	APIKey      string
	EmailDomain string
	Timeout     time.Duration
}

// PasswordProvider signs in with badge and password and refreshes the ID
// token through the secure-token endpoint.
type PasswordProvider struct {
	cfg  Config
	http *http.Client
	log  logging.Logger

	mu        sync.Mutex
	principal *Principal
	tokens    oauth2.TokenSource
}

// NewPasswordProvider validates cfg and returns a signed-out provider.
func NewPasswordProvider(cfg Config, log logging.Logger) (*PasswordProvider, error) {
	if strings.TrimSpace(cfg.IdentityURL) == "" {
		return nil, fmt.Errorf("identity url is empty")
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = cfg.IdentityURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = logging.Nop()
	}
	return &PasswordProvider{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With("component", "identity"),
	}, nil
}

// CurrentPrincipal returns the signed-in account, if any.
func (p *PasswordProvider) CurrentPrincipal() (Principal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.principal == nil {
		return Principal{}, false
	}
	return *p.principal, true
}

// IssueToken returns a valid ID token, refreshing it when it is close to
// expiry.
func (p *PasswordProvider) IssueToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	src := p.tokens
	p.mu.Unlock()
	if src == nil {
		return "", ErrNotSignedIn
	}
	type result struct {
		tok *oauth2.Token
		err error
	}
	// A refresh can outlive ctx; the reuse source still caches its result.
	done := make(chan result, 1)
	go func() {
		tok, err := src.Token()
		done <- result{tok, err}
	}()
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("refresh token: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("refresh token: %w", r.err)
		}
		return r.tok.AccessToken, nil
	}
}

// SignIn exchanges badge and password for a session.
func (p *PasswordProvider) SignIn(ctx context.Context, badge, password string) (Principal, error) {
	email := BadgeAddress(badge, p.cfg.EmailDomain)
	if email == "" || password == "" {
		return Principal{}, ErrInvalidCredentials
	}

	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var reply struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
	}
	endpoint := p.endpoint(p.cfg.IdentityURL, "/v1/accounts:signInWithPassword")
	if err := p.postJSON(ctx, endpoint, body, &reply); err != nil {
		p.log.Warn("sign in failed", "email", email, "error", err)
		return Principal{}, err
	}

	initial := &oauth2.Token{
		AccessToken:  reply.IDToken,
		RefreshToken: reply.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       expiryFrom(reply.IDToken, reply.ExpiresIn),
	}
	principal := principalFromToken(reply.IDToken)
	if principal.UID == "" {
		principal.UID = reply.LocalID
	}
	if principal.Email == "" {
		principal.Email = reply.Email
	}
	if principal.Email == "" {
		principal.Email = email
	}
	principal.Badge = strings.ToUpper(strings.TrimSpace(badge))
	principal.ExpiresAt = initial.Expiry

	refresher := &refreshSource{provider: p, refreshToken: reply.RefreshToken}
	p.mu.Lock()
	p.principal = &principal
	p.tokens = oauth2.ReuseTokenSource(initial, refresher)
	p.mu.Unlock()

	p.log.Info("signed in", "email", principal.Email, "role", principal.Role().String())
	return principal, nil
}

// SignOut forgets the session.
func (p *PasswordProvider) SignOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.principal != nil {
		p.log.Info("signed out", "email", p.principal.Email)
	}
	p.principal = nil
	p.tokens = nil
}

type refreshSource struct {
	provider *PasswordProvider

	mu           sync.Mutex
	refreshToken string
}

// Token implements oauth2.TokenSource against the secure-token endpoint.
func (s *refreshSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshToken == "" {
		return nil, ErrNotSignedIn
	}

	p := s.provider
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.refreshToken)

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint(p.cfg.TokenURL, "/v1/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var reply struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := p.send(req, &reply); err != nil {
		return nil, err
	}
	if reply.RefreshToken != "" {
		s.refreshToken = reply.RefreshToken
	}
	p.log.Debug("token refreshed")
	return &oauth2.Token{
		AccessToken:  reply.IDToken,
		RefreshToken: s.refreshToken,
		TokenType:    "Bearer",
		Expiry:       expiryFrom(reply.IDToken, reply.ExpiresIn),
	}, nil
}

func (p *PasswordProvider) endpoint(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	u := base + path
	if key := strings.TrimSpace(p.cfg.APIKey); key != "" {
		u += "?key=" + url.QueryEscape(key)
	}
	return u
}

func (p *PasswordProvider) postJSON(ctx context.Context, endpoint string, body, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return p.send(req, dest)
}

func (p *PasswordProvider) send(req *http.Request, dest any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return classifyFailure(resp.StatusCode, raw)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classifyFailure maps identity service error codes onto sentinel errors.
func classifyFailure(status int, body []byte) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	code := strings.ToUpper(strings.TrimSpace(payload.Error.Message))
	switch {
	case strings.HasPrefix(code, "INVALID_PASSWORD"),
		strings.HasPrefix(code, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(code, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(code, "INVALID_EMAIL"),
		strings.HasPrefix(code, "USER_DISABLED"):
		return fmt.Errorf("%s: %w", code, ErrInvalidCredentials)
	case strings.HasPrefix(code, "TOKEN_EXPIRED"),
		strings.HasPrefix(code, "INVALID_REFRESH_TOKEN"),
		strings.HasPrefix(code, "USER_NOT_FOUND"):
		return fmt.Errorf("%s: %w", code, ErrNotSignedIn)
	case code != "":
		return fmt.Errorf("identity service returned status %d: %s", status, code)
	default:
		return fmt.Errorf("identity service returned status %d", status)
	}
}

// principalFromToken reads identity claims without verifying the
// signature; the back end verifies every token it receives.
func principalFromToken(raw string) Principal {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Principal{}
	}
	var p Principal
	if email, ok := claims["email"].(string); ok {
		p.Email = email
	}
	if uid, ok := claims["user_id"].(string); ok {
		p.UID = uid
	} else if sub, err := claims.GetSubject(); err == nil {
		p.UID = sub
	}
	return p
}

func expiryFrom(rawToken, expiresIn string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(expiresIn)); err == nil && secs > 0 {
		return time.Now().Add(time.Duration(secs) * time.Second)
	}
	return time.Time{}
}
