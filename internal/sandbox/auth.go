package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid token")

type idClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies the HS256 ID tokens handed out by the sandbox
// identity endpoints.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer signing with secret. Tokens live for ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Mint signs an ID token for uid/email.
func (i *Issuer) Mint(uid, email string) (string, error) {
	now := i.now()
	claims := idClaims{
		UserID: uid,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the token's email.
func (i *Issuer) Verify(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &idClaims{},
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	claims, ok := token.Claims.(*idClaims)
	if !ok || !token.Valid || claims.Email == "" {
		return "", errInvalidToken
	}
	return claims.Email, nil
}

func (i *Issuer) ttlSeconds() string {
	return strconv.Itoa(int(i.ttl / time.Second))
}

// signInWithPassword mirrors the password sign-in endpoint of the hosted
// identity service.
func (s *Server) signInWithPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIdentityError(w, http.StatusBadRequest, "INVALID_JSON")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeIdentityError(w, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}
	user, ok := s.data.authenticate(req.Email, req.Password)
	if !ok {
		writeIdentityError(w, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
		return
	}
	idToken, err := s.issuer.Mint(user.UID, user.Email)
	if err != nil {
		s.log.Error("mint token", "error", err)
		writeIdentityError(w, http.StatusInternalServerError, "INTERNAL")
		return
	}
	s.log.Info("sign in", "email", user.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"idToken":      idToken,
		"refreshToken": s.data.issueRefresh(user.Email),
		"expiresIn":    s.issuer.ttlSeconds(),
		"localId":      user.UID,
		"email":        user.Email,
		"registered":   true,
	})
}

// exchangeRefreshToken mirrors the secure-token refresh endpoint.
func (s *Server) exchangeRefreshToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeIdentityError(w, http.StatusBadRequest, "INVALID_FORM")
		return
	}
	if r.PostForm.Get("grant_type") != "refresh_token" {
		writeIdentityError(w, http.StatusBadRequest, "INVALID_GRANT_TYPE")
		return
	}
	email, ok := s.data.redeemRefresh(r.PostForm.Get("refresh_token"))
	if !ok {
		writeIdentityError(w, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
		return
	}
	user, ok := s.data.account(email)
	if !ok {
		writeIdentityError(w, http.StatusBadRequest, "USER_NOT_FOUND")
		return
	}
	idToken, err := s.issuer.Mint(user.UID, user.Email)
	if err != nil {
		s.log.Error("mint token", "error", err)
		writeIdentityError(w, http.StatusInternalServerError, "INTERNAL")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id_token":      idToken,
		"refresh_token": r.PostForm.Get("refresh_token"),
		"expires_in":    s.issuer.ttlSeconds(),
		"user_id":       user.UID,
		"token_type":    "Bearer",
	})
}

func writeIdentityError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": code},
	})
}
