package sandbox

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramops/bagdesk/internal/identity"
	"github.com/ramops/bagdesk/internal/logging"
)

type middleware func(http.Handler) http.Handler

type ctxKey int

const (
	ctxEmail ctxKey = iota
	ctxRequestID
)

func emailFrom(ctx context.Context) string {
	email, _ := ctx.Value(ctxEmail).(string)
	return email
}

// statusWriter captures the status code and byte count for request logs.
type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.count += n
	return n, err
}

// recoverPanics turns a handler panic into a bare 500.
func recoverPanics(log logging.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic", "path", r.URL.Path, "reason", rec)
					http.Error(w, "Erreur interne", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestID echoes X-Request-Id, generating one when the caller sent none.
func requestID() middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
				r.Header.Set("X-Request-Id", id)
			}
			w.Header().Set("X-Request-Id", id)
			ctx := context.WithValue(r.Context(), ctxRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestLog(log logging.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(sw, r)
			log.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"dur", time.Since(start),
				"bytes", sw.count,
				"request_id", r.Header.Get("X-Request-Id"),
			)
		})
	}
}

// bearerAuth verifies the ID token and stores the caller's email in the
// request context.
func bearerAuth(issuer *Issuer) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, prefix) {
				http.Error(w, "Non authentifié", http.StatusUnauthorized)
				return
			}
			email, err := issuer.Verify(strings.TrimSpace(auth[len(prefix):]))
			if err != nil {
				http.Error(w, "Jeton invalide", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxEmail, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func staffOnly() middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !identity.IsStaffAddress(emailFrom(r.Context())) {
				http.Error(w, "Accès réservé au personnel", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func adminOnly(admins map[string]bool) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !admins[strings.ToLower(emailFrom(r.Context()))] {
				http.Error(w, "Accès refusé", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unlessOffline(s *Server) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.offline.Load() {
				http.Error(w, "Service indisponible", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
