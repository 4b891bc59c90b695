// Package sandbox is an in-memory stand-in for the baggage back end and its
// identity service. It backs the bagdesk-sandbox command and the HTTP tests
// of the client packages.
package sandbox

import (
	"encoding/json"
	"errors"
	"hash/fnv"
	"image"
	"image/color"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/logging"
)

// Options configures a Server.
type Options struct {
	Secret   string
	TokenTTL time.Duration
	Domain   string
	Admins   []string
	Logger   logging.Logger
	Seed     bool
}

// Server serves the staff API, the admin API and the identity endpoints
// from one router.
type Server struct {
	data    *Data
	issuer  *Issuer
	admins  map[string]bool
	log     logging.Logger
	offline atomic.Bool
	router  chi.Router
}

// New builds a server over fresh data.
func New(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "sandbox-secret"
	}
	if opts.Domain == "" {
		opts.Domain = "ram.com"
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	s := &Server{
		data:   NewData(opts.Domain),
		issuer: NewIssuer(opts.Secret, opts.TokenTTL),
		admins: make(map[string]bool, len(opts.Admins)),
		log:    opts.Logger.With("component", "sandbox"),
	}
	for _, a := range opts.Admins {
		s.admins[strings.ToLower(strings.TrimSpace(a))] = true
	}
	if opts.Seed {
		Seed(s.data)
	}
	s.router = s.routes()
	return s
}

// Data exposes the backing records for tests and fixtures.
func (s *Server) Data() *Data { return s.data }

// Issuer exposes the token issuer.
func (s *Server) Issuer() *Issuer { return s.issuer }

// SetOffline makes every API route answer 503 until reset.
func (s *Server) SetOffline(offline bool) { s.offline.Store(offline) }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		recoverPanics(s.log),
		requestID(),
		requestLog(s.log),
	)

	r.Post("/v1/accounts:signInWithPassword", s.signInWithPassword)
	r.Post("/v1/token", s.exchangeRefreshToken)
	r.Get("/photos/{name}", s.photo)

	r.Group(func(r chi.Router) {
		r.Use(unlessOffline(s), bearerAuth(s.issuer), staffOnly())

		r.Get("/voyages/staff", s.listVoyages)
		r.Get("/bagages/staff/voyage/{id}", s.listVoyageBaggage)
		r.Get("/bagages/staff/{id}", s.getBaggage)
		r.Post("/bagages/{id}/signaler-perdu", s.setStatus("PERDU"))
		r.Post("/bagages/{id}/signaler-retrouve", s.setStatus("RETROUVE"))

		r.Group(func(r chi.Router) {
			r.Use(adminOnly(s.admins))
			r.Get("/admin/users", s.listUsers)
			r.Post("/admin/staff", s.createStaff)
		})
	})
	return r
}

func (s *Server) listVoyages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Voyages())
}

func (s *Server) listVoyageBaggage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.VoyageBaggage(api.ID(chi.URLParam(r, "id"))))
}

func (s *Server) getBaggage(w http.ResponseWriter, r *http.Request) {
	b, err := s.data.Baggage(api.ID(chi.URLParam(r, "id")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) setStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := api.ID(chi.URLParam(r, "id"))
		if err := s.data.SetBaggageStatus(id, status); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.log.Info("baggage status changed", "id", id.String(), "status", status, "by", emailFrom(r.Context()))
		b, _ := s.data.Baggage(id)
		writeJSON(w, http.StatusOK, b)
	}
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Users())
}

func (s *Server) createStaff(w http.ResponseWriter, r *http.Request) {
	var req api.StaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Requête invalide", http.StatusBadRequest)
		return
	}
	user, err := s.data.CreateStaff(req)
	if err != nil {
		var rej rejection
		if errors.As(err, &rej) {
			http.Error(w, rej.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Erreur interne", http.StatusInternalServerError)
		return
	}
	s.log.Info("staff created", "email", user.Email, "by", emailFrom(r.Context()))
	writeJSON(w, http.StatusCreated, user)
}

// photo renders a flat placeholder picture whose colour is derived from the
// requested name.
func (s *Server) photo(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(chi.URLParam(r, "name"), ".png")
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	sum := h.Sum32()
	fill := color.NRGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 255}

	img := imaging.New(96, 64, fill)
	label := imaging.New(48, 32, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	img = imaging.Overlay(img, label, image.Pt(24, 16), 0.6)

	w.Header().Set("Content-Type", "image/png")
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		s.log.Warn("encode photo", "name", name, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
