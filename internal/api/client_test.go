package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) IssueToken(context.Context) (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) IssueToken(context.Context) (string, error) {
	return "", errors.New("no session")
}

type recordedRequest struct {
	route  string
	status int
}

type requestRecorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (r *requestRecorder) ObserveRequest(route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recordedRequest{route: route, status: status})
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("default url = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("example.com:9000/api/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Path != "/api" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL accepted url without host")
	}
}

func TestClient_FetchesEndpointsWithHeaders(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		auth    string
		agent   string
		reqIDs  = map[string]bool{}
		posted  StaffRequest
		reports []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = r.Header.Get("Authorization")
		agent = r.Header.Get("User-Agent")
		reqIDs[r.Header.Get("X-Request-Id")] = true
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/voyages/staff":
			_, _ = w.Write([]byte(`[{"id":7,"pnr":"AB123","nom":"Smith","prenom":"John"},{"id":"8","pnr":"CD456"}]`))
		case "/api/bagages/staff/voyage/7":
			_, _ = w.Write([]byte(`[{"id":70,"nom":"Valise","etatSignalement":"PERDU"}]`))
		case "/api/bagages/staff/70":
			_, _ = w.Write([]byte(`{"id":70,"nom":"Valise","etatSignalement":"PERDU","voyage":{"id":7,"pnr":"AB123"}}`))
		case "/api/bagages/70/signaler-perdu", "/api/bagages/70/signaler-retrouve":
			mu.Lock()
			reports = append(reports, r.URL.Path)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		case "/api/admin/users":
			_, _ = w.Write([]byte(`null`))
		case "/api/admin/staff":
			mu.Lock()
			_ = json.NewDecoder(r.Body).Decode(&posted)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	rec := &requestRecorder{}
	c, err := NewClient(server.URL+"/api/", staticToken("tok"), WithObserver(rec))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	voyages, err := c.FetchVoyages(ctx)
	if err != nil {
		t.Fatalf("FetchVoyages returned error: %v", err)
	}
	if len(voyages) != 2 || voyages[0].ID != "7" || voyages[1].ID != "8" {
		t.Fatalf("FetchVoyages = %#v, want ids 7 and 8", voyages)
	}

	voyage, err := c.FetchVoyage(ctx, "8")
	if err != nil || voyage.PNR != "CD456" {
		t.Fatalf("FetchVoyage = %#v, %v", voyage, err)
	}
	if _, err := c.FetchVoyage(ctx, "99"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FetchVoyage(99) error = %v, want ErrNotFound", err)
	}

	bags, err := c.FetchVoyageBaggage(ctx, "7")
	if err != nil || len(bags) != 1 || bags[0].State() != StatusLost {
		t.Fatalf("FetchVoyageBaggage = %#v, %v", bags, err)
	}

	bag, err := c.FetchBaggage(ctx, "70")
	if err != nil {
		t.Fatalf("FetchBaggage returned error: %v", err)
	}
	if bag.Voyage == nil || bag.Voyage.PNR != "AB123" {
		t.Fatalf("FetchBaggage voyage = %#v, want back-reference", bag.Voyage)
	}

	if err := c.ReportLost(ctx, "70"); err != nil {
		t.Fatalf("ReportLost returned error: %v", err)
	}
	if err := c.ReportFound(ctx, "70"); err != nil {
		t.Fatalf("ReportFound returned error: %v", err)
	}

	users, err := c.FetchUsers(ctx)
	if err != nil || users == nil || len(users) != 0 {
		t.Fatalf("FetchUsers = %#v, %v, want empty non-nil", users, err)
	}

	if err := c.CreateStaff(ctx, StaffRequest{Badge: " RAM900 ", Password: "pw", FamilyName: "N", GivenName: "P"}); err != nil {
		t.Fatalf("CreateStaff returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if auth != "Bearer tok" {
		t.Fatalf("Authorization = %q, want bearer token", auth)
	}
	if !strings.HasPrefix(agent, "bagdesk/") {
		t.Fatalf("User-Agent = %q, want bagdesk/*", agent)
	}
	if len(reqIDs) < 8 || reqIDs[""] {
		t.Fatalf("request ids = %v, want one unique id per request", reqIDs)
	}
	if posted.Badge != "ram900" || posted.Password != "pw" {
		t.Fatalf("CreateStaff body = %#v, want lower-cased badge", posted)
	}
	if len(reports) != 2 || !strings.HasSuffix(reports[0], "signaler-perdu") || !strings.HasSuffix(reports[1], "signaler-retrouve") {
		t.Fatalf("reports = %v", reports)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.seen) == 0 || rec.seen[0].route != "/voyages/staff" || rec.seen[0].status != http.StatusOK {
		t.Fatalf("observer saw %#v", rec.seen)
	}
}

func TestClient_RequiresIDs(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	if _, err := c.FetchBaggage(ctx, ""); err == nil {
		t.Fatalf("FetchBaggage accepted empty id")
	}
	if _, err := c.FetchVoyageBaggage(ctx, ""); err == nil {
		t.Fatalf("FetchVoyageBaggage accepted empty id")
	}
	if err := c.ReportLost(ctx, ""); err == nil {
		t.Fatalf("ReportLost accepted empty id")
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/voyages/staff":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/admin/staff":
			http.Error(w, "Ce badge existe déjà", http.StatusBadRequest)
		case "/admin/users":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	_, err = c.FetchVoyages(ctx)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchVoyages error = %v, want decode response error", err)
	}

	err = c.CreateStaff(ctx, StaffRequest{Badge: "x"})
	if err == nil || !strings.Contains(err.Error(), "returned status 400") {
		t.Fatalf("CreateStaff error = %v, want status 400 error", err)
	}
	if msg, ok := ServerMessage(err); !ok || msg != "Ce badge existe déjà" {
		t.Fatalf("ServerMessage = %q, %v", msg, ok)
	}

	_, err = c.FetchUsers(ctx)
	if _, ok := ServerMessage(err); ok {
		t.Fatalf("ServerMessage reported text for empty body")
	}

	_, err = c.FetchBaggage(ctx, "1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("FetchBaggage error = %v, want ErrNotFound", err)
	}
}

func TestClient_TokenFailureSendsNothing(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, failingToken{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchVoyages(context.Background()); err == nil || !strings.Contains(err.Error(), "issue token") {
		t.Fatalf("FetchVoyages error = %v, want issue token error", err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("server saw %d requests, want 0", n)
	}
}

func TestServerMessageIgnoresOtherErrors(t *testing.T) {
	if _, ok := ServerMessage(errors.New("boom")); ok {
		t.Fatalf("ServerMessage matched a plain error")
	}
	if _, ok := ServerMessage(nil); ok {
		t.Fatalf("ServerMessage matched nil")
	}
}
