package sandbox

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ramops/bagdesk/internal/api"
)

// rejection is an error whose text is sent to the client as-is.
type rejection string

func (r rejection) Error() string { return string(r) }

const (
	errUnknownBaggage rejection = "Bagage introuvable"
	errBadgeTaken     rejection = "Ce badge existe déjà"
	errWeakPassword   rejection = "Le mot de passe doit contenir au moins 6 caractères"
	errMissingBadge   rejection = "Badge requis"
)

type account struct {
	api.User
	Password string
}

type baggageRecord struct {
	api.Baggage
	VoyageID api.ID
}

// Data is the in-memory back end state. Safe for concurrent use.
type Data struct {
	mu       sync.RWMutex
	domain   string
	voyages  []api.Voyage
	baggage  []baggageRecord
	accounts map[string]*account // keyed by lower-case email
	refresh  map[string]string   // refresh token -> email
}

// NewData returns an empty data set for accounts under domain.
func NewData(domain string) *Data {
	return &Data{
		domain:   strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@")),
		accounts: make(map[string]*account),
		refresh:  make(map[string]string),
	}
}

// AddVoyage appends a voyage.
func (d *Data) AddVoyage(v api.Voyage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.voyages = append(d.voyages, v)
}

// RemoveVoyage drops a voyage and its bags.
func (d *Data) RemoveVoyage(id api.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.voyages = slices.DeleteFunc(d.voyages, func(v api.Voyage) bool { return v.ID == id })
	d.baggage = slices.DeleteFunc(d.baggage, func(b baggageRecord) bool { return b.VoyageID == id })
}

// AddBaggage attaches a bag to a voyage.
func (d *Data) AddBaggage(voyageID api.ID, b api.Baggage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.baggage = append(d.baggage, baggageRecord{Baggage: b, VoyageID: voyageID})
}

// AddAccount registers an identity account.
func (d *Data) AddAccount(email, password, badge, familyName, givenName string) api.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addAccountLocked(email, password, badge, familyName, givenName)
}

func (d *Data) addAccountLocked(email, password, badge, familyName, givenName string) api.User {
	u := api.User{
		UID:        uuid.NewString(),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Badge:      badge,
		FamilyName: familyName,
		GivenName:  givenName,
	}
	d.accounts[u.Email] = &account{User: u, Password: password}
	return u
}

// Voyages returns a copy of every voyage.
func (d *Data) Voyages() []api.Voyage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.voyages)
}

// VoyageBaggage lists bags on a voyage.
func (d *Data) VoyageBaggage(voyageID api.ID) []api.Baggage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []api.Baggage{}
	for _, b := range d.baggage {
		if b.VoyageID == voyageID {
			out = append(out, b.Baggage)
		}
	}
	return out
}

// Baggage returns one bag with its voyage embedded.
func (d *Data) Baggage(id api.ID) (api.Baggage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, b := range d.baggage {
		if b.ID != id {
			continue
		}
		out := b.Baggage
		for _, v := range d.voyages {
			if v.ID == b.VoyageID {
				voyage := v
				out.Voyage = &voyage
				break
			}
		}
		return out, nil
	}
	return api.Baggage{}, errUnknownBaggage
}

// SetBaggageStatus overwrites etatSignalement.
func (d *Data) SetBaggageStatus(id api.ID, status string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.baggage {
		if d.baggage[i].ID == id {
			d.baggage[i].Status = status
			return nil
		}
	}
	return errUnknownBaggage
}

// Users lists every account without passwords.
func (d *Data) Users() []api.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]api.User, 0, len(d.accounts))
	for _, a := range d.accounts {
		out = append(out, a.User)
	}
	slices.SortFunc(out, func(a, b api.User) int { return strings.Compare(a.Email, b.Email) })
	return out
}

// CreateStaff provisions badge@domain.
func (d *Data) CreateStaff(req api.StaffRequest) (api.User, error) {
	badge := strings.ToLower(strings.TrimSpace(req.Badge))
	if badge == "" {
		return api.User{}, errMissingBadge
	}
	if len(req.Password) < 6 {
		return api.User{}, errWeakPassword
	}
	email := badge + "@" + d.domain

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.accounts[email]; exists {
		return api.User{}, errBadgeTaken
	}
	return d.addAccountLocked(email, req.Password, badge, req.FamilyName, req.GivenName), nil
}

func (d *Data) authenticate(email, password string) (api.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || a.Password != password {
		return api.User{}, false
	}
	return a.User, true
}

func (d *Data) account(email string) (api.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[strings.ToLower(email)]
	if !ok {
		return api.User{}, false
	}
	return a.User, true
}

func (d *Data) issueRefresh(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	token := uuid.NewString()
	d.refresh[token] = email
	return token
}

func (d *Data) redeemRefresh(token string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	email, ok := d.refresh[token]
	return email, ok
}

// Seed fills d with a small demo data set. Every account uses password
// "secret123".
func Seed(d *Data) {
	const password = "secret123"
	d.AddAccount("admin123@"+d.domain, password, "admin123", "Admin", "Desk")
	d.AddAccount("ram001@"+d.domain, password, "ram001", "Alaoui", "Sara")
	d.AddAccount("ram002@"+d.domain, password, "ram002", "Benali", "Omar")
	d.AddAccount("passenger@example.com", password, "", "Smith", "John")

	cities := [][2]string{
		{"Casablanca", "Paris"},
		{"Paris", "Casablanca"},
		{"Rabat", "Madrid"},
		{"Marrakech", "Lyon"},
		{"Tanger", "Bruxelles"},
		{"Agadir", "Londres"},
		{"Fès", "Montréal"},
	}
	names := [][2]string{
		{"Smith", "John"}, {"El Amrani", "Yasmine"}, {"Durand", "Claire"},
		{"Haddad", "Karim"}, {"Martin", "Lucas"}, {"Tazi", "Nadia"},
		{"Garcia", "Elena"}, {"Idrissi", "Mehdi"}, {"Rossi", "Marco"},
		{"Bennani", "Salma"}, {"Dubois", "Hugo"}, {"Chraibi", "Imane"},
	}
	for i, n := range names {
		route := cities[i%len(cities)]
		id := api.ID(fmt.Sprint(i + 1))
		d.AddVoyage(api.Voyage{
			ID:            id,
			PNR:           fmt.Sprintf("%c%c%c%03d", 'A'+i%26, 'K'+i%16, 'Q'+i%9, 100+i*7),
			FlightNumber:  fmt.Sprintf("AT%d", 200+i*11),
			FamilyName:    n[0],
			GivenName:     n[1],
			DepartureCity: route[0],
			ArrivalCity:   route[1],
			Date:          fmt.Sprintf("2025-07-%02d", 1+i),
			Time:          fmt.Sprintf("%02d:%02d", 6+i, (i*15)%60),
		})
		photo := ""
		if i%3 != 2 {
			photo = fmt.Sprintf("/photos/B%d-1.png", i+1)
		}
		d.AddBaggage(id, api.Baggage{
			ID:          api.ID(fmt.Sprintf("B%d-1", i+1)),
			PhotoURL:    photo,
			Name:        "Valise cabine",
			Description: "Valise rigide, couleur " + []string{"noire", "bleue", "rouge", "grise"}[i%4],
			Status:      []string{"NORMAL", "PERDU", "RETROUVE"}[i%3],
		})
		if i%2 == 0 {
			d.AddBaggage(id, api.Baggage{
				ID:          api.ID(fmt.Sprintf("B%d-2", i+1)),
				Name:        "Sac de voyage",
				Description: "Sac souple avec étiquette nominative",
				Status:      "NORMAL",
			})
		}
	}
}
