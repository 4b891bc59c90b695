package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// ID is an opaque record identifier. The back end emits both JSON numbers
// and strings, so it is always carried as text.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Voyage mirrors one entry of /voyages/staff: a passenger booking on a flight.
type Voyage struct {
	ID            ID     `json:"id"`
	PNR           string `json:"pnr"`
	FlightNumber  string `json:"numeroVol"`
	FamilyName    string `json:"nom"`
	GivenName     string `json:"prenom"`
	DepartureCity string `json:"villeDepart"`
	ArrivalCity   string `json:"villeArrivee"`
	Date          string `json:"date"`
	Time          string `json:"heure"`
}

// FullName renders "given family", skipping blanks.
func (v Voyage) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(v.GivenName) + " " + strings.TrimSpace(v.FamilyName))
}

// Route renders "departure → arrival".
func (v Voyage) Route() string {
	return strings.TrimSpace(v.DepartureCity) + " → " + strings.TrimSpace(v.ArrivalCity)
}

// ParsedDeparture combines Date and Time into a local timestamp.
// Unknown layouts return the zero time.
func (v Voyage) ParsedDeparture() time.Time {
	date := strings.TrimSpace(v.Date)
	if date == "" {
		return time.Time{}
	}
	if clock := strings.TrimSpace(v.Time); clock != "" {
		if t := parseTime(date + " " + clock); !t.IsZero() {
			return t
		}
	}
	return parseTime(date)
}

// Baggage mirrors /bagages/staff/{id} and the entries of
// /bagages/staff/voyage/{id}.
type Baggage struct {
	ID          ID      `json:"id"`
	Name        string  `json:"nom"`
	Description string  `json:"description"`
	PhotoURL    string  `json:"photos"`
	Status      string  `json:"etatSignalement"`
	Voyage      *Voyage `json:"voyage,omitempty"`
}

// BaggageStatus is the client-side reading of etatSignalement.
type BaggageStatus int

const (
	// StatusFound covers bags that are not reported lost.
	StatusFound BaggageStatus = iota
	// StatusLost is a bag currently reported lost.
	StatusLost
	// StatusUnknown is any server state the client does not model.
	StatusUnknown
)

const (
	rawStatusLost  = "PERDU"
	rawStatusFound = "RETROUVE"
	rawStatusNone  = "NORMAL"
)

// ParseBaggageStatus maps the raw server value onto BaggageStatus.
func ParseBaggageStatus(raw string) BaggageStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case rawStatusLost:
		return StatusLost
	case "", rawStatusFound, "RETROUVÉ", rawStatusNone:
		return StatusFound
	default:
		return StatusUnknown
	}
}

// State returns the parsed status.
func (b Baggage) State() BaggageStatus {
	return ParseBaggageStatus(b.Status)
}

// CanToggle reports whether the lost/found action is offered.
func (b Baggage) CanToggle() bool {
	return b.State() != StatusUnknown
}

// StatusLabel returns a short display label.
func (b Baggage) StatusLabel() string {
	switch b.State() {
	case StatusLost:
		return "Perdu"
	case StatusFound:
		return "Normal"
	default:
		return strings.TrimSpace(b.Status)
	}
}

// User mirrors an entry of /admin/users.
type User struct {
	UID        string `json:"uid"`
	Email      string `json:"email"`
	Badge      string `json:"badge"`
	FamilyName string `json:"nom"`
	GivenName  string `json:"prenom"`
}

// DisplayBadge returns the badge, falling back to the local part of the
// email address.
func (u User) DisplayBadge() string {
	if badge := strings.TrimSpace(u.Badge); badge != "" {
		return badge
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// StaffRequest is the body of POST /admin/staff.
type StaffRequest struct {
	Badge      string `json:"badge"`
	Password   string `json:"password"`
	FamilyName string `json:"nom"`
	GivenName  string `json:"prenom"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
