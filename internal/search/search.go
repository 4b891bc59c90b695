// Package search filters voyage listings by a free-text query and per-field
// constraints, and tracks the paging state of a filtered listing.
package search

import (
	"strings"

	"github.com/ramops/bagdesk/internal/api"
)

// Field identifies one of the per-field constraints.
type Field int

const (
	FieldPNR Field = iota
	FieldName
	FieldDeparture
	FieldArrival
)

// AllFields lists the constraints in display order.
var AllFields = []Field{FieldPNR, FieldName, FieldDeparture, FieldArrival}

// Label returns the form label for f.
func (f Field) Label() string {
	switch f {
	case FieldPNR:
		return "PNR"
	case FieldName:
		return "Nom"
	case FieldDeparture:
		return "Départ"
	case FieldArrival:
		return "Arrivée"
	default:
		return ""
	}
}

// Fields holds the per-field constraints. An empty value is inactive.
type Fields struct {
	PNR       string
	Name      string
	Departure string
	Arrival   string
}

// Get returns the constraint for f.
func (fs Fields) Get(f Field) string {
	switch f {
	case FieldPNR:
		return fs.PNR
	case FieldName:
		return fs.Name
	case FieldDeparture:
		return fs.Departure
	case FieldArrival:
		return fs.Arrival
	default:
		return ""
	}
}

// Set replaces the constraint for f.
func (fs *Fields) Set(f Field, value string) {
	switch f {
	case FieldPNR:
		fs.PNR = value
	case FieldName:
		fs.Name = value
	case FieldDeparture:
		fs.Departure = value
	case FieldArrival:
		fs.Arrival = value
	}
}

// Active reports whether any constraint is set.
func (fs Fields) Active() bool {
	return fs.PNR != "" || fs.Name != "" || fs.Departure != "" || fs.Arrival != ""
}

// Apply returns the voyages matching query and every active field
// constraint, in input order. The input is never modified.
func Apply(records []api.Voyage, query string, fields Fields) []api.Voyage {
	out := make([]api.Voyage, 0, len(records))
	for _, v := range records {
		if Matches(v, query, fields) {
			out = append(out, v)
		}
	}
	return out
}

// Matches applies the filter to a single voyage. The query must appear in
// at least one searchable field; each field constraint must appear in its
// own field. The name constraint accepts the family or given name.
func Matches(v api.Voyage, query string, fields Fields) bool {
	if query != "" && !matchesQuery(v, query) {
		return false
	}
	if fields.PNR != "" && !contains(v.PNR, fields.PNR) {
		return false
	}
	if fields.Name != "" && !contains(v.FamilyName, fields.Name) && !contains(v.GivenName, fields.Name) {
		return false
	}
	if fields.Departure != "" && !contains(v.DepartureCity, fields.Departure) {
		return false
	}
	if fields.Arrival != "" && !contains(v.ArrivalCity, fields.Arrival) {
		return false
	}
	return true
}

func matchesQuery(v api.Voyage, query string) bool {
	for _, field := range []string{
		v.PNR,
		v.FlightNumber,
		v.FamilyName,
		v.GivenName,
		v.DepartureCity,
		v.ArrivalCity,
	} {
		if contains(field, query) {
			return true
		}
	}
	return false
}

func contains(value, needle string) bool {
	if value == "" {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}
