package search

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ramops/bagdesk/internal/api"
)

func sampleVoyages() []api.Voyage {
	return []api.Voyage{
		{ID: "1", PNR: "XKQ7TR", FlightNumber: "AT200", FamilyName: "Alaoui", GivenName: "Sara", DepartureCity: "Casablanca", ArrivalCity: "Paris"},
		{ID: "2", PNR: "PLM42A", FlightNumber: "AT201", FamilyName: "Smith", GivenName: "John", DepartureCity: "Paris", ArrivalCity: "Casablanca"},
		{ID: "3", PNR: "ZZT001", FlightNumber: "AB123", FamilyName: "Benali", GivenName: "Omar", DepartureCity: "Rabat", ArrivalCity: "Madrid"},
		{ID: "4", PNR: "QWE987", FlightNumber: "AT970", FamilyName: "Durand", GivenName: "Smithy", DepartureCity: "Marrakech", ArrivalCity: "Lyon"},
		{ID: "5"},
	}
}

func ids(voyages []api.Voyage) []string {
	out := make([]string, 0, len(voyages))
	for _, v := range voyages {
		out = append(out, v.ID.String())
	}
	return out
}

func TestApplyEmptyFilterIsIdentity(t *testing.T) {
	records := sampleVoyages()
	got := Apply(records, "", Fields{})
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("Apply with empty filter = %v, want %v", ids(got), ids(records))
	}
}

func TestApplyQueryResultsContainQuery(t *testing.T) {
	records := sampleVoyages()
	for _, q := range []string{"cas", "PARIS", "at2", "o", "zz", "nothing-matches"} {
		got := Apply(records, q, Fields{})
		for _, v := range got {
			hay := strings.ToLower(strings.Join([]string{
				v.PNR, v.FlightNumber, v.FamilyName, v.GivenName, v.DepartureCity, v.ArrivalCity,
			}, "\x00"))
			if !strings.Contains(hay, strings.ToLower(q)) {
				t.Fatalf("Apply(%q) returned %s which does not contain the query", q, v.ID)
			}
		}
		if len(got) > len(records) {
			t.Fatalf("Apply(%q) returned more records than input", q)
		}
	}
}

func TestApplyQueryMatchesFlightNumberCaseInsensitively(t *testing.T) {
	records := []api.Voyage{
		{ID: "a", FlightNumber: "ab123"},
		{ID: "b", FlightNumber: "CD999"},
	}
	got := Apply(records, "AB123", Fields{})
	if want := []string{"a"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("Apply(AB123) = %v, want %v", ids(got), want)
	}
}

func TestApplyNameConstraintChecksBothNames(t *testing.T) {
	got := Apply(sampleVoyages(), "", Fields{Name: "smith"})
	if want := []string{"2", "4"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("Apply(name=smith) = %v, want %v", ids(got), want)
	}
}

func TestApplyQueryAndFieldsAreAnded(t *testing.T) {
	got := Apply(sampleVoyages(), "casablanca", Fields{Departure: "paris"})
	if want := []string{"2"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("Apply = %v, want %v", ids(got), want)
	}
}

func TestApplyFieldConstraintsCommute(t *testing.T) {
	records := sampleVoyages()
	pnrThenArrival := Apply(Apply(records, "", Fields{PNR: "e"}), "", Fields{Arrival: "l"})
	arrivalThenPNR := Apply(Apply(records, "", Fields{Arrival: "l"}), "", Fields{PNR: "e"})
	combined := Apply(records, "", Fields{PNR: "e", Arrival: "l"})

	if !reflect.DeepEqual(pnrThenArrival, arrivalThenPNR) {
		t.Fatalf("order dependent: %v vs %v", ids(pnrThenArrival), ids(arrivalThenPNR))
	}
	if !reflect.DeepEqual(combined, pnrThenArrival) {
		t.Fatalf("combined = %v, sequential = %v", ids(combined), ids(pnrThenArrival))
	}
}

func TestApplyToleratesMissingFields(t *testing.T) {
	got := Apply([]api.Voyage{{ID: "empty"}}, "x", Fields{})
	if len(got) != 0 {
		t.Fatalf("empty record matched query: %v", ids(got))
	}
	got = Apply([]api.Voyage{{ID: "empty"}}, "", Fields{Departure: "rabat"})
	if len(got) != 0 {
		t.Fatalf("empty record matched departure: %v", ids(got))
	}
}

func TestApplyPreservesOrderAndDoesNotMutate(t *testing.T) {
	records := sampleVoyages()
	before := append([]api.Voyage(nil), records...)

	got := Apply(records, "a", Fields{})
	if !reflect.DeepEqual(records, before) {
		t.Fatalf("Apply mutated its input")
	}
	if want := []string{"1", "2", "3", "4"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("Apply(a) = %v, want %v", ids(got), want)
	}
	if len(got) > 0 {
		got[0].PNR = "changed"
		if records[0].PNR == "changed" {
			t.Fatalf("result aliases input")
		}
	}
}

func TestApplyNilInputReturnsEmpty(t *testing.T) {
	got := Apply(nil, "", Fields{})
	if got == nil || len(got) != 0 {
		t.Fatalf("Apply(nil) = %#v, want empty slice", got)
	}
}

func TestFieldsSetGetActive(t *testing.T) {
	var fs Fields
	if fs.Active() {
		t.Fatalf("zero Fields reported active")
	}
	for _, f := range AllFields {
		fs.Set(f, f.Label())
		if got := fs.Get(f); got != f.Label() {
			t.Fatalf("Get(%v) = %q, want %q", f, got, f.Label())
		}
	}
	if !fs.Active() {
		t.Fatalf("Fields with values reported inactive")
	}
}
