package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObservePollCountsOutcomes(t *testing.T) {
	m := New()

	m.ObservePoll("voyages", 7, 10*time.Millisecond, nil)
	m.ObservePoll("voyages", 0, 5*time.Millisecond, errors.New("boom"))
	m.ObservePoll("voyages", 4, 5*time.Millisecond, nil)

	require.Equal(t, 2.0, testutil.ToFloat64(m.PollsTotal.WithLabelValues("voyages", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PollsTotal.WithLabelValues("voyages", "failure")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.PollRecords.WithLabelValues("voyages")))
}

func TestObserveRequestLabelsTransportErrors(t *testing.T) {
	m := New()

	m.ObserveRequest("/voyages/staff", 200, time.Millisecond)
	m.ObserveRequest("/voyages/staff", 0, time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/voyages/staff", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/voyages/staff", "error")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObservePoll("voyages", 1, time.Millisecond, nil)
	m.ObserveRequest("/admin/users", 500, time.Millisecond)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObservePoll("voyage", 2, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `bagdesk_polls_total{outcome="success",poller="voyage"} 1`)
}
