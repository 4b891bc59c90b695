package poll

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/state"
)

type scriptedSource struct {
	mu      sync.Mutex
	results []result
	calls   int
}

type result struct {
	voyages []api.Voyage
	err     error
}

func (s *scriptedSource) fetch(context.Context) ([]api.Voyage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	r := s.results[i]
	return r.voyages, r.err
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []bool
}

func (o *recordingObserver) ObservePoll(_ string, _ int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, err == nil)
}

func (o *recordingObserver) snapshot() []bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.outcomes)
}

func TestControllerSecondTickReplacesRecords(t *testing.T) {
	src := &scriptedSource{results: []result{
		{voyages: []api.Voyage{{ID: "1"}, {ID: "2"}}},
		{voyages: []api.Voyage{{ID: "1"}}},
	}}
	store := state.NewStore(slices.Clone[[]api.Voyage])

	c := New("voyages", 10*time.Millisecond, src.fetch, store.Update)
	c.Refresh(context.Background())
	require.Len(t, store.Snapshot().Data, 2)

	c.Refresh(context.Background())
	snap := store.Snapshot()
	require.Len(t, snap.Data, 1)
	require.Equal(t, api.ID("1"), snap.Data[0].ID)
}

func TestControllerFailureClearsAndKeepsPolling(t *testing.T) {
	boom := errors.New("boom")
	src := &scriptedSource{results: []result{
		{voyages: []api.Voyage{{ID: "1"}}},
		{err: boom},
		{voyages: []api.Voyage{{ID: "3"}}},
	}}
	store := state.NewStore(slices.Clone[[]api.Voyage])
	obs := &recordingObserver{}

	c := New("voyages", 5*time.Millisecond, src.fetch, store.Update,
		WithObserver[[]api.Voyage](obs),
		WithSize(func(v []api.Voyage) int { return len(v) }),
	)
	c.Start(context.Background())
	t.Cleanup(c.Stop)

	require.Eventually(t, func() bool { return len(obs.snapshot()) >= 3 }, time.Second, time.Millisecond)
	c.Stop()

	require.Equal(t, []bool{true, false, true}, obs.snapshot()[:3])
	require.Equal(t, api.ID("3"), store.Snapshot().Data[0].ID)
}

func TestControllerFailureSinkSeesError(t *testing.T) {
	boom := errors.New("boom")
	src := &scriptedSource{results: []result{{voyages: []api.Voyage{{ID: "1"}}}, {err: boom}}}
	store := state.NewStore(slices.Clone[[]api.Voyage])
	c := New("voyages", time.Hour, src.fetch, store.Update)

	c.Refresh(context.Background())
	c.Refresh(context.Background())

	snap := store.Snapshot()
	require.Empty(t, snap.Data)
	require.ErrorIs(t, snap.LastError, boom)
}

func TestControllerStopPreventsLateDelivery(t *testing.T) {
	started := make(chan struct{})
	var delivered atomic.Int32
	var once sync.Once

	fetch := func(ctx context.Context) (int, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return 42, nil
	}
	c := New("detail", time.Hour, fetch, func(int, error) { delivered.Add(1) })
	c.Start(context.Background())

	<-started
	c.Stop()

	require.False(t, c.Running())
	require.Zero(t, delivered.Load())
}

func TestControllerFetchesNeverOverlap(t *testing.T) {
	var inFlight, maxInFlight, calls atomic.Int32
	fetch := func(context.Context) (int, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(3 * time.Millisecond)
		inFlight.Add(-1)
		calls.Add(1)
		return 0, nil
	}

	c := New("voyages", time.Millisecond, fetch, func(int, error) {})
	c.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 5 }, time.Second, time.Millisecond)
	c.Stop()

	require.Equal(t, int32(1), maxInFlight.Load())
}

func TestControllerStartIsIdempotentAndStopRestartable(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		return 0, nil
	}
	c := New("voyages", time.Hour, fetch, func(int, error) {})

	c.Start(context.Background())
	c.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	require.True(t, c.Running())

	c.Stop()
	c.Stop()
	require.False(t, c.Running())

	c.Start(context.Background())
	t.Cleanup(c.Stop)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
}

func TestControllerParentCancelEndsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	c := New("voyages", time.Millisecond, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, nil
	}, func(int, error) {})

	c.Start(ctx)
	require.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	c.Stop()

	after := calls.Load()
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, after, calls.Load())
}

func TestNewDefaultsInterval(t *testing.T) {
	c := New("voyages", 0, func(context.Context) (int, error) { return 0, nil }, func(int, error) {})
	require.Equal(t, DefaultInterval, c.Interval())
	require.Equal(t, "voyages", c.Name())
}
