package sync

import (
	"context"
	"errors"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/clubhub/internal/backend"
	"github.com/nhle/clubhub/internal/logger"
	"github.com/nhle/clubhub/internal/metrics"
	"github.com/nhle/clubhub/internal/model"
)

// stubLister returns canned results. When block is set every call waits
// for a value on release (or ctx cancellation) before returning.
type stubLister struct {
	mu      gosync.Mutex
	results [][]model.Notification
	err     error
	calls   atomic.Int32
	block   bool
	entered chan struct{}
	release chan struct{}
}

func (s *stubLister) List(ctx context.Context) ([]model.Notification, error) {
	n := s.calls.Add(1)
	if s.block {
		s.entered <- struct{}{}
		select {
		case <-s.release:
		case <-ctx.Done():
			return []model.Notification{}, ctx.Err()
		}
	}
	if s.err != nil {
		return []model.Notification{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := int(n) - 1
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	if idx < 0 {
		return []model.Notification{}, nil
	}
	return s.results[idx], nil
}

func newBlockingLister() *stubLister {
	return &stubLister{
		block:   true,
		entered: make(chan struct{}, 8),
		release: make(chan struct{}, 8),
	}
}

func newTestPoller(t *testing.T, l Lister) (*Poller, *metrics.Pipeline) {
	t.Helper()
	m := metrics.NewPipeline()
	p := New(l, Options{
		Interval:     time.Hour,
		FetchTimeout: 5 * time.Second,
		Logger:       logger.NewTestLogger(t),
		Metrics:      m,
	})
	return p, m
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for lister")
	}
}

func TestPoller_RunOnceCountsNewUnread(t *testing.T) {
	l := &stubLister{results: [][]model.Notification{
		{{ID: "backend_1"}},
		{{ID: "backend_2"}, {ID: "backend_3", Read: true}, {ID: "backend_1"}},
	}}
	p, _ := newTestPoller(t, l)

	first := p.RunOnce(context.Background())
	require.NoError(t, first.Err)
	assert.NotEmpty(t, first.RunID)
	assert.Equal(t, 0, first.NewCount)

	second := p.RunOnce(context.Background())
	require.NoError(t, second.Err)
	assert.Len(t, second.Notifications, 3)
	assert.Equal(t, 1, second.NewCount)
	assert.NotEqual(t, first.RunID, second.RunID)

	status := p.Status()
	assert.Equal(t, PollIdle, status.State)
	assert.False(t, status.LastPoll.IsZero())
}

func TestPoller_RunOnceReportsErrors(t *testing.T) {
	l := &stubLister{err: errors.New("network unreachable")}
	p, _ := newTestPoller(t, l)

	res := p.RunOnce(context.Background())
	require.Error(t, res.Err)
	assert.Nil(t, res.AuthError)
	assert.Empty(t, res.Notifications)
	assert.Equal(t, PollError, p.Status().State)
}

func TestPoller_RunOnceFlagsAuthErrors(t *testing.T) {
	l := &stubLister{err: &backend.AuthError{Method: "getNotifications", Message: "expired"}}
	p, _ := newTestPoller(t, l)

	res := p.RunOnce(context.Background())
	require.NotNil(t, res.AuthError)
	assert.Contains(t, res.AuthError.Message, "Session expired")
}

func TestPoller_SkipsOverlappingRuns(t *testing.T) {
	l := newBlockingLister()
	l.results = [][]model.Notification{{{ID: "backend_1"}}}
	p, m := newTestPoller(t, l)

	p.Start()
	t.Cleanup(p.Stop)
	waitFor(t, l.entered)

	p.tryRun("tick")
	p.tryRun("refresh")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PollsSkipped))
	assert.Equal(t, 2, p.Status().Skipped)
	assert.Equal(t, PollRunning, p.Status().State)

	l.release <- struct{}{}
	select {
	case res := <-p.Results():
		require.NoError(t, res.Err)
		assert.Len(t, res.Notifications, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("no result delivered")
	}
	assert.Equal(t, int32(1), l.calls.Load())
}

func TestPoller_RefreshRunsAgainAfterCompletion(t *testing.T) {
	l := newBlockingLister()
	l.results = [][]model.Notification{{{ID: "backend_1"}}, {{ID: "backend_1"}, {ID: "backend_2"}}}
	p, _ := newTestPoller(t, l)

	p.Start()
	t.Cleanup(p.Stop)

	waitFor(t, l.entered)
	l.release <- struct{}{}
	<-p.Results()

	require.Eventually(t, func() bool { return !p.inFlight.Load() }, 5*time.Second, 10*time.Millisecond)

	p.Refresh()
	waitFor(t, l.entered)
	l.release <- struct{}{}

	res := <-p.Results()
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.NewCount)
	assert.Equal(t, int32(2), l.calls.Load())
}

func TestPoller_StopCancelsInFlightRun(t *testing.T) {
	l := newBlockingLister()
	p, _ := newTestPoller(t, l)

	p.Start()
	waitFor(t, l.entered)

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	res := <-p.Results()
	assert.ErrorIs(t, res.Err, context.Canceled)

	// Stopping twice is harmless.
	p.Stop()
}

func TestPoller_StartIsIdempotent(t *testing.T) {
	l := &stubLister{}
	p, _ := newTestPoller(t, l)

	require.NotNil(t, p.Start())
	assert.Nil(t, p.Start())
	p.Stop()
}
