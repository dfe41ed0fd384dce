package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline_IndependentRegistries(t *testing.T) {
	a := NewPipeline()
	b := NewPipeline()

	a.FetchFailures.Inc()
	a.Classified.WithLabelValues("join_request").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.FetchFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FetchFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.Classified.WithLabelValues("join_request")))
}

func TestPipeline_Handler(t *testing.T) {
	p := NewPipeline()
	p.PollsSkipped.Inc()
	p.JoinRequestsDropped.WithLabelValues("unverified").Inc()

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "clubhub_polls_skipped_total 1")
	assert.Contains(t, string(body), `clubhub_join_requests_dropped_total{reason="unverified"} 1`)
}
