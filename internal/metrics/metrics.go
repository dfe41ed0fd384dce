package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline holds the notification pipeline's collectors. Each instance
// owns its registry so tests can create as many as they like.
type Pipeline struct {
	Registry *prometheus.Registry

	Classified          *prometheus.CounterVec
	JoinRequestsDropped *prometheus.CounterVec
	FetchFailures       prometheus.Counter
	FetchDuration       prometheus.Histogram
	PollsSkipped        prometheus.Counter
	ActionFailures      *prometheus.CounterVec
}

// NewPipeline creates and registers the pipeline collectors.
func NewPipeline() *Pipeline {
	reg := prometheus.NewRegistry()

	p := &Pipeline{
		Registry: reg,
		Classified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhub_notifications_classified_total",
				Help: "Notifications emitted by the pipeline, by type",
			},
			[]string{"type"},
		),
		JoinRequestsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhub_join_requests_dropped_total",
				Help: "Join request notifications dropped because no request id could be verified",
			},
			[]string{"reason"},
		),
		FetchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clubhub_fetch_failures_total",
				Help: "Pipeline runs that failed during the initial backend reads",
			},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "clubhub_pipeline_duration_seconds",
				Help:    "Wall time of a full pipeline run",
				Buckets: prometheus.DefBuckets,
			},
		),
		PollsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clubhub_polls_skipped_total",
				Help: "Poll ticks skipped because the previous fetch was still in flight",
			},
		),
		ActionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhub_action_failures_total",
				Help: "Failed write actions, by action",
			},
			[]string{"action"},
		),
	}

	reg.MustRegister(
		p.Classified,
		p.JoinRequestsDropped,
		p.FetchFailures,
		p.FetchDuration,
		p.PollsSkipped,
		p.ActionFailures,
	)

	return p
}

// Handler exposes the registry in the Prometheus text format.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})
}
