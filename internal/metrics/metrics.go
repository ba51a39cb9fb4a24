package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eventsift"

// Outcome labels for runs_total.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Recorder owns the pipeline collectors.
type Recorder struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	records     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess prometheus.Gauge
	cycles      prometheus.Counter
}

// New builds a Recorder with its own registry. Process and Go runtime
// collectors are included so the endpoint is useful on its own.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	r.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_runs_total",
		Help:      "Stage executions by outcome",
	}, []string{"stage", "outcome"})
	r.records = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_total",
		Help:      "Records touched per stage and action",
	}, []string{"stage", "action"})
	r.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each stage",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 900},
	}, []string{"stage"})
	r.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last cycle with no failed stage",
	})
	r.cycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Pipeline cycles started",
	})
	r.registry.MustRegister(
		r.runs, r.records, r.duration, r.lastSuccess, r.cycles,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// CycleStarted counts a new cycle.
func (r *Recorder) CycleStarted() {
	if r == nil {
		return
	}
	r.cycles.Inc()
}

// ObserveStage records one stage execution and its per-action counts.
func (r *Recorder) ObserveStage(stage string, elapsed time.Duration, err error, counts map[string]int) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	}
	r.runs.WithLabelValues(stage, outcome).Inc()
	r.duration.WithLabelValues(stage).Observe(elapsed.Seconds())
	for action, n := range counts {
		if n <= 0 {
			continue
		}
		r.records.WithLabelValues(stage, action).Add(float64(n))
	}
}

// CycleSucceeded stamps the last-success gauge.
func (r *Recorder) CycleSucceeded(at time.Time) {
	if r == nil {
		return
	}
	r.lastSuccess.Set(float64(at.Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Server serves /metrics and /healthz on a bind address.
type Server struct {
	server *http.Server
}

// NewServer mounts the recorder on a mux bound to addr.
func NewServer(addr string, r *Recorder) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &Server{server: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

// Start listens on the bind address and serves in the background. Listen
// errors are returned synchronously; serve errors go to errCh.
func (s *Server) Start(errCh chan<- error) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) && errCh != nil {
			errCh <- err
		}
	}()
	return nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
