// Package metrics exports ledger call and event counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bitfsorg/librbf-go/chain"
)

const namespace = "librbf"

// Result label values besides the rejection kinds.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder is a chain.Observer backed by its own Prometheus registry.
type Recorder struct {
	reg      *prometheus.Registry
	calls    *prometheus.CounterVec
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ chain.Observer = (*Recorder)(nil)

// New creates a Recorder and registers its collectors.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Ledger calls by operation and result.",
		}, []string{"op", "result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed ledger events by name.",
		}, []string{"event"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Wall time of ledger calls.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"op"}),
	}
	r.reg.MustRegister(r.calls, r.events, r.duration)
	return r
}

// Result maps a call error to its result label: "ok", the rejection kind,
// or "error" for failures that carry no kind.
func Result(err error) string {
	if err == nil {
		return ResultOK
	}
	if k := chain.KindOf(err); k != 0 {
		return k.String()
	}
	return ResultError
}

// CallFinished implements chain.Observer.
func (r *Recorder) CallFinished(op string, err error, elapsed time.Duration) {
	r.calls.WithLabelValues(op, Result(err)).Inc()
	r.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// EventCommitted implements chain.Observer.
func (r *Recorder) EventCommitted(ev chain.Event) {
	r.events.WithLabelValues(ev.Name).Inc()
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		log.Info("metrics listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
