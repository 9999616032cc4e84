// Package metrics exports pipeline counters to Prometheus.
package metrics

import (
	"github.com/jrsteele09/go-finance-client/link"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "finclient"

// Prometheus records refresh-retry events as counters.
type Prometheus struct {
	authFailures    *prometheus.CounterVec
	refreshAttempts *prometheus.CounterVec
	retries         *prometheus.CounterVec
}

var _ link.Recorder = (*Prometheus)(nil)

// NewPrometheus creates the counters and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Operations whose outcome was classified as an authentication failure.",
		}, []string{"operation"}),
		refreshAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_attempts_total",
			Help:      "Token refreshes triggered by the pipeline, by outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Operations replayed after a successful refresh.",
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{p.authFailures, p.refreshAttempts, p.retries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) AuthFailure(operation string) {
	p.authFailures.WithLabelValues(operation).Inc()
}

func (p *Prometheus) RefreshAttempt(_, outcome string) {
	p.refreshAttempts.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) Retry(operation string) {
	p.retries.WithLabelValues(operation).Inc()
}
