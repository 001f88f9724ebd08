// Package metrics counts lookups and submissions and serves them in the
// Prometheus format.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wedding-rsvp/internal/models"
)

// Recorder receives RSVP outcomes
type Recorder interface {
	Lookup(found bool)
	Submission(updated bool, status models.RSVPStatus)
}

// Nop discards everything
type Nop struct{}

func (Nop) Lookup(bool)                        {}
func (Nop) Submission(bool, models.RSVPStatus) {}

// Prometheus implements Recorder on its own registry
type Prometheus struct {
	reg         *prometheus.Registry
	lookups     *prometheus.CounterVec
	submissions *prometheus.CounterVec
}

// NewPrometheus registers the RSVP counters plus the Go and process
// collectors on a fresh registry
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		reg: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rsvp_lookups_total",
			Help: "Guest lookups by phone or handle, by result.",
		}, []string{"result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rsvp_submissions_total",
			Help: "Recorded RSVP answers, by write action and status.",
		}, []string{"action", "status"}),
	}

	for _, c := range []prometheus.Collector{
		p.lookups,
		p.submissions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	} {
		register(p.reg, c)
	}
	return p
}

func register(reg prometheus.Registerer, c prometheus.Collector) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return
		}
		panic(err)
	}
}

func (p *Prometheus) Lookup(found bool) {
	result := "not_found"
	if found {
		result = "found"
	}
	p.lookups.WithLabelValues(result).Inc()
}

func (p *Prometheus) Submission(updated bool, status models.RSVPStatus) {
	action := "append"
	if updated {
		action = "update"
	}
	p.submissions.WithLabelValues(action, string(status)).Inc()
}

// Handler serves the registry
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}
