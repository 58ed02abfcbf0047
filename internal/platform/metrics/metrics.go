package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los contadores de la API. Cada instancia tiene su propio
// registry, así los tests pueden crear varios routers sin colisiones.
// Todos los métodos toleran receptor nil.
type Metrics struct {
	registry *prometheus.Registry

	logins     *prometheus.CounterVec
	classified *prometheus.CounterVec
	dashboards prometheus.Counter
	sessions   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petvax_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		classified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petvax_vaccines_classified_total",
			Help: "Vaccines classified by due status while building dashboards",
		}, []string{"status"}),
		dashboards: f.NewCounter(prometheus.CounterOpts{
			Name: "petvax_dashboards_served_total",
			Help: "Dashboard summaries computed",
		}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petvax_session_transitions_total",
			Help: "Session cache state transitions by target state",
		}, []string{"state"}),
	}
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) VaccinesClassified(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.classified.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) DashboardServed() {
	if m == nil {
		return
	}
	m.dashboards.Inc()
}

func (m *Metrics) SessionTransition(state string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(state).Inc()
}

// Handler expone /metrics para este registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
