package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts what participants do. A nil *Metrics records nothing.
type Metrics struct {
	sessionsCreated *prometheus.CounterVec
	pagesCompleted  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dice_sessions_created_total",
				Help: "Total number of sessions created",
			},
			[]string{"config"},
		),
		pagesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dice_pages_completed_total",
				Help: "Total number of pages completed by participants",
			},
			[]string{"page"},
		),
	}
	reg.MustRegister(m.sessionsCreated, m.pagesCompleted)
	return m
}

func (m *Metrics) sessionCreated(config string) {
	if m == nil {
		return
	}
	m.sessionsCreated.WithLabelValues(config).Inc()
}

func (m *Metrics) pageCompleted(page Page) {
	if m == nil {
		return
	}
	m.pagesCompleted.WithLabelValues(page.String()).Inc()
}
