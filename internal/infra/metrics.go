package infra

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	UsersRegistered    prometheus.Counter
	RequestsCreated    prometheus.Counter
	RequestTransitions *prometheus.CounterVec
	ConfirmConflicts   prometheus.Counter
	FundingRecorded    prometheus.Counter
	FundingAmount      prometheus.Counter
	HTTPDuration       *prometheus.HistogramVec
	SQLDuration        *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "blooddonation_users_registered_total",
			Help: "Total number of registered users",
		}),
		RequestsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "blooddonation_requests_created_total",
			Help: "Total number of donation requests created",
		}),
		RequestTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blooddonation_request_transitions_total",
			Help: "Donation request status transitions by target status",
		}, []string{"to"}),
		ConfirmConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "blooddonation_confirm_conflicts_total",
			Help: "Confirmations rejected because the request was no longer pending",
		}),
		FundingRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "blooddonation_funding_records_total",
			Help: "Total number of funding records written",
		}),
		FundingAmount: f.NewCounter(prometheus.CounterOpts{
			Name: "blooddonation_funding_amount_total",
			Help: "Sum of recorded funding in the smallest currency unit",
		}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blooddonation_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		SQLDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blooddonation_sql_duration_seconds",
			Help:    "SQL statement latency by query marker",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"marker"}),
	}
}

// ObserveSQL records the latency of a marked statement. Nil receivers are ignored.
func (m *Metrics) ObserveSQL(marker string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SQLDuration.WithLabelValues(marker).Observe(elapsed.Seconds())
}

func (m *Metrics) UserRegistered() {
	if m != nil {
		m.UsersRegistered.Inc()
	}
}

func (m *Metrics) RequestCreated() {
	if m != nil {
		m.RequestsCreated.Inc()
	}
}

func (m *Metrics) RequestTransitioned(to string) {
	if m != nil {
		m.RequestTransitions.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) ConfirmConflict() {
	if m != nil {
		m.ConfirmConflicts.Inc()
	}
}

func (m *Metrics) Funded(amount int64) {
	if m != nil {
		m.FundingRecorded.Inc()
		m.FundingAmount.Add(float64(amount))
	}
}
