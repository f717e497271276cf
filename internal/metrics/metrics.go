package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionSource reports the number of live composition sessions.
type SessionSource interface {
	Len() int
}

// Metrics holds Prometheus metric descriptors for the mail core. A nil
// *Metrics is valid and turns every method into a no-op, so components
// can be constructed without metrics in tests.
type Metrics struct {
	mailsSent      prometheus.Counter
	mailsClaimed   prometheus.Counter
	claimConflicts prometheus.Counter
	readPurged     prometheus.Counter
	unreadChecks   prometheus.Counter
	sessionsActive prometheus.Gauge

	sessions SessionSource
}

// New creates and registers the metric set against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailvault_mails_sent_total",
			Help: "Total mail messages persisted since start.",
		}),
		mailsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailvault_mails_claimed_total",
			Help: "Total successful attachment claims.",
		}),
		claimConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailvault_claim_conflicts_total",
			Help: "Claims that lost the conditional mark-claimed race.",
		}),
		readPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailvault_read_mails_purged_total",
			Help: "Read mail records removed by clear-read requests.",
		}),
		unreadChecks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailvault_unread_checks_total",
			Help: "Unread-mail checks performed on connect.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mailvault_sessions_active",
			Help: "Composition sessions currently held in the registry.",
		}),
	}

	reg.MustRegister(
		m.mailsSent,
		m.mailsClaimed,
		m.claimConflicts,
		m.readPurged,
		m.unreadChecks,
		m.sessionsActive,
	)

	return m
}

// TrackSessions wires a session registry into the active-sessions gauge.
func (m *Metrics) TrackSessions(src SessionSource) {
	if m == nil {
		return
	}
	m.sessions = src
}

// MailSent records a persisted message.
func (m *Metrics) MailSent() {
	if m != nil {
		m.mailsSent.Inc()
	}
}

// MailClaimed records a successful claim.
func (m *Metrics) MailClaimed() {
	if m != nil {
		m.mailsClaimed.Inc()
	}
}

// ClaimConflict records a claim that lost the conditional update.
func (m *Metrics) ClaimConflict() {
	if m != nil {
		m.claimConflicts.Inc()
	}
}

// ReadPurged records n records removed by a clear-read request.
func (m *Metrics) ReadPurged(n int64) {
	if m != nil {
		m.readPurged.Add(float64(n))
	}
}

// UnreadCheck records one connect-time unread check.
func (m *Metrics) UnreadCheck() {
	if m != nil {
		m.unreadChecks.Inc()
	}
}

// Update refreshes gauge metrics from their sources.
func (m *Metrics) Update() {
	if m == nil {
		return
	}
	if m.sessions != nil {
		m.sessionsActive.Set(float64(m.sessions.Len()))
	}
}

// Handler returns an http.Handler that updates gauges before serving the
// default registry.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Update()
		promhttp.Handler().ServeHTTP(w, r)
	})
}
