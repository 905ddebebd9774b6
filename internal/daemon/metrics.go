package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/stakeledger/internal/model"
)

const namespace = "stakeledger"

// metrics owns a private registry so several services can coexist in one process.
type metrics struct {
	reg *prometheus.Registry

	polls      prometheus.Counter
	pollErrors prometheus.Counter
	period     *prometheus.GaugeVec
	budget     *prometheus.GaugeVec
	venueSpent *prometheus.GaugeVec
	venueLimit *prometheus.GaugeVec
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Ledger polls performed by the daemon.",
		}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Ledger polls that failed to reload storage.",
		}),
		period: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "period_amount",
			Help:      "Spent, won and net totals for the current week and month.",
		}, []string{"period", "kind"}),
		budget: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "budget",
			Help:      "Configured global budget per period. Zero is unlimited.",
		}, []string{"period"}),
		venueSpent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "venue_week_spent",
			Help:      "Spent this ISO week per venue.",
		}, []string{"venue"}),
		venueLimit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "venue_weekly_limit",
			Help:      "Weekly limit per venue. Zero is unlimited.",
		}, []string{"venue"}),
	}
	m.reg.MustRegister(m.polls, m.pollErrors, m.period, m.budget, m.venueSpent, m.venueLimit)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *metrics) observe(sum model.Summary) {
	setTotals(m.period, "week", sum.Week.Totals)
	setTotals(m.period, "month", sum.Month.Totals)
	m.budget.WithLabelValues("week").Set(f64(sum.Week.Budget))
	m.budget.WithLabelValues("month").Set(f64(sum.Month.Budget))

	// Removed venues must not linger as stale series.
	m.venueSpent.Reset()
	m.venueLimit.Reset()
	for _, v := range sum.Week.ByVenue {
		m.venueSpent.WithLabelValues(v.Name).Set(f64(v.Spent))
		m.venueLimit.WithLabelValues(v.Name).Set(f64(v.WeeklyLimit))
	}
}

func setTotals(g *prometheus.GaugeVec, period string, t model.Totals) {
	g.WithLabelValues(period, "spent").Set(f64(t.Spent))
	g.WithLabelValues(period, "won").Set(f64(t.Won))
	g.WithLabelValues(period, "net").Set(f64(t.Net))
}

func f64(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
