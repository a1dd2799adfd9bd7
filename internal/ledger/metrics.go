package ledger

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK                = "ok"
	resultUnknownParty      = "unknown_party"
	resultInsufficientFunds = "insufficient_funds"
	resultError             = "error"
)

// Metrics counts purchase outcomes and the amount spent.
type Metrics struct {
	Purchases *prometheus.CounterVec
	Spent     prometheus.Counter
}

// NewMetrics registers the purchase collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "market",
			Name:      "purchases_total",
			Help:      "Purchase attempts by outcome",
		}, []string{"result"}),
		Spent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "market",
			Name:      "purchase_amount_total",
			Help:      "Sum of prices of successful purchases",
		}),
	}
	reg.MustRegister(m.Purchases, m.Spent)
	return m
}

// Observe records one purchase attempt. A nil *Metrics is a no-op.
func (m *Metrics) Observe(r Receipt, err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.Purchases.WithLabelValues(resultOK).Inc()
		m.Spent.Add(float64(r.Price))
		return
	}
	m.Purchases.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrUnknownParty):
		return resultUnknownParty
	case errors.Is(err, ErrInsufficientFunds):
		return resultInsufficientFunds
	default:
		return resultError
	}
}
