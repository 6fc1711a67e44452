// Package metrics exposes process-local prometheus counters for the billing
// lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	BillingsCreated  *prometheus.CounterVec
	PaymentsRecorded *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
}

func New() (*Metrics, error) {
	m := &Metrics{
		BillingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navlink_billings_created_total",
			Help: "Billing records created, by billing type.",
		}, []string{"billing_type"}),
		PaymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navlink_payments_recorded_total",
			Help: "Billing payments recorded, by method.",
		}, []string{"method"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navlink_bill_notifications_total",
			Help: "New-bill notification attempts, by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []*prometheus.CounterVec{m.BillingsCreated, m.PaymentsRecorded, m.Notifications} {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) BillingCreated(billingType string) {
	if m == nil {
		return
	}
	m.BillingsCreated.WithLabelValues(billingType).Inc()
}

func (m *Metrics) PaymentRecorded(method string) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.WithLabelValues(method).Inc()
}

func (m *Metrics) NotificationResult(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}
