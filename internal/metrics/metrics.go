package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ApplicationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultmeet_applications_total",
			Help: "Intake lifecycle counter by kind and stage",
		},
		[]string{"kind", "stage"}, // seeker|sponsor , received|invalid|upload_failed|created
	)

	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultmeet_decisions_total",
			Help: "Review decisions by kind and outcome",
		},
		[]string{"kind", "outcome"}, // seeker|sponsor , approved|rejected|deleted
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultmeet_notifications_total",
			Help: "Notification deliveries by template and result",
		},
		[]string{"template", "result"}, // approval|rejection , sent|failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		ApplicationsTotal,
		DecisionsTotal,
		NotificationsTotal,
	)
}
