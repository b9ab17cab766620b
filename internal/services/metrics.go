package services

import "github.com/prometheus/client_golang/prometheus"

var (
	mentionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentions_created_total",
			Help: "Mention rows written, by mention type.",
		},
		[]string{"type"},
	)

	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Notification delivery attempts by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(mentionsCreated, deliveries)
}
