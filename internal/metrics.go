package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "partner_gateway",
		Name:      "token_refreshes_total",
		Help:      "Client-credentials token requests made against the partner, by outcome.",
	}, []string{"outcome"})

	partnerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "partner_gateway",
		Name:      "partner_requests_total",
		Help:      "HTTP calls made against partner resources, by method and status code.",
	}, []string{"method", "status"})

	partnerRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "partner_gateway",
		Name:      "partner_retries_total",
		Help:      "Read-only partner calls retried after a transient failure.",
	})

	ActionsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "partner_gateway",
		Name:      "actions_total",
		Help:      "Dispatched actions, by action name and outcome.",
	}, []string{"action", "outcome"})
)
