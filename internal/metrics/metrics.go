package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngobrol_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ngobrol_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ngobrol_users_registered_total",
			Help: "Total users registered",
		},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngobrol_logins_total",
			Help: "Total login attempts",
		},
		[]string{"result"}, // "success" or "failure"
	)

	RoomsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngobrol_rooms_created_total",
			Help: "Total rooms created",
		},
		[]string{"room_type"}, // "public" or "private"
	)

	MembersJoined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ngobrol_room_joins_total",
			Help: "Total room joins",
		},
	)

	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ngobrol_tokens_issued_total",
			Help: "Total session tokens issued",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngobrol_auth_failures_total",
			Help: "Total rejected requests at the auth gateway",
		},
		[]string{"reason"},
	)
)
