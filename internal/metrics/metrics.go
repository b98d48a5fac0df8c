package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablebook_api_requests_total",
		Help: "Requests issued to the reservation API by endpoint and status class.",
	}, []string{"endpoint", "status"})

	BookingAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablebook_booking_attempts_total",
		Help: "Reservation submission attempts by payload variant and outcome.",
	}, []string{"variant", "outcome"})

	ResolverFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablebook_resolver_fallbacks_total",
		Help: "Availability lookups answered at each fallback tier.",
	}, []string{"tier"})
)

// StatusClass folds an HTTP status into 2xx/4xx/5xx, with 0 meaning a
// transport failure before any status was received.
func StatusClass(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
