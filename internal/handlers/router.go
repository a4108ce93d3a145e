package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drivehub/booking-service/internal/domain/ports"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
	"github.com/drivehub/booking-service/pkg/observability"
)

// NewRouter assembles the HTTP surface: reservation and payment APIs, the
// deposit webhook, health, and metrics.
func NewRouter(
	reservations svcports.ReservationService,
	payments svcports.PaymentService,
	health *observability.HealthChecker,
	logger ports.Logger,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(observability.HTTPMetricsMiddleware())

	NewReservationHandler(reservations, logger).RegisterRoutes(router)
	NewPaymentHandler(payments, logger).RegisterRoutes(router)
	NewWebhookHandler(payments, logger).RegisterRoutes(router)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	if health != nil {
		router.HandleFunc("/healthz", health.HealthHandler()).Methods("GET")
	} else {
		router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}).Methods("GET")
	}

	return router
}
