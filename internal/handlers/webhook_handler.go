package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/ports"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
)

// WebhookHandler receives out-of-band events from the payment processor
type WebhookHandler struct {
	service svcports.PaymentService
	logger  ports.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(service svcports.PaymentService, logger ports.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger}
}

// RegisterRoutes registers the webhook routes on the router
func (h *WebhookHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks/deposit", h.HandleDeposit).Methods("POST")
}

type depositNotificationBody struct {
	EventType     string `json:"event_type"`
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	SharedSecret  string `json:"shared_secret"`
}

// HandleDeposit handles POST /webhooks/deposit. The processor retries until
// it sees a 2xx, so success is only written after the deposit is durably
// applied. Replays of an already-applied notification return 200.
func (h *WebhookHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	var body depositNotificationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, domain.ErrValidationFailed.WithDetail("body", "malformed json"))
		return
	}

	h.logger.Info("deposit notification received",
		ports.String("event_type", body.EventType),
		ports.String("order_id", body.OrderID),
	)

	payment, err := h.service.ConfirmDeposit(r.Context(), svcports.DepositNotification{
		OrderID:      body.OrderID,
		GatewayTxnID: body.TransactionID,
		SharedSecret: body.SharedSecret,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentDTO(payment))
}
