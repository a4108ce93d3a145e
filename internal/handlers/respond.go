package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/ports"
)

// Response is the envelope every endpoint writes
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries the machine-readable code alongside the message
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, logger ports.Logger, err error) {
	code := domain.GetErrorCode(err)
	status := statusForCode(code)

	body := &ErrorBody{Code: string(code)}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		// surface the stable message and details, not the wrapped chain
		body.Message = domainErr.Message
		if len(domainErr.Details) > 0 {
			body.Details = domainErr.Details
		}
	}
	if code == "" || status == http.StatusInternalServerError {
		// never leak internals to the client
		body.Code = string(domain.ErrorCodeInternalError)
		body.Message = "internal server error"
		body.Details = nil
		if logger != nil {
			logger.Error("request failed", ports.Err(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: false, Error: body})
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.ErrorCodeValidationFailed,
		domain.ErrorCodeValidationDates,
		domain.ErrorCodeValidationAmountInvalid,
		domain.ErrorCodeAmountExceedsRemainder:
		return http.StatusBadRequest
	case domain.ErrorCodeAuthSignatureMismatch:
		return http.StatusUnauthorized
	case domain.ErrorCodeGatewayDeclined:
		return http.StatusPaymentRequired
	case domain.ErrorCodeReservationNotFound,
		domain.ErrorCodePaymentNotFound,
		domain.ErrorCodeCatalogNotFound:
		return http.StatusNotFound
	case domain.ErrorCodeTransitionInvalid,
		domain.ErrorCodeConflictActivePayment,
		domain.ErrorCodeConflictStaleState,
		domain.ErrorCodeIntegrityTxnMismatch:
		return http.StatusConflict
	case domain.ErrorCodeGatewayError:
		return http.StatusBadGateway
	case domain.ErrorCodeGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
