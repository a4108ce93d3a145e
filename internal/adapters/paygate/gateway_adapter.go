package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
)

// GatewayAdapter implements the PaymentGateway port against the PayGate
// REST API. Provider response shapes stay inside this package; callers
// only see the normalized port types and GATEWAY_* error codes.
type GatewayAdapter struct {
	config     AuthConfig
	baseURL    string
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewGatewayAdapter creates a new PayGate adapter with dependency injection
func NewGatewayAdapter(config AuthConfig, baseURL string, httpClient ports.HTTPClient, logger ports.Logger) *GatewayAdapter {
	return &GatewayAdapter{
		config:     config,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NewGatewayAdapterWithDefaults creates a new PayGate adapter with a default HTTP client
func NewGatewayAdapterWithDefaults(config AuthConfig, baseURL string, logger ports.Logger) *GatewayAdapter {
	return NewGatewayAdapter(config, baseURL, &http.Client{Timeout: 30 * time.Second}, logger)
}

type customerPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type chargeRequest struct {
	OrderID  string          `json:"order_id"`
	Amount   string          `json:"amount"`
	Currency string          `json:"currency"`
	Customer customerPayload `json:"customer"`
}

type chargeResponse struct {
	Result        string `json:"result"` // approved, declined
	ResultCode    string `json:"result_code"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id"`
	Card          struct {
		Issuer       string `json:"issuer"`
		MaskedNumber string `json:"masked_number"`
	} `json:"card"`
	ApprovedAt time.Time `json:"approved_at"`
}

type virtualAccountRequest struct {
	OrderID    string          `json:"order_id"`
	Amount     string          `json:"amount"`
	Currency   string          `json:"currency"`
	BankCode   string          `json:"bank_code,omitempty"`
	ExpiryHour int32           `json:"expiry_hours"`
	Customer   customerPayload `json:"customer"`
}

type virtualAccountResponse struct {
	Result        string    `json:"result"`
	ResultCode    string    `json:"result_code"`
	Message       string    `json:"message"`
	AccountNumber string    `json:"account_number"`
	BankCode      string    `json:"bank_code"`
	HolderName    string    `json:"holder_name"`
	DueAt         time.Time `json:"due_at"`
}

type cancelRequest struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Reason        string `json:"reason,omitempty"`
}

type cancelResponse struct {
	Result        string    `json:"result"`
	ResultCode    string    `json:"result_code"`
	Message       string    `json:"message"`
	TransactionID string    `json:"transaction_id"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

// Charge implements PaymentGateway.Charge
func (a *GatewayAdapter) Charge(ctx context.Context, req *ports.ChargeRequest) (*ports.ChargeResult, error) {
	apiReq := chargeRequest{
		OrderID:  req.OrderID,
		Amount:   req.Amount.String(),
		Currency: "KRW",
		Customer: customerPayload{
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
			Email: req.Customer.Email,
		},
	}

	var resp chargeResponse
	if err := a.makeRequest(ctx, "/v1/charges", apiReq, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "approved" {
		return nil, a.declined(resp.ResultCode, resp.Message)
	}

	approvedAt := resp.ApprovedAt
	if approvedAt.IsZero() {
		approvedAt = time.Now()
	}

	return &ports.ChargeResult{
		GatewayTxnID: resp.TransactionID,
		Card: models.CardDetail{
			Issuer:       resp.Card.Issuer,
			MaskedNumber: resp.Card.MaskedNumber,
		},
		ApprovedAt: approvedAt,
	}, nil
}

// IssueVirtualAccount implements PaymentGateway.IssueVirtualAccount
func (a *GatewayAdapter) IssueVirtualAccount(ctx context.Context, req *ports.VirtualAccountRequest) (*ports.VirtualAccountResult, error) {
	apiReq := virtualAccountRequest{
		OrderID:    req.OrderID,
		Amount:     req.Amount.String(),
		Currency:   "KRW",
		BankCode:   req.BankCode,
		ExpiryHour: req.DueHours,
		Customer: customerPayload{
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
			Email: req.Customer.Email,
		},
	}

	var resp virtualAccountResponse
	if err := a.makeRequest(ctx, "/v1/virtual-accounts", apiReq, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "issued" {
		return nil, a.declined(resp.ResultCode, resp.Message)
	}

	return &ports.VirtualAccountResult{
		AccountNumber: resp.AccountNumber,
		BankCode:      resp.BankCode,
		HolderName:    resp.HolderName,
		DueAt:         resp.DueAt,
	}, nil
}

// Cancel implements PaymentGateway.Cancel
func (a *GatewayAdapter) Cancel(ctx context.Context, req *ports.CancelRequest) (*ports.CancelResult, error) {
	apiReq := cancelRequest{
		TransactionID: req.GatewayTxnID,
		Amount:        req.Amount.String(),
		Reason:        req.Reason,
	}

	var resp cancelResponse
	if err := a.makeRequest(ctx, "/v1/cancellations", apiReq, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "cancelled" {
		return nil, a.declined(resp.ResultCode, resp.Message)
	}

	cancelledAt := resp.CancelledAt
	if cancelledAt.IsZero() {
		cancelledAt = time.Now()
	}

	return &ports.CancelResult{
		GatewayTxnID: resp.TransactionID,
		CancelledAt:  cancelledAt,
	}, nil
}

// makeRequest makes an HTTP request to the PayGate API with HMAC authentication
func (a *GatewayAdapter) makeRequest(ctx context.Context, endpoint string, request interface{}, response interface{}) error {
	payloadBytes, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	signature := CalculateSignature(a.config.APIKey, endpoint, payloadBytes)

	url := a.baseURL + endpoint
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("PG-Merchant-Id", a.config.MerchantID)
	httpReq.Header.Set("PG-Signature", signature)

	if a.logger != nil {
		a.logger.Info("making request to PayGate",
			ports.String("endpoint", endpoint),
		)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return domain.ErrGatewayTimedOut.WithDetail("endpoint", endpoint)
		}
		return domain.WrapError(domain.ErrorCodeGatewayError, "gateway unreachable", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeGatewayError, "read gateway response", err)
	}

	if httpResp.StatusCode >= 500 {
		return domain.ErrGatewayError.WithDetail("status", httpResp.StatusCode)
	}
	if httpResp.StatusCode >= 400 {
		// Declines come back as 4xx with a result body; fall through to
		// the result check when the body parses, otherwise report as-is
		var declined chargeResponse
		if json.Unmarshal(body, &declined) == nil && declined.ResultCode != "" {
			return a.declined(declined.ResultCode, declined.Message)
		}
		return domain.ErrGatewayError.WithDetail("status", httpResp.StatusCode)
	}

	if err := json.Unmarshal(body, response); err != nil {
		return domain.WrapError(domain.ErrorCodeGatewayError, "unmarshal gateway response", err)
	}

	return nil
}

func (a *GatewayAdapter) declined(code, message string) error {
	err := domain.ErrGatewayDeclined.WithDetail("result_code", code)
	if message != "" {
		err = err.WithDetail("gateway_message", message)
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
