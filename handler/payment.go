package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/mstgnz/payone-bridge/infra/response"
	"github.com/mstgnz/payone-bridge/payone"
)

// GatewayService defines the gateway operations the payment handler needs
type GatewayService interface {
	Preauthorization(ctx context.Context, params payone.Params) (payone.Response, error)
	Authorization(ctx context.Context, params payone.Params) (payone.Response, error)
	Capture(ctx context.Context, params payone.Params) (payone.Response, error)
	Refund(ctx context.Context, params payone.Params) (payone.Response, error)
	TestConnection(ctx context.Context) payone.TestResult
}

// PaymentHandler handles payment operation HTTP requests
type PaymentHandler struct {
	gateway GatewayService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(gateway GatewayService) *PaymentHandler {
	return &PaymentHandler{gateway: gateway}
}

type operationFunc func(ctx context.Context, params payone.Params) (payone.Response, error)

// Preauthorization handles preauthorization requests
func (h *PaymentHandler) Preauthorization(w http.ResponseWriter, r *http.Request) {
	h.handleOperation(w, r, h.gateway.Preauthorization, "Preauthorization processed")
}

// Authorization handles authorization requests
func (h *PaymentHandler) Authorization(w http.ResponseWriter, r *http.Request) {
	h.handleOperation(w, r, h.gateway.Authorization, "Authorization processed")
}

// Capture handles capture requests
func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	h.handleOperation(w, r, h.gateway.Capture, "Capture processed")
}

// Refund handles refund requests
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.handleOperation(w, r, h.gateway.Refund, "Refund processed")
}

// TestConnection runs the connection test and returns its classification.
// The classification itself carries success/failure; the HTTP status is 200
// either way.
func (h *PaymentHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 35*time.Second)
	defer cancel()

	result := h.gateway.TestConnection(ctx)
	response.Success(w, http.StatusOK, "Connection test completed", result)
}

func (h *PaymentHandler) handleOperation(w http.ResponseWriter, r *http.Request, operation operationFunc, message string) {
	ctx, cancel := context.WithTimeout(r.Context(), 35*time.Second)
	defer cancel()

	params, err := decodeParams(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := operation(ctx, params)
	if err != nil {
		status, msg := operationErrorStatus(err)
		response.Error(w, status, msg, err)
		return
	}

	response.Success(w, http.StatusOK, message, resp)
}

// operationErrorStatus maps the gateway error taxonomy to HTTP statuses
func operationErrorStatus(err error) (int, string) {
	var validationErr *payone.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, "Validation error"
	}
	if errors.Is(err, payone.ErrNotConfigured) {
		return http.StatusBadRequest, "PAYONE settings not configured"
	}
	var unreachableErr *payone.UnreachableError
	if errors.As(err, &unreachableErr) {
		return http.StatusBadGateway, "Gateway unreachable"
	}
	return http.StatusInternalServerError, "Operation failed"
}

// decodeParams reads the JSON body into gateway form parameters. JSON
// numbers become plain decimal strings (amounts are minor units, so
// integral values must not pick up a ".0" suffix).
func decodeParams(r *http.Request) (payone.Params, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return payone.Params{}, nil
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}

	params := make(payone.Params, len(body))
	for key, value := range body {
		switch v := value.(type) {
		case string:
			params[key] = v
		case float64:
			if v == math.Trunc(v) {
				params[key] = strconv.FormatInt(int64(v), 10)
			} else {
				params[key] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		case bool:
			params[key] = strconv.FormatBool(v)
		case nil:
			// dropped, matches form-encoding of absent fields
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			params[key] = string(raw)
		}
	}
	return params, nil
}
