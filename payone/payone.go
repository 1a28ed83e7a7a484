package payone

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/mstgnz/payone-bridge/infra/config"
	"github.com/mstgnz/payone-bridge/infra/logger"
)

const (
	defaultTimeout = 30 * time.Second

	requestPreauthorization = "preauthorization"
	requestAuthorization    = "authorization"
	requestCapture          = "capture"
	requestRefund           = "refund"

	// Defaults filled in when the caller omits fields. Amounts are minor
	// units, the card is PAYONE's documented test card.
	defaultAmount      = "1000" // 10.00 EUR in cents
	defaultCurrency    = "EUR"
	testCardPan        = "4111111111111111"
	testCardExpireDate = "2512"
	testCardCVC        = "123"
)

// Params is one operation's caller-supplied parameter set, keyed by the
// gateway's field names.
type Params map[string]string

// Client builds authenticated gateway requests, submits them over the
// form-encoded channel, and normalizes the response. Settings are read fresh
// from the store on every call.
type Client struct {
	settings *config.SettingsStore
	store    *TransactionStore
	http     *HTTPClient
}

// NewClient creates a gateway client on top of the given settings and
// transaction stores.
func NewClient(settings *config.SettingsStore, store *TransactionStore) *Client {
	return &Client{
		settings: settings,
		store:    store,
		http: NewHTTPClient(&HTTPClientConfig{
			BaseURL: config.GetAppConfig().GatewayURL,
			Timeout: defaultTimeout,
		}),
	}
}

// buildRequest merges the authenticated base parameters with the caller's
// params (caller wins) and fills the operation-agnostic defaults. The key
// field is the MD5 hex digest of the portal key; the gateway's legacy
// protocol requires exactly this digest, it is not a hashing choice.
func buildRequest(settings config.Settings, params Params) map[string]string {
	mode := settings.Mode
	if mode == "" {
		mode = "test"
	}

	requestParams := map[string]string{
		"aid":      settings.AID,
		"mid":      settings.MID,
		"portalid": settings.PortalID,
		"mode":     mode,
		"encoding": "UTF-8",
	}
	for key, value := range params {
		requestParams[key] = value
	}

	digest := md5.Sum([]byte(settings.Key))
	requestParams["key"] = hex.EncodeToString(digest[:])

	fillDefault(requestParams, "salutation", "Herr")
	fillDefault(requestParams, "gender", "m")
	fillDefault(requestParams, "telephonenumber", "01752345678")
	fillDefault(requestParams, "ip", "127.0.0.1")
	fillDefault(requestParams, "language", "de")
	fillDefault(requestParams, "customer_is_present", "yes")

	return requestParams
}

func fillDefault(params map[string]string, key, value string) {
	if params[key] == "" {
		params[key] = value
	}
}

// maskedParams returns a copy safe for log output
func maskedParams(params map[string]string) map[string]string {
	masked := make(map[string]string, len(params))
	for key, value := range params {
		masked[key] = value
	}
	if masked["key"] != "" {
		masked["key"] = config.MaskedKey
	}
	return masked
}

// submit serializes the request as form data, POSTs it to the gateway and
// parses the body. Transport failures and non-2xx statuses are wrapped in
// UnreachableError; nothing is logged here.
func (c *Client) submit(ctx context.Context, requestParams map[string]string) (Response, error) {
	resp, err := c.http.SendForm(ctx, requestParams)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}
	return ParseResponse(resp.Body), nil
}

// send runs one full operation: fresh settings read, request build, submit,
// transaction log, normalized response back to the caller. Gateway-level
// errors come back inside the Response, not as a Go error.
func (c *Client) send(ctx context.Context, params Params) (Response, error) {
	settings, err := c.settings.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.Configured() {
		return nil, ErrNotConfigured
	}

	requestParams := buildRequest(settings, params)
	logger.Debug("Submitting gateway request", logger.LogContext{
		RequestType: params["request"],
		Fields:      map[string]any{"params": maskedParams(requestParams)},
	})

	response, err := c.submit(ctx, requestParams)
	if err != nil {
		return nil, err
	}

	c.store.Log(LogEntry{
		RequestType: params["request"],
		Reference:   params["reference"],
		Amount:      params["amount"],
		Currency:    params["currency"],
		TxID:        params["txid"],
		RawRequest:  requestParams,
		RawResponse: response,
	})

	return response, nil
}

// Preauthorization reserves an amount on the customer's card. Missing
// customer, card and amount fields are filled with documented test defaults
// so the operation is usable from the admin screen without a storefront.
func (c *Client) Preauthorization(ctx context.Context, params Params) (Response, error) {
	merged := Params{
		"request":      requestPreauthorization,
		"clearingtype": "cc", // Credit card
	}
	for key, value := range params {
		merged[key] = value
	}

	fillDefault(merged, "amount", defaultAmount)
	fillDefault(merged, "currency", defaultCurrency)
	fillDefault(merged, "reference", fmt.Sprintf("PREAUTH-%d", time.Now().UnixMilli()))
	fillDefault(merged, "firstname", "Test")
	fillDefault(merged, "lastname", "User")
	fillDefault(merged, "street", "Test Street 1")
	fillDefault(merged, "zip", "12345")
	fillDefault(merged, "city", "Test City")
	fillDefault(merged, "country", "DE")
	fillDefault(merged, "email", "test@example.com")
	fillDefault(merged, "cardpan", testCardPan)
	fillDefault(merged, "cardexpiredate", testCardExpireDate)
	fillDefault(merged, "cardcvc2", testCardCVC)

	return c.send(ctx, merged)
}

// Authorization is a thin pass-through: the caller must supply a complete
// parameter set or the gateway will reject it.
func (c *Client) Authorization(ctx context.Context, params Params) (Response, error) {
	merged := Params{"request": requestAuthorization}
	for key, value := range params {
		merged[key] = value
	}
	return c.send(ctx, merged)
}

// Capture draws a previously preauthorized amount. The gateway's capture
// operation does not accept a reference field, so any caller-supplied
// reference is stripped before submission.
func (c *Client) Capture(ctx context.Context, params Params) (Response, error) {
	if params["txid"] == "" {
		return nil, &ValidationError{Field: "txid", Message: "Transaction ID is required for capture"}
	}

	merged := Params{"request": requestCapture}
	for key, value := range params {
		merged[key] = value
	}
	fillDefault(merged, "amount", defaultAmount)
	fillDefault(merged, "currency", defaultCurrency)
	delete(merged, "reference")

	return c.send(ctx, merged)
}

// Refund returns a captured amount. The amount sign is passed through as
// received; negation is the caller's responsibility.
func (c *Client) Refund(ctx context.Context, params Params) (Response, error) {
	if params["txid"] == "" {
		return nil, &ValidationError{Field: "txid", Message: "Transaction ID is required for refund"}
	}

	merged := Params{"request": requestRefund}
	for key, value := range params {
		merged[key] = value
	}
	fillDefault(merged, "amount", defaultAmount)
	fillDefault(merged, "currency", defaultCurrency)
	fillDefault(merged, "reference", fmt.Sprintf("REFUND-%d", time.Now().UnixMilli()))

	return c.send(ctx, merged)
}
