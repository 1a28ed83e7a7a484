package payone

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mstgnz/payone-bridge/infra/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() config.Settings {
	return config.Settings{
		AID:        "12345",
		PortalID:   "2000001",
		MID:        "67890",
		Key:        "secret-portal-key",
		Mode:       "test",
		APIVersion: "3.10",
	}
}

// newTestClient builds a client against the given gateway URL with seeded
// settings and an in-memory backing store.
func newTestClient(t *testing.T, gatewayURL string, settings config.Settings) (*Client, *TransactionStore) {
	t.Helper()

	store := config.NewMemoryStore()
	settingsStore := config.NewSettingsStore(store)
	require.NoError(t, settingsStore.Save(settings))

	transactionStore := NewTransactionStore(store)
	return &Client{
		settings: settingsStore,
		store:    transactionStore,
		http:     NewHTTPClient(&HTTPClientConfig{BaseURL: gatewayURL}),
	}, transactionStore
}

// gatewayStub records the submitted form and answers with a fixed body
func gatewayStub(t *testing.T, body string, captured *url.Values) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if captured != nil {
			*captured = r.PostForm
		}
		_, _ = w.Write([]byte(body))
	}))
}

func TestBuildRequest(t *testing.T) {
	settings := testSettings()

	params := buildRequest(settings, Params{"request": "authorization", "language": "en"})

	digest := md5.Sum([]byte(settings.Key))
	assert.Equal(t, hex.EncodeToString(digest[:]), params["key"])
	assert.Equal(t, "12345", params["aid"])
	assert.Equal(t, "2000001", params["portalid"])
	assert.Equal(t, "67890", params["mid"])
	assert.Equal(t, "test", params["mode"])
	assert.Equal(t, "UTF-8", params["encoding"])

	// Caller values win over defaults
	assert.Equal(t, "en", params["language"])
	// Placeholder customer defaults fill the gaps
	assert.Equal(t, "Herr", params["salutation"])
	assert.Equal(t, "127.0.0.1", params["ip"])
}

func TestBuildRequestDefaultsMode(t *testing.T) {
	settings := testSettings()
	settings.Mode = ""

	params := buildRequest(settings, Params{})
	assert.Equal(t, "test", params["mode"])
}

func TestPreauthorizationDefaults(t *testing.T) {
	var form url.Values
	server := gatewayStub(t, "Status=APPROVED&TxId=111222333", &form)
	defer server.Close()

	client, store := newTestClient(t, server.URL, testSettings())

	resp, err := client.Preauthorization(context.Background(), Params{})
	require.NoError(t, err)

	assert.Equal(t, "APPROVED", resp.Status())
	assert.Equal(t, "111222333", resp.TransactionID())

	assert.Equal(t, "preauthorization", form.Get("request"))
	assert.Equal(t, "cc", form.Get("clearingtype"))
	assert.Equal(t, "1000", form.Get("amount"))
	assert.Equal(t, "EUR", form.Get("currency"))
	assert.Equal(t, "4111111111111111", form.Get("cardpan"))
	assert.Equal(t, "2512", form.Get("cardexpiredate"))
	assert.Equal(t, "123", form.Get("cardcvc2"))
	assert.True(t, strings.HasPrefix(form.Get("reference"), "PREAUTH-"))

	// The exchange is recorded
	history, err := store.Query(HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "preauthorization", history[0].RequestType)
	assert.Equal(t, "111222333", history[0].TxID)
	assert.Equal(t, "APPROVED", history[0].Status)
}

func TestPreauthorizationCallerOverrides(t *testing.T) {
	var form url.Values
	server := gatewayStub(t, "Status=APPROVED&TxId=1", &form)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, testSettings())

	_, err := client.Preauthorization(context.Background(), Params{
		"amount":    "2500",
		"reference": "ORDER-42",
		"cardpan":   "5500000000000004",
	})
	require.NoError(t, err)

	assert.Equal(t, "2500", form.Get("amount"))
	assert.Equal(t, "ORDER-42", form.Get("reference"))
	assert.Equal(t, "5500000000000004", form.Get("cardpan"))
}

func TestAuthorizationPassThrough(t *testing.T) {
	var form url.Values
	server := gatewayStub(t, "Status=APPROVED&TxId=2", &form)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, testSettings())

	_, err := client.Authorization(context.Background(), Params{
		"amount":    "999",
		"reference": "ORDER-7",
	})
	require.NoError(t, err)

	assert.Equal(t, "authorization", form.Get("request"))
	assert.Equal(t, "999", form.Get("amount"))
	// No card defaults on the pass-through operation
	assert.Empty(t, form.Get("cardpan"))
}

func TestCaptureStripsReference(t *testing.T) {
	var form url.Values
	server := gatewayStub(t, "Status=APPROVED&TxId=3", &form)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, testSettings())

	_, err := client.Capture(context.Background(), Params{
		"txid":      "111222333",
		"reference": "ORDER-42",
	})
	require.NoError(t, err)

	assert.Equal(t, "capture", form.Get("request"))
	assert.Equal(t, "111222333", form.Get("txid"))
	assert.False(t, form.Has("reference"))
	assert.Equal(t, "1000", form.Get("amount"))
}

func TestRefundDefaults(t *testing.T) {
	var form url.Values
	server := gatewayStub(t, "Status=APPROVED&TxId=4", &form)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, testSettings())

	_, err := client.Refund(context.Background(), Params{
		"txid":   "111222333",
		"amount": "-1000",
	})
	require.NoError(t, err)

	assert.Equal(t, "refund", form.Get("request"))
	// The amount sign is passed through untouched
	assert.Equal(t, "-1000", form.Get("amount"))
	assert.True(t, strings.HasPrefix(form.Get("reference"), "REFUND-"))
}

func TestCaptureRequiresTxID(t *testing.T) {
	client, _ := newTestClient(t, "http://gateway.invalid", testSettings())

	_, err := client.Capture(context.Background(), Params{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "txid", validationErr.Field)
	assert.Equal(t, "Transaction ID is required for capture", validationErr.Message)
}

func TestRefundRequiresTxID(t *testing.T) {
	client, _ := newTestClient(t, "http://gateway.invalid", testSettings())

	_, err := client.Refund(context.Background(), Params{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Transaction ID is required for refund", validationErr.Message)
}

func TestOperationsRequireConfiguredSettings(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, config.DefaultSettings())

	_, err := client.Preauthorization(context.Background(), Params{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.Authorization(context.Background(), Params{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	// Configuration is checked before any network traffic
	assert.Zero(t, calls)
}

func TestGatewayUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client, store := newTestClient(t, server.URL, testSettings())

	_, err := client.Authorization(context.Background(), Params{"amount": "100"})

	var unreachableErr *UnreachableError
	require.ErrorAs(t, err, &unreachableErr)
	assert.NotNil(t, errors.Unwrap(unreachableErr))

	// Nothing recorded when no response exists
	history, err := store.Query(HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGatewayNon2xxIsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, testSettings())

	_, err := client.Authorization(context.Background(), Params{})

	var unreachableErr *UnreachableError
	require.ErrorAs(t, err, &unreachableErr)
}

func TestGatewayErrorResponseIsNotAGoError(t *testing.T) {
	server := gatewayStub(t, "Status=ERROR&ErrorCode=33&ErrorMessage=Expiry+date+invalid", nil)
	defer server.Close()

	client, store := newTestClient(t, server.URL, testSettings())

	resp, err := client.Authorization(context.Background(), Params{"reference": "ORDER-9"})
	require.NoError(t, err)

	assert.Equal(t, "ERROR", resp.Status())
	assert.Equal(t, "33", resp.ErrorCode())

	// Failed exchanges are recorded too
	history, err := store.Query(HistoryFilter{Status: "ERROR"})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "33", history[0].ErrorCode)
	assert.Equal(t, "Expiry date invalid", history[0].ErrorMessage)
}
