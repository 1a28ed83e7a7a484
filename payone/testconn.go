package payone

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mstgnz/payone-bridge/infra/config"
	"github.com/mstgnz/payone-bridge/infra/logger"
)

// TestReason classifies a connection test's outcome
type TestReason string

const (
	ReasonNotConfigured      TestReason = "not_configured"
	ReasonAuthFailed         TestReason = "auth_failed"
	ReasonCredentialsValid   TestReason = "credentials_valid"
	ReasonGatewayRejected    TestReason = "gateway_rejected"
	ReasonGatewayUnreachable TestReason = "gateway_unreachable"
	ReasonUnexpectedResponse TestReason = "unexpected_response"
)

// TestResult is the classified outcome of a connection test
type TestResult struct {
	Success   bool           `json:"success"`
	Reason    TestReason     `json:"reason"`
	Message   string         `json:"message"`
	ErrorCode string         `json:"errorcode,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Error codes the gateway uses for authentication failures, plus the
// common unauthorized-style codes.
var authFailureCodes = map[string]bool{
	"2006": true,
	"920":  true,
	"921":  true,
	"922":  true,
	"401":  true,
	"403":  true,
}

// Message fragments that indicate invalid credentials regardless of code
var authFailurePhrases = []string{
	"key incorrect",
	"invalid key",
	"portal key",
	"unauthorized",
	"not authorized",
	"unknown aid",
	"unknown account",
	"unknown portal",
	"unknown merchant",
	"invalid aid",
	"invalid mid",
	"invalid portalid",
}

// duplicateReferenceCode is returned when a reference was already used. The
// test always submits a freshly generated unique reference, so hitting this
// code is only possible after authentication succeeded.
const duplicateReferenceCode = "911"

// TestConnection submits a dummy authorization with a fresh unique reference
// and classifies the outcome. It reuses the regular submission path but
// writes no transaction record; failures come back as a classified result,
// never as an error.
func (c *Client) TestConnection(ctx context.Context) TestResult {
	settings, err := c.settings.Load()
	if err != nil {
		return TestResult{
			Success: false,
			Reason:  ReasonUnexpectedResponse,
			Message: fmt.Sprintf("Failed to read settings: %v", err),
		}
	}

	if !settings.Configured() {
		return TestResult{
			Success: false,
			Reason:  ReasonNotConfigured,
			Message: "PAYONE settings not configured. Please fill in all required fields.",
		}
	}

	requestParams := buildRequest(settings, testParams())

	response, err := c.submit(ctx, requestParams)
	if err != nil {
		logger.Warn("Connection test transport failure", logger.LogContext{
			Fields: map[string]any{"error": err.Error()},
		})
		return TestResult{
			Success: false,
			Reason:  ReasonGatewayUnreachable,
			Message: fmt.Sprintf("Connection error: %v", err),
		}
	}

	result := classifyTestResponse(response, settings)
	logger.Info("Connection test classified", logger.LogContext{
		Fields: map[string]any{
			"reason":    result.Reason,
			"errorcode": result.ErrorCode,
		},
	})
	return result
}

// testParams builds the dummy authorization submitted by the connection
// test: smallest test amount, unique reference per call, documented test
// card and placeholder customer.
func testParams() Params {
	return Params{
		"request":             requestAuthorization,
		"amount":              "100",
		"currency":            defaultCurrency,
		"reference":           fmt.Sprintf("TEST-%d", time.Now().UnixMilli()),
		"clearingtype":        "cc",
		"cardtype":            "V",
		"cardpan":             testCardPan,
		"cardexpiredate":      testCardExpireDate,
		"cardcvc2":            testCardCVC,
		"firstname":           "Test",
		"lastname":            "User",
		"street":              "Test Street 1",
		"zip":                 "12345",
		"city":                "Test City",
		"country":             "DE",
		"email":               "test@example.com",
		"salutation":          "Herr",
		"gender":              "m",
		"telephonenumber":     "01752345678",
		"ip":                  "127.0.0.1",
		"customer_is_present": "yes",
		"language":            "de",
	}
}

// classifyTestResponse applies the outcome decision table. Ordering is
// significant: the authentication heuristics run before the
// duplicate-reference rule so a colliding code is never misread as success.
func classifyTestResponse(response Response, settings config.Settings) TestResult {
	status := response.Status()
	errorCode := response.ErrorCode()
	errorMessage := response.ErrorMessage()
	customerMessage := response.CustomerMessage()

	credentialDetails := map[string]any{
		"mode":     settings.Mode,
		"aid":      settings.AID,
		"portalid": settings.PortalID,
		"mid":      settings.MID,
	}

	if strings.EqualFold(status, "ERROR") {
		if authFailureCodes[errorCode] {
			msg := customerMessage
			if msg == "" {
				msg = errorMessage
			}
			if msg == "" {
				msg = "Invalid credentials"
			}
			return TestResult{
				Success:   false,
				Reason:    ReasonAuthFailed,
				Message:   fmt.Sprintf("Authentication failed: %s", msg),
				ErrorCode: errorCode,
			}
		}

		lowerMessage := strings.ToLower(errorMessage)
		for _, phrase := range authFailurePhrases {
			if strings.Contains(lowerMessage, phrase) {
				code := errorCode
				if code == "" {
					code = "AUTH"
				}
				return TestResult{
					Success:   false,
					Reason:    ReasonAuthFailed,
					Message:   fmt.Sprintf("Authentication failed: %s", errorMessage),
					ErrorCode: code,
				}
			}
		}

		if errorCode == duplicateReferenceCode {
			return TestResult{
				Success: true,
				Reason:  ReasonCredentialsValid,
				Message: "Connection successful! Your PAYONE credentials are valid.",
				Details: credentialDetails,
			}
		}

		msg := customerMessage
		if msg == "" {
			msg = errorMessage
		}
		if msg == "" {
			msg = "Unknown error"
		}
		return TestResult{
			Success:   false,
			Reason:    ReasonGatewayRejected,
			Message:   fmt.Sprintf("Connection failed: %s", msg),
			ErrorCode: errorCode,
			Details: map[string]any{
				"status":      status,
				"errorCode":   errorCode,
				"rawResponse": response.Truncated(200),
			},
		}
	}

	// APPROVED should not happen for a dummy authorization, but if it does
	// the connection is working.
	if strings.EqualFold(status, "APPROVED") {
		return TestResult{
			Success: true,
			Reason:  ReasonCredentialsValid,
			Message: "Connection successful! Your PAYONE credentials are valid.",
			Details: credentialDetails,
		}
	}

	return TestResult{
		Success: false,
		Reason:  ReasonUnexpectedResponse,
		Message: "Unexpected response format from PAYONE API",
		Details: map[string]any{
			"status":      status,
			"keys":        response.Keys(),
			"rawResponse": response.Truncated(200),
		},
	}
}
