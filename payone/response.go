package payone

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Response is a normalized gateway response. Every key is present under both
// its original case and its lower-cased form, so lookups are case-insensitive
// without a second normalization pass by the consumer.
type Response map[string]any

// ParseResponse normalizes a raw gateway body. Bodies starting with "{" are
// parsed as JSON; anything else (including JSON that fails to parse) is
// treated as a form-encoded key=value string.
func ParseResponse(body []byte) Response {
	trimmed := strings.TrimSpace(string(body))

	if strings.HasPrefix(trimmed, "{") {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			resp := make(Response, len(parsed)*2)
			for key, value := range parsed {
				resp[key] = value
				resp[strings.ToLower(key)] = value
			}
			return resp
		}
	}

	values, _ := url.ParseQuery(trimmed)
	resp := make(Response, len(values)*2)
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		resp[key] = vals[0]
		resp[strings.ToLower(key)] = vals[0]
	}
	return resp
}

// Get returns the value for key, matching case-insensitively
func (r Response) Get(key string) (any, bool) {
	if value, ok := r[key]; ok {
		return value, true
	}
	value, ok := r[strings.ToLower(key)]
	return value, ok
}

// String returns the value for key as a string, or "" when absent or not a
// scalar. JSON numbers are rendered without a trailing ".0" when integral.
func (r Response) String(key string) string {
	value, ok := r.Get(key)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Status returns the response status field, in whatever case it arrived
func (r Response) Status() string {
	return r.String("status")
}

// TransactionID extracts the gateway transaction id, trying the field names
// observed across gateway versions in order. Returns "" when none is present.
func (r Response) TransactionID() string {
	for _, key := range []string{"txid", "tx_id", "transactionid", "transaction_id", "id"} {
		if value := r.String(key); value != "" {
			return value
		}
	}
	return ""
}

// errObject returns the nested Error object of a JSON response, if present
func (r Response) errObject() map[string]any {
	value, ok := r.Get("Error")
	if !ok {
		return nil
	}
	obj, _ := value.(map[string]any)
	return obj
}

// nestedErrString reads a string field from the nested Error object
func (r Response) nestedErrString(field string) string {
	obj := r.errObject()
	if obj == nil {
		return ""
	}
	switch v := obj[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// ErrorCode returns the gateway error code from either encoding
func (r Response) ErrorCode() string {
	if code := r.String("errorcode"); code != "" {
		return code
	}
	return r.nestedErrString("ErrorCode")
}

// ErrorMessage returns the gateway error message from either encoding. A
// non-scalar "error" value is rendered as JSON so diagnostics never lose it.
func (r Response) ErrorMessage() string {
	if msg := r.String("errormessage"); msg != "" {
		return msg
	}
	if msg := r.nestedErrString("ErrorMessage"); msg != "" {
		return msg
	}
	if value, ok := r.Get("error"); ok {
		if s, isString := value.(string); isString {
			return s
		}
		if raw, err := json.Marshal(value); err == nil {
			return string(raw)
		}
	}
	return ""
}

// CustomerMessage returns the customer-facing error text from either encoding
func (r Response) CustomerMessage() string {
	if msg := r.String("customermessage"); msg != "" {
		return msg
	}
	if msg := r.String("customerrormessage"); msg != "" {
		return msg
	}
	return r.nestedErrString("CustomerMessage")
}

// Keys returns the response's key set, sorted, for diagnostics
func (r Response) Keys() []string {
	keys := make([]string, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Truncated renders the response as JSON capped at n bytes, for diagnostics
func (r Response) Truncated(n int) string {
	raw, err := json.Marshal(map[string]any(r))
	if err != nil {
		return ""
	}
	if len(raw) > n {
		raw = raw[:n]
	}
	return string(raw)
}
