package handler

import (
	"net/http"
	"time"

	"github.com/mstgnz/payone-bridge/infra/response"
	"github.com/mstgnz/payone-bridge/payone"
)

// HistoryHandler handles transaction history HTTP requests
type HistoryHandler struct {
	store *payone.TransactionStore
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(store *payone.TransactionStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// GetTransactionHistory returns the transaction history, newest first,
// narrowed by the optional query filters. Unrecognized query parameters are
// ignored.
func (h *HistoryHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := payone.HistoryFilter{
		Status:      query.Get("status"),
		RequestType: query.Get("request_type"),
		TxID:        query.Get("txid"),
		Reference:   query.Get("reference"),
	}

	if from := query.Get("date_from"); from != "" {
		parsed, err := parseFilterDate(from)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid date_from", err)
			return
		}
		filter.DateFrom = &parsed
	}

	if to := query.Get("date_to"); to != "" {
		parsed, err := parseFilterDate(to)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid date_to", err)
			return
		}
		filter.DateTo = &parsed
	}

	history, err := h.store.Query(filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to load transaction history", err)
		return
	}

	response.Success(w, http.StatusOK, "Transaction history retrieved", history)
}

// parseFilterDate accepts a calendar date or a full RFC 3339 timestamp
func parseFilterDate(value string) (time.Time, error) {
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}
