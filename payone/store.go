package payone

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/payone-bridge/infra/config"
	"github.com/mstgnz/payone-bridge/infra/logger"
)

const (
	// HistoryKey is the key the transaction history is persisted under.
	HistoryKey = "transactionHistory"

	// historyLimit caps the stored history; the oldest entries beyond it
	// are dropped.
	historyLimit = 1000
)

// TransactionRecord is one completed gateway exchange. Records are created
// once and never mutated; eviction by the history cap is the only removal.
type TransactionRecord struct {
	ID              string            `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	TxID            string            `json:"txid,omitempty"`
	Reference       string            `json:"reference,omitempty"`
	RequestType     string            `json:"request_type"`
	Amount          int64             `json:"amount,omitempty"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	ErrorCode       string            `json:"error_code,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	CustomerMessage string            `json:"customer_message,omitempty"`
	RawRequest      map[string]string `json:"raw_request,omitempty"`
	RawResponse     Response          `json:"raw_response,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// LogEntry carries the fields of one completed exchange into the store. The
// transaction id, status and error fields are extracted from RawResponse.
type LogEntry struct {
	RequestType string
	Reference   string
	Amount      string
	Currency    string
	TxID        string
	RawRequest  map[string]string
	RawResponse Response
}

// HistoryFilter narrows a history query. All fields are optional and
// combined with AND semantics.
type HistoryFilter struct {
	Status      string
	RequestType string
	TxID        string
	Reference   string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// TransactionStore owns the capped, newest-first history of gateway
// interactions, persisted in the backing key-value store.
type TransactionStore struct {
	store config.Store
	mu    sync.Mutex
}

// NewTransactionStore creates a transaction store on top of the given
// backing store.
func NewTransactionStore(store config.Store) *TransactionStore {
	return &TransactionStore{store: store}
}

// Log appends a record for one completed exchange. It never fails the
// caller's operation: persistence errors are reported through the diagnostic
// log only.
func (s *TransactionStore) Log(entry LogEntry) {
	if err := s.append(entry); err != nil {
		logger.Warn("Failed to log transaction", logger.LogContext{
			RequestType: entry.RequestType,
			Fields: map[string]any{
				"reference": entry.Reference,
				"error":     err.Error(),
			},
		})
	}
}

func (s *TransactionStore) append(entry LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load()
	if err != nil {
		return err
	}

	record := newRecord(entry)
	history = append([]TransactionRecord{record}, history...)
	if len(history) > historyLimit {
		history = history[:historyLimit]
	}

	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.store.Set(HistoryKey, raw); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// newRecord extracts the normalized transaction fields from the entry
func newRecord(entry LogEntry) TransactionRecord {
	now := time.Now().UTC()

	txid := entry.RawResponse.TransactionID()
	if txid == "" {
		txid = entry.TxID
	}

	status := entry.RawResponse.Status()
	if status == "" {
		status = "unknown"
	}

	currency := entry.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	var amount int64
	if entry.Amount != "" {
		amount, _ = strconv.ParseInt(entry.Amount, 10, 64)
	}

	return TransactionRecord{
		// Timestamp plus a uuid suffix keeps ids unique when two calls
		// complete in the same millisecond.
		ID:              fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Timestamp:       now,
		TxID:            txid,
		Reference:       entry.Reference,
		RequestType:     entry.RequestType,
		Amount:          amount,
		Currency:        currency,
		Status:          status,
		ErrorCode:       entry.RawResponse.ErrorCode(),
		ErrorMessage:    entry.RawResponse.ErrorMessage(),
		CustomerMessage: entry.RawResponse.CustomerMessage(),
		RawRequest:      entry.RawRequest,
		RawResponse:     entry.RawResponse,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// load reads the stored history; an absent key is an empty history
func (s *TransactionStore) load() ([]TransactionRecord, error) {
	raw, err := s.store.Get(HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var history []TransactionRecord
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return history, nil
}

// Query returns the records matching the filter, newest first. The history
// is stored newest-first, so no sort happens at read time; each call
// re-reads the backing store.
func (s *TransactionStore) Query(filter HistoryFilter) ([]TransactionRecord, error) {
	s.mu.Lock()
	history, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	matched := make([]TransactionRecord, 0, len(history))
	for _, record := range history {
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if filter.RequestType != "" && record.RequestType != filter.RequestType {
			continue
		}
		if filter.TxID != "" && record.TxID != filter.TxID {
			continue
		}
		if filter.Reference != "" && record.Reference != filter.Reference {
			continue
		}
		if filter.DateFrom != nil && record.Timestamp.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && record.Timestamp.After(*filter.DateTo) {
			continue
		}
		matched = append(matched, record)
	}
	return matched, nil
}
