package payone

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mstgnz/payone-bridge/infra/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore errors on every access, to exercise the swallow-on-failure
// logging contract.
type failingStore struct{}

func (failingStore) Get(key string) ([]byte, error) { return nil, errors.New("store down") }
func (failingStore) Set(key string, value []byte) error { return errors.New("store down") }

func TestLogAndQueryNewestFirst(t *testing.T) {
	store := NewTransactionStore(config.NewMemoryStore())

	store.Log(LogEntry{
		RequestType: "preauthorization",
		Reference:   "ORDER-1",
		RawResponse: ParseResponse([]byte("Status=APPROVED&TxId=100")),
	})
	store.Log(LogEntry{
		RequestType: "capture",
		RawResponse: ParseResponse([]byte("Status=APPROVED&TxId=100")),
	})

	history, err := store.Query(HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "capture", history[0].RequestType)
	assert.Equal(t, "preauthorization", history[1].RequestType)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestRecordNormalization(t *testing.T) {
	store := NewTransactionStore(config.NewMemoryStore())

	store.Log(LogEntry{
		RequestType: "authorization",
		Reference:   "ORDER-2",
		Amount:      "2500",
		RawResponse: ParseResponse([]byte("Status=ERROR&ErrorCode=33&ErrorMessage=Expiry+date+invalid&customermessage=Karte+abgelehnt")),
	})

	history, err := store.Query(HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)

	record := history[0]
	assert.Equal(t, int64(2500), record.Amount)
	assert.Equal(t, "EUR", record.Currency)
	assert.Equal(t, "ERROR", record.Status)
	assert.Equal(t, "33", record.ErrorCode)
	assert.Equal(t, "Expiry date invalid", record.ErrorMessage)
	assert.Equal(t, "Karte abgelehnt", record.CustomerMessage)
}

func TestRecordStatusDefaultsToUnknown(t *testing.T) {
	store := NewTransactionStore(config.NewMemoryStore())

	store.Log(LogEntry{
		RequestType: "authorization",
		TxID:        "555",
		RawResponse: ParseResponse([]byte("foo=bar")),
	})

	history, err := store.Query(HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "unknown", history[0].Status)
	// TxID falls back to the request parameter when the response has none
	assert.Equal(t, "555", history[0].TxID)
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	backing := config.NewMemoryStore()

	// Seed a full history, oldest last
	seeded := make([]TransactionRecord, historyLimit)
	for i := range seeded {
		seeded[i] = TransactionRecord{
			ID:          fmt.Sprintf("seed-%d", i),
			RequestType: "authorization",
			Timestamp:   time.Now().UTC(),
		}
	}
	raw, err := json.Marshal(seeded)
	require.NoError(t, err)
	require.NoError(t, backing.Set(HistoryKey, raw))

	store := NewTransactionStore(backing)
	store.Log(LogEntry{
		RequestType: "capture",
		RawResponse: ParseResponse([]byte("Status=APPROVED&TxId=1")),
	})

	history, err := store.Query(HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, historyLimit)

	assert.Equal(t, "capture", history[0].RequestType)
	// The oldest seeded record fell off the end
	assert.Equal(t, fmt.Sprintf("seed-%d", historyLimit-2), history[historyLimit-1].ID)
}

func TestQueryFilters(t *testing.T) {
	store := NewTransactionStore(config.NewMemoryStore())

	store.Log(LogEntry{
		RequestType: "preauthorization",
		Reference:   "ORDER-A",
		RawResponse: ParseResponse([]byte("Status=APPROVED&TxId=100")),
	})
	store.Log(LogEntry{
		RequestType: "capture",
		Reference:   "ORDER-A",
		RawResponse: ParseResponse([]byte("Status=ERROR&ErrorCode=33&TxId=100")),
	})
	store.Log(LogEntry{
		RequestType: "preauthorization",
		Reference:   "ORDER-B",
		RawResponse: ParseResponse([]byte("Status=APPROVED&TxId=200")),
	})

	tests := []struct {
		name   string
		filter HistoryFilter
		want   int
	}{
		{name: "no filter", filter: HistoryFilter{}, want: 3},
		{name: "by status", filter: HistoryFilter{Status: "APPROVED"}, want: 2},
		{name: "by request type", filter: HistoryFilter{RequestType: "capture"}, want: 1},
		{name: "by txid", filter: HistoryFilter{TxID: "100"}, want: 2},
		{name: "by reference", filter: HistoryFilter{Reference: "ORDER-B"}, want: 1},
		{name: "conjunction", filter: HistoryFilter{Status: "APPROVED", TxID: "100"}, want: 1},
		{name: "no match", filter: HistoryFilter{Status: "APPROVED", RequestType: "capture"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, err := store.Query(tt.filter)
			require.NoError(t, err)
			assert.Len(t, matched, tt.want)
		})
	}
}

func TestQueryDateRange(t *testing.T) {
	store := NewTransactionStore(config.NewMemoryStore())
	store.Log(LogEntry{
		RequestType: "authorization",
		RawResponse: ParseResponse([]byte("Status=APPROVED&TxId=1")),
	})

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	matched, err := store.Query(HistoryFilter{DateFrom: &past, DateTo: &future})
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	matched, err = store.Query(HistoryFilter{DateFrom: &future})
	require.NoError(t, err)
	assert.Empty(t, matched)

	matched, err = store.Query(HistoryFilter{DateTo: &past})
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestLogSwallowsStoreFailure(t *testing.T) {
	store := NewTransactionStore(failingStore{})

	assert.NotPanics(t, func() {
		store.Log(LogEntry{
			RequestType: "authorization",
			RawResponse: ParseResponse([]byte("Status=APPROVED")),
		})
	})

	_, err := store.Query(HistoryFilter{})
	assert.Error(t, err)
}
