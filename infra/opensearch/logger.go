package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// SystemLogDocument is the diagnostic log entry shipped to OpenSearch.
type SystemLogDocument struct {
	Timestamp   time.Time      `json:"timestamp"`
	Level       string         `json:"level"`
	Message     string         `json:"message"`
	Component   string         `json:"component,omitempty"`
	Function    string         `json:"function,omitempty"`
	RequestType string         `json:"request_type,omitempty"`
	Error       string         `json:"error,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	Service     string         `json:"service"`
	Environment string         `json:"environment,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// IndexSystemLog writes a diagnostic log document to the system log index
func (l *Logger) IndexSystemLog(ctx context.Context, doc SystemLogDocument) error {
	if !l.client.IsEnabled() {
		return nil // Logging disabled
	}

	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now().UTC()
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: SystemLogIndex,
		Body:  bytes.NewReader(docJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}
