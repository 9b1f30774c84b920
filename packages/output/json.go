package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/history"
)

// JSONResponse represents response details
type JSONResponse struct {
	Method     string              `json:"method"`
	URL        string              `json:"url"`
	StatusCode int                 `json:"statusCode"`
	Status     string              `json:"status"`
	Family     string              `json:"family"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       string              `json:"body,omitempty"`
	Duration   float64             `json:"duration"`
	Extracts   []JSONExtract       `json:"extracts,omitempty"`
	Schema     *JSONSchemaResult   `json:"schema,omitempty"`
}

// JSONSchemaResult represents a schema validation outcome
type JSONSchemaResult struct {
	Path       string   `json:"path"`
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// JSONExtract represents a path query result
type JSONExtract struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Value string `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// JSONHistoryEntry represents a recorded request
type JSONHistoryEntry struct {
	ID         int64   `json:"id"`
	ExecutedAt string  `json:"executedAt"`
	Method     string  `json:"method"`
	URL        string  `json:"url"`
	StatusCode int     `json:"statusCode,omitempty"`
	Family     string  `json:"family"`
	Duration   float64 `json:"duration"`
	Error      string  `json:"error,omitempty"`
}

// JSONFormatter writes one JSON document per call
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) encode(v any) {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(f.writer, `{"error": %q}`+"\n", err.Error())
	}
}

func (f *JSONFormatter) FormatResult(result *Result) {
	out := JSONResponse{
		Method:     result.Method,
		URL:        result.URL,
		StatusCode: result.Code,
		Status:     result.Status,
		Family:     result.Family.String(),
		Headers:    result.Header,
		Body:       string(result.Body),
		Duration:   float64(result.Duration) / float64(time.Millisecond),
	}
	for _, e := range result.Extracts {
		out.Extracts = append(out.Extracts, JSONExtract(e))
	}
	if result.Schema != "" {
		out.Schema = &JSONSchemaResult{
			Path:       result.Schema,
			Valid:      len(result.SchemaViolations) == 0,
			Violations: result.SchemaViolations,
		}
	}
	f.encode(out)
}

func (f *JSONFormatter) FormatError(err error) {
	f.encode(map[string]string{"error": err.Error()})
}

func (f *JSONFormatter) FormatHistory(entries []history.Entry) {
	out := make([]JSONHistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, JSONHistoryEntry{
			ID:         e.ID,
			ExecutedAt: e.ExecutedAt.UTC().Format(time.RFC3339),
			Method:     e.Method,
			URL:        e.URL,
			StatusCode: e.Status,
			Family:     e.Family.String(),
			Duration:   float64(e.Duration) / float64(time.Millisecond),
			Error:      e.Error,
		})
	}
	f.encode(out)
}
