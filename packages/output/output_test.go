package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	easyhttp "github.com/abdul-hamid-achik/easyhttp/packages/http"
	"github.com/abdul-hamid-achik/easyhttp/packages/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &Result{
		Method:   "GET",
		URL:      "http://api.test/items/42",
		Status:   "200 OK",
		Code:     200,
		Family:   easyhttp.FamilySuccess,
		Header:   header,
		Body:     []byte(`{"id":42}`),
		Duration: 12 * time.Millisecond,
	}
}

func TestConsoleFormatter_FormatResult(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "GET http://api.test/items/42")
	assert.Contains(t, out, "200 OK [SUCCESS] (12ms)")
	assert.Contains(t, out, "Content-Type: application/json")
	assert.Contains(t, out, `{"id":42}`)
}

func TestConsoleFormatter_Extracts(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	result := sampleResult()
	result.Extracts = []Extract{
		{Kind: "json", Path: "id", Value: "42", Found: true},
		{Kind: "json", Path: "name", Found: false},
	}
	f.FormatResult(result)

	out := buf.String()
	assert.Contains(t, out, "id = 42")
	assert.Contains(t, out, "name (not found)")
	assert.NotContains(t, out, `{"id":42}`)
	assert.NotContains(t, out, "Content-Type")
}

func TestConsoleFormatter_History(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatHistory(nil)
	assert.Contains(t, buf.String(), "No requests recorded")

	buf.Reset()
	f.FormatHistory([]history.Entry{
		{ID: 2, ExecutedAt: time.Now(), Method: "POST", URL: "http://api.test", Status: 404, Family: easyhttp.FamilyClientError, Duration: 5 * time.Millisecond},
		{ID: 1, ExecutedAt: time.Now(), Method: "GET", URL: "http://down.test", Error: "connection refused"},
	})
	out := buf.String()
	assert.Contains(t, out, "POST   http://api.test 404 (5ms)")
	assert.Contains(t, out, "connection refused")
}

func TestConsoleFormatter_FormatError(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleFormatter(WithWriter(&buf), WithNoColor(true)).FormatError(errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(WithJSONWriter(&buf))

	result := sampleResult()
	result.Extracts = []Extract{{Kind: "json", Path: "id", Value: "42", Found: true}}
	f.FormatResult(result)

	var out JSONResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 200, out.StatusCode)
	assert.Equal(t, "SUCCESS", out.Family)
	assert.Equal(t, float64(12), out.Duration)
	require.Len(t, out.Extracts, 1)
	assert.Equal(t, "42", out.Extracts[0].Value)

	buf.Reset()
	f.FormatHistory([]history.Entry{{ID: 1, Method: "GET", URL: "http://api.test", Status: 500, Family: easyhttp.FamilyServerError}})
	var entries []JSONHistoryEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "SERVER_ERROR", entries[0].Family)
}

func TestFormatters_SchemaViolations(t *testing.T) {
	result := sampleResult()
	result.Schema = "item.schema.json"
	result.SchemaViolations = []string{"id: Invalid type. Expected: string, given: integer"}

	var console bytes.Buffer
	NewConsoleFormatter(WithWriter(&console), WithNoColor(true)).FormatResult(result)
	assert.Contains(t, console.String(), "✗ schema item.schema.json")
	assert.Contains(t, console.String(), "id: Invalid type")

	var buf bytes.Buffer
	NewJSONFormatter(WithJSONWriter(&buf)).FormatResult(result)

	var decoded JSONResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.NotNil(t, decoded.Schema)
	assert.False(t, decoded.Schema.Valid)
	assert.Len(t, decoded.Schema.Violations, 1)
}
