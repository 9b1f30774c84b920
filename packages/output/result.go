package output

import (
	"net/http"
	"time"

	easyhttp "github.com/abdul-hamid-achik/easyhttp/packages/http"
	"github.com/abdul-hamid-achik/easyhttp/packages/history"
)

// Extract is the outcome of a JSON or XML path query against the body
type Extract struct {
	Kind  string // "json" or "xml"
	Path  string
	Value string
	Found bool
}

// Result is what the CLI shows for one executed request
type Result struct {
	Method   string
	URL      string
	Status   string
	Code     int
	Family   easyhttp.Family
	Header   http.Header
	Body     []byte
	Duration time.Duration
	Extracts []Extract

	// Schema is the JSON schema the body was validated against, if any
	Schema           string
	SchemaViolations []string
}

// Formatter is implemented by every output format
type Formatter interface {
	FormatResult(result *Result)
	FormatError(err error)
	FormatHistory(entries []history.Entry)
}
