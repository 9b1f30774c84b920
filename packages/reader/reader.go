package reader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/easyhttp/packages/http"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// ErrNotJSON is returned by JSONPath when the body is not valid JSON.
var ErrNotJSON = errors.New("response body is not valid JSON")

type Reader struct {
	response *http.Response
	body     []byte
}

// New reads and closes the response body.
func New(resp *http.Response) (*Reader, error) {
	body, err := resp.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Reader{response: resp, body: body}, nil
}

func (r *Reader) StatusCode() int {
	return r.response.StatusCode
}

func (r *Reader) Family() http.Family {
	return r.response.Family()
}

func (r *Reader) Header(name string) string {
	return r.response.Header.Get(name)
}

// Location is the redirect target to re-issue when the family is REDIRECTION.
func (r *Reader) Location() string {
	return r.response.Location()
}

func (r *Reader) AsString() string {
	return string(r.body)
}

func (r *Reader) Bytes() []byte {
	return r.body
}

// JSONPath evaluates a gjson path such as "rows.0.doc._id".
func (r *Reader) JSONPath(path string) (gjson.Result, error) {
	if !gjson.ValidBytes(r.body) {
		return gjson.Result{}, ErrNotJSON
	}
	if path == "" {
		return gjson.ParseBytes(r.body), nil
	}
	return gjson.GetBytes(r.body, path), nil
}

// XMLPath returns the text of the first element matching a path such as
// "envelope/body/id". A trailing "@name" segment selects an attribute.
// Namespaces are ignored.
func (r *Reader) XMLPath(path string) (string, bool, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	attr := ""
	if last := segments[len(segments)-1]; strings.HasPrefix(last, "@") {
		attr = strings.TrimPrefix(last, "@")
		segments = segments[:len(segments)-1]
	}
	if len(segments) == 0 || segments[0] == "" {
		return "", false, fmt.Errorf("invalid XML path %q", path)
	}

	dec := xml.NewDecoder(bytes.NewReader(r.body))
	var stack []string
	var text strings.Builder
	capturing := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("invalid XML body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			if !matches(stack, segments) {
				continue
			}
			if attr != "" {
				for _, a := range t.Attr {
					if a.Name.Local == attr {
						return a.Value, true, nil
					}
				}
				return "", false, nil
			}
			capturing = true
		case xml.CharData:
			if capturing {
				text.Write(t)
			}
		case xml.EndElement:
			if capturing && len(stack) == len(segments) {
				return strings.TrimSpace(text.String()), true, nil
			}
			stack = stack[:len(stack)-1]
		}
	}
}

func matches(stack, segments []string) bool {
	if len(stack) != len(segments) {
		return false
	}
	for i := range stack {
		if stack[i] != segments[i] {
			return false
		}
	}
	return true
}

// ErrSchemaMismatch is returned by ValidateJSONSchema when the body does not
// satisfy the schema. The individual violations are returned alongside it.
var ErrSchemaMismatch = errors.New("response body does not match schema")

// ValidateJSONSchema checks the body against the JSON schema stored at
// schemaPath.
func (r *Reader) ValidateJSONSchema(schemaPath string) ([]string, error) {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	if !gjson.ValidBytes(r.body) {
		return nil, ErrNotJSON
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewBytesLoader(r.body),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, ErrSchemaMismatch
}
