package http

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// Response is an executed request. The caller owns Body and must Close it.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       io.ReadCloser
	URL        string
	Duration   time.Duration

	body     []byte
	consumed bool
}

func newResponse(resp *http.Response, url string, duration time.Duration) *Response {
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       resp.Body,
		URL:        url,
		Duration:   duration,
	}
}

func (r *Response) Family() Family {
	return FamilyOf(r.StatusCode)
}

// Bytes reads the remaining body once, closes it and returns the contents on
// every later call.
func (r *Response) Bytes() ([]byte, error) {
	if r.consumed {
		return r.body, nil
	}
	r.consumed = true

	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.body = data
	return data, nil
}

func (r *Response) BodyString() (string, error) {
	b, err := r.Bytes()
	return string(b), err
}

// buffer reads the body into memory so the response outlives its connection.
func (r *Response) buffer() error {
	data, err := r.Bytes()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return err
}

func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Location returns the redirect target of a 3xx response.
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

func (r *Response) IsSuccess() bool {
	return r.Family() == FamilySuccess
}

func (r *Response) IsRedirect() bool {
	return r.Family() == FamilyRedirection
}
