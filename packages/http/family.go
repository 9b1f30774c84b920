package http

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Family is the hundreds-digit class of an HTTP status code.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyInformational
	FamilySuccess
	FamilyRedirection
	FamilyClientError
	FamilyServerError
)

var familyNames = map[Family]string{
	FamilyUnknown:       "UNKNOWN",
	FamilyInformational: "INFORMATIONAL",
	FamilySuccess:       "SUCCESS",
	FamilyRedirection:   "REDIRECTION",
	FamilyClientError:   "CLIENT_ERROR",
	FamilyServerError:   "SERVER_ERROR",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// ParseFamily accepts a family name ("CLIENT_ERROR", "client-error") or its
// shorthand ("4xx").
func ParseFamily(s string) (Family, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for f, name := range familyNames {
		if norm == name {
			return f, nil
		}
	}
	if len(norm) == 3 && strings.HasSuffix(norm, "XX") && norm[0] >= '1' && norm[0] <= '5' {
		return FamilyOf(int(norm[0]-'0') * 100), nil
	}
	return FamilyUnknown, fmt.Errorf("unknown response family %q", s)
}

// FamilyOf classifies a status code.
func FamilyOf(code int) Family {
	switch code / 100 {
	case 1:
		return FamilyInformational
	case 2:
		return FamilySuccess
	case 3:
		return FamilyRedirection
	case 4:
		return FamilyClientError
	case 5:
		return FamilyServerError
	default:
		return FamilyUnknown
	}
}

// Expectations lists the non-2xx outcomes a caller does not treat as failures.
type Expectations struct {
	Codes    []int
	Families []Family
}

// Accepts reports whether code is a success or explicitly ignored.
func (e Expectations) Accepts(code int) bool {
	family := FamilyOf(code)
	if family == FamilySuccess {
		return true
	}
	return slices.Contains(e.Codes, code) || slices.Contains(e.Families, family)
}

// ErrUnexpectedStatus is matched by every *StatusError.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// StatusError reports a response whose status was not accepted. Response is
// still readable; its body has already been buffered.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Family     Family
	Response   *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: server returned %d (%s)", e.Method, e.URL, e.StatusCode, e.Family)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
