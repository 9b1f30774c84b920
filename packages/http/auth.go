package http

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// Credentials is a username and password pair for Basic authentication.
type Credentials struct {
	Username string
	Password string

	// userOnly marks URL user-info without a password, encoded as written.
	userOnly bool
}

// ParseCredentials splits "user:pass". A missing colon yields an empty password.
func ParseCredentials(s string) Credentials {
	user, pass, _ := strings.Cut(s, ":")
	return Credentials{Username: user, Password: pass}
}

func (c Credentials) String() string {
	return c.Username + ":" + c.Password
}

// BasicAuthHeader returns the value of a Basic Authorization header.
func BasicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// AuthHeaders computes the Authorization header for the target credentials.
// Proxy credentials are never part of it: the executor hands them to the
// proxy only.
func AuthHeaders(target *Credentials) http.Header {
	h := make(http.Header)

	if target != nil {
		h.Set("Authorization", target.header())
	}

	return h
}

func (c *Credentials) header() string {
	if c.userOnly {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username))
	}
	return BasicAuthHeader(c.Username, c.Password)
}
