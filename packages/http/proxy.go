package http

import (
	neturl "net/url"
	"strings"
)

// Defaults holds process-wide settings shared read-only by every request.
// Configure them once, before any request runs.
type Defaults struct {
	// BaseURI is used when a request sets neither a base URI nor a full URL.
	BaseURI string

	Proxy         *neturl.URL
	ProxyUser     string
	ProxyPassword string

	// BypassProxyForLocalAddresses sends requests for loopback hosts directly.
	BypassProxyForLocalAddresses bool

	// TrustAllCertificates disables certificate and host name verification.
	TrustAllCertificates bool
}

// localAddresses is intentionally a fixed list rather than a range check.
var localAddresses = []string{"localhost", "127.0.0.1"}

// IsLocalAddress reports whether host names the local machine.
func IsLocalAddress(host string) bool {
	for _, local := range localAddresses {
		if strings.EqualFold(host, local) {
			return true
		}
	}
	return false
}

// ProxyFor returns the proxy to use for a request to host, or nil to connect
// directly.
func (d Defaults) ProxyFor(host string) *neturl.URL {
	if d.Proxy == nil {
		return nil
	}
	if d.BypassProxyForLocalAddresses && IsLocalAddress(host) {
		return nil
	}
	return d.Proxy
}

// ProxyAuthorization returns the Proxy-Authorization header value, or "" when
// proxy credentials are incomplete.
func (d Defaults) ProxyAuthorization() string {
	if d.ProxyUser == "" || d.ProxyPassword == "" {
		return ""
	}
	return BasicAuthHeader(d.ProxyUser, d.ProxyPassword)
}
