package http

import (
	neturl "net/url"
	"strings"
)

// hasAuthority reports whether a fragment looks like it carries its own
// scheme and host.
func hasAuthority(fragment string) bool {
	return strings.Contains(fragment, "//")
}

// JoinSegment appends segment to base so that exactly one join separator sits
// between them.
func JoinSegment(base, segment, join string) string {
	if base == "" {
		return segment
	}
	if segment == "" {
		return base
	}

	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(segment, join) {
		segment = join + segment
	}
	return base + segment
}

// ComposeURL joins the base URI, path and query. If path or query carries its
// own scheme and host the base URI is ignored; otherwise an empty base falls
// back to defaultBase.
func ComposeURL(defaultBase, base, path, query string) string {
	composed := ""
	if !hasAuthority(path) && !hasAuthority(query) {
		composed = base
		if composed == "" {
			composed = defaultBase
		}
	}

	composed = JoinSegment(composed, path, "/")
	composed = JoinSegment(composed, query, "?")
	return composed
}

// ParseTarget validates an absolute http or https URL and strips any embedded
// user-info, returning it as credentials.
func ParseTarget(rawURL string) (*neturl.URL, *Credentials, error) {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return nil, nil, configError("malformed URL %q: %v", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, nil, configError("unsupported URL scheme %q in %q (only http and https are allowed)", u.Scheme, rawURL)
	}
	if u.Host == "" {
		return nil, nil, configError("URL %q must have a host", rawURL)
	}

	var creds *Credentials
	if u.User != nil {
		password, hasPassword := u.User.Password()
		creds = &Credentials{Username: u.User.Username(), Password: password, userOnly: !hasPassword}
		u.User = nil
	}

	return u, creds, nil
}

type target struct {
	url         *neturl.URL
	credentials *Credentials
}

func (r *Request) resolveTarget(defaults Defaults) (*target, error) {
	composed := ComposeURL(defaults.BaseURI, r.baseURI, r.path, r.query)
	if composed == "" {
		return nil, configError("no URL configured: set a base URI, path or query")
	}

	composed, err := SubstituteParameters(composed, r.startToken, r.endToken, r.params)
	if err != nil {
		return nil, err
	}

	u, creds, err := ParseTarget(composed)
	if err != nil {
		return nil, err
	}
	return &target{url: u, credentials: creds}, nil
}
