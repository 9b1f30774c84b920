// Package http provides a fluent request builder and a single-attempt
// executor on top of the standard library's http package.
//
// A request is assembled from composable parts:
//   - Base URI, path and query fragments joined with one separator each
//   - Positional parameters substituted into {tokens} left to right
//   - Raw, URL-encoded or multipart bodies, chosen automatically from the fields
//   - Basic credentials, set directly or taken from the URL's user-info
//
// Execution resolves the builder into an immutable Plan, honours the
// process-wide proxy Defaults, never follows redirects and fails with a
// *StatusError for any status outside the 2xx family that the request did not
// explicitly accept with DoNotFailOn or DoNotFailOnFamily.
//
//	resp, err := http.NewRequest().
//		BaseURI("http://api.test").
//		Path("/items/{id}").
//		URLParameters(42).
//		Get(ctx)
package http
