// Package headers defines HTTP header names the client sends to and reads from iServer.
package headers

const (
	// RequestID correlates a client request with server logs.
	// A caller-supplied value in the request headers is kept as-is.
	RequestID = "X-Request-Id"

	// Traceparent carries the W3C trace context of the calling span.
	Traceparent = "Traceparent"

	// UserAgent identifies the client library.
	UserAgent = "User-Agent"

	// Accept and ContentType are fixed to JSON for the REST data service.
	Accept      = "Accept"
	ContentType = "Content-Type"
)

// JSON is the media type used for every request and expected for every response.
const JSON = "application/json"
