package iclient

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"
)

const defaultUserAgent = "iclient-go/" + Version

// ServiceOptions wires proxying, credentials, headers and telemetry for a service.
type ServiceOptions struct {
	// Proxy is prepended to every request URL, which is then sent URI-encoded.
	Proxy string
	// WithCredentials keeps server cookies across requests of the same service.
	WithCredentials bool
	// CrossOrigin is passed through to the transport; nil means unspecified.
	CrossOrigin *bool
	Headers     map[string]string
	// Token is an iServer security token appended as the token query parameter.
	Token      string
	HTTPClient *http.Client
	Telemetry  TelemetryHooks
	UserAgent  string
	// Transport builds the per-request collaborator. Defaults to NewTransport.
	Transport TransportFactory
}

func (o ServiceOptions) clone() ServiceOptions {
	out := o
	out.Headers = maps.Clone(o.Headers)
	if o.CrossOrigin != nil {
		out.CrossOrigin = BoolPtr(*o.CrossOrigin)
	}
	if out.UserAgent == "" {
		out.UserAgent = defaultUserAgent
	}
	if out.HTTPClient == nil {
		out.HTTPClient = http.DefaultClient
	}
	if out.Transport == nil {
		out.Transport = NewTransport
	}
	out.Token = strings.TrimSpace(out.Token)
	return out
}

func normalizeServiceURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ConfigError{Reason: "service URL required"}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ConfigError{Reason: fmt.Sprintf("invalid service URL: %v", err)}
	}
	if u.Scheme == "" {
		return "", ConfigError{Reason: "service URL missing scheme (http/https)"}
	}
	if u.Host == "" {
		return "", ConfigError{Reason: "service URL missing host"}
	}
	// An escaped "%2F" at the end belongs to a resource name and must survive.
	if strings.HasSuffix(u.EscapedPath(), "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	}
	return u.String(), nil
}

var errNilTransport = errors.New("iclient: transport factory returned nil")
