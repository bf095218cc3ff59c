package iclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/supermap/iclient-go/headers"
	"github.com/supermap/iclient-go/routes"
)

// DatasourceTransport performs the datasource exchanges against one service URL.
type DatasourceTransport interface {
	GetDatasources(ctx context.Context) (*DatasourceList, error)
	GetDatasource(ctx context.Context, name string) (*DatasourceResponse, error)
	SetDatasource(ctx context.Context, update DatasourceUpdate) (*SetDatasourceResult, error)
}

// TransportOptions is the per-request configuration handed to a TransportFactory.
type TransportOptions struct {
	Proxy           string
	WithCredentials bool
	CrossOrigin     *bool
	Headers         map[string]string
	Token           string
	// Jar holds the service's cookies; it is only attached when WithCredentials is set.
	Jar        http.CookieJar
	HTTPClient *http.Client
	Telemetry  TelemetryHooks
	UserAgent  string
}

// TransportFactory creates a transport bound to url.
type TransportFactory func(url string, opts TransportOptions) (DatasourceTransport, error)

// NewTransport is the default TransportFactory, backed by CommonDatasourceService.
func NewTransport(url string, opts TransportOptions) (DatasourceTransport, error) {
	svc, err := NewCommonDatasourceService(url, opts)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CommonDatasourceService talks HTTP to the datasource resources below url.
type CommonDatasourceService struct {
	url        string
	opts       TransportOptions
	httpClient *http.Client
	credential tokenCredential
}

// NewCommonDatasourceService validates url and prepares an HTTP client honouring opts.
func NewCommonDatasourceService(url string, opts TransportOptions) (*CommonDatasourceService, error) {
	normalized, err := normalizeServiceURL(url)
	if err != nil {
		return nil, err
	}
	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	hc := *base
	if opts.WithCredentials {
		hc.Jar = opts.Jar
	} else {
		hc.Jar = nil
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &CommonDatasourceService{
		url:        normalized,
		opts:       opts,
		httpClient: &hc,
		credential: tokenCredential{token: opts.Token},
	}, nil
}

// URL returns the service URL the transport is bound to.
func (s *CommonDatasourceService) URL() string { return s.url }

// GetDatasources reads the datasources resource.
func (s *CommonDatasourceService) GetDatasources(ctx context.Context) (*DatasourceList, error) {
	data, err := s.do(ctx, http.MethodGet, URLPathAppend(s.url, routes.Datasources), nil)
	if err != nil {
		return nil, err
	}
	var out DatasourceList
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("iclient: decode datasources: %w", err)
	}
	out.Raw = data
	return &out, nil
}

// GetDatasource reads the named datasource resource.
func (s *CommonDatasourceService) GetDatasource(ctx context.Context, name string) (*DatasourceResponse, error) {
	if name == "" {
		return nil, ConfigError{Reason: "datasource name required"}
	}
	data, err := s.do(ctx, http.MethodGet, URLPathAppend(s.url, routes.DatasourceByName(name)), nil)
	if err != nil {
		return nil, err
	}
	var out DatasourceResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("iclient: decode datasource %q: %w", name, err)
	}
	out.Raw = data
	return &out, nil
}

// SetDatasource updates the datasource the transport URL points at.
func (s *CommonDatasourceService) SetDatasource(ctx context.Context, update DatasourceUpdate) (*SetDatasourceResult, error) {
	data, err := s.do(ctx, http.MethodPut, s.url, update)
	if err != nil {
		return nil, err
	}
	out := SetDatasourceResult{Succeed: true}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("iclient: decode set datasource result: %w", err)
		}
	}
	out.Raw = data
	return &out, nil
}

// processURL applies the token, the JSON format suffix and the proxy, in that order.
func (s *CommonDatasourceService) processURL(target string) string {
	u := s.credential.appendTo(target)
	u = appendFormatSuffix(u)
	if s.opts.Proxy != "" {
		u = s.opts.Proxy + encodeURIComponent(u)
	}
	return u
}

func (s *CommonDatasourceService) newJSONRequest(ctx context.Context, method, target string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.processURL(target), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set(headers.ContentType, headers.JSON)
	}
	req.Header.Set(headers.Accept, headers.JSON)
	req.Header.Set(headers.UserAgent, s.opts.UserAgent)
	for k, v := range s.opts.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get(headers.RequestID) == "" {
		req.Header.Set(headers.RequestID, uuid.NewString())
	}
	injectTraceparent(ctx, req)
	return req, nil
}

func (s *CommonDatasourceService) do(ctx context.Context, method, target string, payload any) ([]byte, error) {
	req, err := s.newJSONRequest(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}
	resp, err := s.send(req)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	if failedEnvelope(data) {
		return nil, serviceErrorFromBody(resp, data)
	}
	return data, nil
}

func (s *CommonDatasourceService) send(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	tel := s.opts.Telemetry
	if tel.OnHTTPRequest != nil {
		tel.OnHTTPRequest(ctx, req)
	}
	fields := map[string]any{
		"method":           req.Method,
		"url":              req.URL.String(),
		"request_id":       req.Header.Get(headers.RequestID),
		"with_credentials": s.opts.WithCredentials,
	}
	if s.opts.CrossOrigin != nil {
		fields["cross_origin"] = *s.opts.CrossOrigin
	}
	tel.log(ctx, LogLevelInfo, "http_request", fields)
	start := time.Now()
	resp, err := s.httpClient.Do(req)
	latency := time.Since(start)
	if tel.OnHTTPResponse != nil {
		tel.OnHTTPResponse(ctx, req, resp, err, latency)
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	tel.metric(ctx, "iclient_http_request_latency_ms", float64(latency.Milliseconds()), map[string]string{
		"method": req.Method,
		"status": strconv.Itoa(status),
	})
	if err != nil {
		tel.log(ctx, LogLevelError, "http_request_failed", map[string]any{
			"url":   req.URL.String(),
			"error": err.Error(),
		})
		return nil, TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	if resp.StatusCode >= 400 {
		//nolint:errcheck // best-effort cleanup on return
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeServiceError(resp)
	}
	return resp, nil
}
