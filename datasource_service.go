package iclient

import (
	"context"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"github.com/supermap/iclient-go/routes"
)

// DatasourceService lists, reads and updates the datasources of an iServer data service.
//
// Every operation validates its input, builds a fresh transport for the request,
// and returns immediately. The outcome is delivered to the callback exactly once,
// on a separate goroutine, whether the request succeeded or failed.
//
//	svc, _ := iclient.NewDatasourceService("http://localhost:8090/iserver/services/data-world/rest/data", iclient.ServiceOptions{})
//	_ = svc.GetDatasources(ctx, func(r iclient.ServiceResult) {
//		// inspect r.Result or r.Err
//	})
type DatasourceService struct {
	url  string
	opts ServiceOptions
	jar  http.CookieJar

	inflight sync.WaitGroup
}

// NewDatasourceService validates url and copies opts; later changes to opts have no effect.
func NewDatasourceService(url string, opts ServiceOptions) (*DatasourceService, error) {
	normalized, err := normalizeServiceURL(url)
	if err != nil {
		return nil, err
	}
	svc := &DatasourceService{
		url:  normalized,
		opts: opts.clone(),
	}
	if svc.opts.WithCredentials {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		svc.jar = jar
	}
	return svc, nil
}

// URL returns the normalized service URL.
func (s *DatasourceService) URL() string { return s.url }

// GetDatasources queries the datasource collection of the service.
func (s *DatasourceService) GetDatasources(ctx context.Context, callback RequestCallback) error {
	if callback == nil {
		return ConfigError{Reason: "callback required"}
	}
	s.dispatch(ctx, s.url, callback, func(ctx context.Context, t DatasourceTransport) (any, error) {
		return t.GetDatasources(ctx)
	})
	return nil
}

// GetDatasource queries the metadata of the named datasource.
func (s *DatasourceService) GetDatasource(ctx context.Context, datasourceName string, callback RequestCallback) error {
	if strings.TrimSpace(datasourceName) == "" {
		return ConfigError{Reason: "datasource name required"}
	}
	if callback == nil {
		return ConfigError{Reason: "callback required"}
	}
	s.dispatch(ctx, s.url, callback, func(ctx context.Context, t DatasourceTransport) (any, error) {
		return t.GetDatasource(ctx, datasourceName)
	})
	return nil
}

// SetDatasource updates the description, coordinate unit and distance unit of a datasource.
// The datasource name addresses the resource and is not part of the request body.
func (s *DatasourceService) SetDatasource(ctx context.Context, params *SetDatasourceParameters, callback RequestCallback) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if callback == nil {
		return ConfigError{Reason: "callback required"}
	}
	update := params.update()
	target := URLPathAppend(s.url, routes.DatasourceByName(params.DatasourceName))
	s.dispatch(ctx, target, callback, func(ctx context.Context, t DatasourceTransport) (any, error) {
		return t.SetDatasource(ctx, update)
	})
	return nil
}

// Wait blocks until the callbacks of all requests issued so far have returned.
// Calls that issue requests must not run concurrently with Wait; issue first, then Wait.
func (s *DatasourceService) Wait() {
	s.inflight.Wait()
}

func (s *DatasourceService) transportOptions() TransportOptions {
	opts := TransportOptions{
		Proxy:           s.opts.Proxy,
		WithCredentials: s.opts.WithCredentials,
		Headers:         maps.Clone(s.opts.Headers),
		Token:           s.opts.Token,
		Jar:             s.jar,
		HTTPClient:      s.opts.HTTPClient,
		Telemetry:       s.opts.Telemetry,
		UserAgent:       s.opts.UserAgent,
	}
	if s.opts.CrossOrigin != nil {
		opts.CrossOrigin = BoolPtr(*s.opts.CrossOrigin)
	}
	return opts
}

type operation func(ctx context.Context, t DatasourceTransport) (any, error)

func (s *DatasourceService) dispatch(ctx context.Context, target string, callback RequestCallback, op operation) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := s.transportOptions()
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		callback(s.run(ctx, target, opts, op))
	}()
}

func (s *DatasourceService) run(ctx context.Context, target string, opts TransportOptions, op operation) ServiceResult {
	transport, err := s.opts.Transport(target, opts)
	if err != nil {
		return failed(err)
	}
	if transport == nil {
		return failed(errNilTransport)
	}
	result, err := op(ctx, transport)
	if err != nil {
		s.opts.Telemetry.log(ctx, LogLevelError, "datasource_request_failed", map[string]any{
			"url":   target,
			"error": err.Error(),
		})
		return failed(err)
	}
	return completed(result)
}
