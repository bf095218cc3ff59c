package iclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/supermap/iclient-go/testutil"
)

var worldDatasource = testutil.Datasource{
	Name:         "World",
	Alias:        "World",
	EngineType:   "UDB",
	Description:  "world map",
	CoordUnit:    "DEGREE",
	DistanceUnit: "METER",
}

// await issues op on a real service and waits for its single result.
func await(t *testing.T, svc *DatasourceService, op func(RequestCallback) error) ServiceResult {
	t.Helper()
	done := make(chan ServiceResult, 1)
	require.NoError(t, op(func(r ServiceResult) { done <- r }))
	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked")
		return ServiceResult{}
	}
}

func TestGetDatasourcesOverHTTP(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{}, worldDatasource, testutil.Datasource{Name: "China"})
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)

	res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasources(context.Background(), cb) })
	require.Equal(t, ProcessCompleted, res.Type, "err: %v", res.Err)
	list := res.Result.(*DatasourceList)
	assert.Equal(t, []string{"China", "World"}, list.DatasourceNames)
	assert.Equal(t, 2, list.DatasourceCount)
	assert.NotEmpty(t, list.Raw)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "datasources.json", reqs[0].Endpoint)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
	assert.Contains(t, reqs[0].Header.Get("User-Agent"), "iclient-go/")
	assert.NotEmpty(t, reqs[0].Header.Get("X-Request-Id"))
}

func TestGetDatasourceOverHTTP(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{}, worldDatasource)
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)

	res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasource(context.Background(), "World", cb) })
	require.Equal(t, ProcessCompleted, res.Type, "err: %v", res.Err)
	info := res.Result.(*DatasourceResponse).DatasourceInfo
	assert.Equal(t, "World", info.Name)
	assert.Equal(t, "UDB", info.EngineType)
	assert.Equal(t, UnitDegree, info.CoordUnit)
	assert.Equal(t, UnitMeter, info.DistanceUnit)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "datasources/name/World.json", reqs[0].Endpoint)
}

func TestGetDatasourceNotFound(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{})
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)

	res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasource(context.Background(), "Missing", cb) })
	require.True(t, res.Failed())
	var svcErr ServiceError
	require.True(t, errors.As(res.Err, &svcErr), "expected ServiceError, got %T %v", res.Err, res.Err)
	assert.Equal(t, http.StatusNotFound, svcErr.Status)
	assert.Equal(t, http.StatusNotFound, svcErr.Code)
	assert.Contains(t, svcErr.Message, "Missing")
	assert.NotEmpty(t, svcErr.RequestID)
}

func TestSetDatasourceOverHTTP(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{}, worldDatasource)
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)

	params := &SetDatasourceParameters{
		DatasourceName: "World",
		Description:    "updated",
		CoordUnit:      UnitMeter,
		DistanceUnit:   UnitKilometer,
	}
	res := await(t, svc, func(cb RequestCallback) error { return svc.SetDatasource(context.Background(), params, cb) })
	require.Equal(t, ProcessCompleted, res.Type, "err: %v", res.Err)
	assert.True(t, res.Result.(*SetDatasourceResult).Succeed)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "datasources/name/World.json", reqs[0].Endpoint)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, map[string]any{"description": "updated", "coordUnit": "METER", "distanceUnit": "KILOMETER"}, body)

	stored, ok := srv.Datasource("World")
	require.True(t, ok)
	assert.Equal(t, "updated", stored.Description)
	assert.Equal(t, "KILOMETER", stored.DistanceUnit)
}

func TestSetDatasourceBodyKeepsUnitsAsGiven(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{}, testutil.Datasource{Name: "ds1"})
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)

	params := &SetDatasourceParameters{DatasourceName: "ds1", Description: "d", CoordUnit: "M", DistanceUnit: "M"}
	res := await(t, svc, func(cb RequestCallback) error { return svc.SetDatasource(context.Background(), params, cb) })
	require.Equal(t, ProcessCompleted, res.Type, "err: %v", res.Err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "datasources/name/ds1.json", reqs[0].Endpoint)
	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, map[string]any{"description": "d", "coordUnit": "M", "distanceUnit": "M"}, body)
}

func TestSetDatasourceNameWithTrailingSlash(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{},
		testutil.Datasource{Name: "ds"},
		testutil.Datasource{Name: "ds/"},
	)
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)

	params := &SetDatasourceParameters{DatasourceName: "ds/", Description: "slashed"}
	res := await(t, svc, func(cb RequestCallback) error { return svc.SetDatasource(context.Background(), params, cb) })
	require.Equal(t, ProcessCompleted, res.Type, "err: %v", res.Err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, testutil.DataServicePath+"/datasources/name/ds%2F.json", reqs[0].RawPath)

	slashed, ok := srv.Datasource("ds/")
	require.True(t, ok)
	assert.Equal(t, "slashed", slashed.Description)
	plain, ok := srv.Datasource("ds")
	require.True(t, ok)
	assert.Empty(t, plain.Description)
}

func TestSetDatasourceSucceedFalse(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{FailWithSucceedFalse: true}, worldDatasource)
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)

	res := await(t, svc, func(cb RequestCallback) error {
		return svc.SetDatasource(context.Background(), &SetDatasourceParameters{DatasourceName: "World", Description: "x"}, cb)
	})
	require.True(t, res.Failed())
	var svcErr ServiceError
	require.True(t, errors.As(res.Err, &svcErr))
	assert.Equal(t, http.StatusOK, svcErr.Status)
	assert.Equal(t, http.StatusBadRequest, svcErr.Code)
	assert.Equal(t, "update rejected", svcErr.Message)
}

func TestTokenAppendedBeforeFormatSuffix(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{Token: "tok 1"}, worldDatasource)
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client(), Token: "tok 1"})
	require.NoError(t, err)

	res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasources(context.Background(), cb) })
	require.Equal(t, ProcessCompleted, res.Type, "err: %v", res.Err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "datasources.json", reqs[0].Endpoint)
	assert.Equal(t, "tok 1", reqs[0].Query.Get("token"))
}

func TestMissingTokenRejected(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{Token: "secret"}, worldDatasource)
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)

	res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasources(context.Background(), cb) })
	require.True(t, res.Failed())
	var svcErr ServiceError
	require.True(t, errors.As(res.Err, &svcErr))
	assert.Equal(t, http.StatusUnauthorized, svcErr.Status)
}

func TestProxyWrapsEncodedURL(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{Token: "t"}, worldDatasource)
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{
		HTTPClient: srv.Client(),
		Proxy:      srv.ProxyURL(),
		Token:      "t",
	})
	require.NoError(t, err)

	res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasource(context.Background(), "World", cb) })
	require.Equal(t, ProcessCompleted, res.Type, "err: %v", res.Err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.NotEmpty(t, reqs[0].Proxied)
	assert.Equal(t, "datasources/name/World.json", reqs[0].Endpoint)
	assert.Equal(t, "t", reqs[0].Query.Get("token"))
}

func TestProcessURLOrder(t *testing.T) {
	svc, err := NewCommonDatasourceService("http://gis.local/iserver/services/data/rest/data", TransportOptions{
		Token: "abc",
		Proxy: "http://proxy.local/p?url=",
	})
	require.NoError(t, err)

	got := svc.processURL(URLPathAppend(svc.URL(), "datasources"))
	assert.Equal(t,
		"http://proxy.local/p?url="+encodeURIComponent("http://gis.local/iserver/services/data/rest/data/datasources.json?token=abc"),
		got)
}

func TestWithCredentialsControlsCookies(t *testing.T) {
	cookie := &http.Cookie{Name: "JSESSIONID", Value: "s1", Path: "/"}

	for _, withCredentials := range []bool{true, false} {
		srv := testutil.NewDataServer(testutil.DataServerConfig{SessionCookie: cookie}, worldDatasource)

		svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{
			HTTPClient:      srv.Client(),
			WithCredentials: withCredentials,
		})
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasources(context.Background(), cb) })
			require.Equal(t, ProcessCompleted, res.Type, "err: %v", res.Err)
		}

		reqs := srv.Requests()
		require.Len(t, reqs, 2)
		assert.Empty(t, reqs[0].Cookies)
		if withCredentials {
			require.Len(t, reqs[1].Cookies, 1)
			assert.Equal(t, "s1", reqs[1].Cookies[0].Value)
		} else {
			assert.Empty(t, reqs[1].Cookies)
		}
		srv.Close()
	}
}

func TestHeadersAndTraceparent(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{}, worldDatasource)
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{
		HTTPClient: srv.Client(),
		Headers:    map[string]string{"X-Tenant": "gis", "X-Request-Id": "fixed-id"},
		UserAgent:  "custom-agent",
	})
	require.NoError(t, err)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasources(ctx, cb) })
	require.Equal(t, ProcessCompleted, res.Type, "err: %v", res.Err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	h := reqs[0].Header
	assert.Equal(t, "gis", h.Get("X-Tenant"))
	assert.Equal(t, "fixed-id", h.Get("X-Request-Id"))
	assert.Equal(t, "custom-agent", h.Get("User-Agent"))
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", h.Get("Traceparent"))
}

func TestTransportErrorOnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc, err := NewDatasourceService(url+"/iserver/services/data/rest/data", ServiceOptions{})
	require.NoError(t, err)

	res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasources(context.Background(), cb) })
	require.True(t, res.Failed())
	var tErr TransportError
	require.True(t, errors.As(res.Err, &tErr), "expected TransportError, got %T %v", res.Err, res.Err)
	assert.Equal(t, http.MethodGet, tErr.Method)
}

func TestCanceledContextFails(t *testing.T) {
	srv := testutil.NewDataServer(testutil.DataServerConfig{}, worldDatasource)
	defer srv.Close()

	svc, err := NewDatasourceService(srv.ServiceURL(), ServiceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := await(t, svc, func(cb RequestCallback) error { return svc.GetDatasources(ctx, cb) })
	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, context.Canceled)
}
