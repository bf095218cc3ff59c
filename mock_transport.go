package iclient

import (
	"context"
	"sync"
)

// MockTransportError is returned when a mock transport has no queued outcome.
type MockTransportError struct {
	Reason string
}

func (e MockTransportError) Error() string { return "mock transport: " + e.Reason }

// MockOp names the transport operation a MockCall recorded.
type MockOp string

const (
	MockOpList MockOp = "list"
	MockOpGet  MockOp = "get"
	MockOpSet  MockOp = "set"
)

// MockCall records one transport construction and the operation run on it.
type MockCall struct {
	URL     string
	Options TransportOptions
	Op      MockOp
	Name    string
	Update  DatasourceUpdate
}

type mockOutcome struct {
	result any
	err    error
}

// MockTransport provides in-memory transports for unit tests without an iServer.
// Use Factory as ServiceOptions.Transport.
type MockTransport struct {
	mu    sync.Mutex
	queue map[MockOp][]mockOutcome
	calls []MockCall
}

// NewMockTransport creates an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{queue: make(map[MockOp][]mockOutcome)}
}

// WithDatasources enqueues a result for the next list operation.
func (m *MockTransport) WithDatasources(list DatasourceList) *MockTransport {
	m.enqueue(MockOpList, &list, nil)
	return m
}

// WithDatasource enqueues a result for the next get operation.
func (m *MockTransport) WithDatasource(resp DatasourceResponse) *MockTransport {
	m.enqueue(MockOpGet, &resp, nil)
	return m
}

// WithSetResult enqueues a result for the next set operation.
func (m *MockTransport) WithSetResult(res SetDatasourceResult) *MockTransport {
	m.enqueue(MockOpSet, &res, nil)
	return m
}

// WithError enqueues an error for the next call of op.
func (m *MockTransport) WithError(op MockOp, err error) *MockTransport {
	m.enqueue(op, nil, err)
	return m
}

// Calls returns a copy of the calls recorded so far.
func (m *MockTransport) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Factory returns a TransportFactory whose transports record into m.
func (m *MockTransport) Factory() TransportFactory {
	return func(url string, opts TransportOptions) (DatasourceTransport, error) {
		return &mockBoundTransport{mock: m, url: url, opts: opts}, nil
	}
}

func (m *MockTransport) enqueue(op MockOp, result any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue[op] = append(m.queue[op], mockOutcome{result: result, err: err})
}

func (m *MockTransport) dequeue(call MockCall) (mockOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	q := m.queue[call.Op]
	if len(q) == 0 {
		return mockOutcome{}, MockTransportError{Reason: "no " + string(call.Op) + " outcome configured"}
	}
	m.queue[call.Op] = q[1:]
	return q[0], nil
}

type mockBoundTransport struct {
	mock *MockTransport
	url  string
	opts TransportOptions
}

func (t *mockBoundTransport) GetDatasources(_ context.Context) (*DatasourceList, error) {
	out, err := t.mock.dequeue(MockCall{URL: t.url, Options: t.opts, Op: MockOpList})
	if err != nil {
		return nil, err
	}
	if out.err != nil {
		return nil, out.err
	}
	return out.result.(*DatasourceList), nil
}

func (t *mockBoundTransport) GetDatasource(_ context.Context, name string) (*DatasourceResponse, error) {
	out, err := t.mock.dequeue(MockCall{URL: t.url, Options: t.opts, Op: MockOpGet, Name: name})
	if err != nil {
		return nil, err
	}
	if out.err != nil {
		return nil, out.err
	}
	return out.result.(*DatasourceResponse), nil
}

func (t *mockBoundTransport) SetDatasource(_ context.Context, update DatasourceUpdate) (*SetDatasourceResult, error) {
	out, err := t.mock.dequeue(MockCall{URL: t.url, Options: t.opts, Op: MockOpSet, Update: update})
	if err != nil {
		return nil, err
	}
	if out.err != nil {
		return nil, out.err
	}
	return out.result.(*SetDatasourceResult), nil
}
