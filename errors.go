package iclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/supermap/iclient-go/headers"
)

// ConfigError reports caller input that was rejected before any request was issued.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string { return "iclient: " + e.Reason }

// ServiceError captures the error envelope returned by iServer.
type ServiceError struct {
	Status    int
	Code      int
	Message   string
	RequestID string
}

// Error implements the error interface.
func (e ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != 0 && e.Code != e.Status {
		return fmt.Sprintf("iclient: service error %d (status %d): %s", e.Code, e.Status, msg)
	}
	return fmt.Sprintf("iclient: service error %d: %s", e.Status, msg)
}

// TransportError wraps failures that happened before a response was read.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("iclient: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e TransportError) Unwrap() error { return e.Err }

// serviceEnvelope is the shape iServer uses for both failures and PUT/POST results.
type serviceEnvelope struct {
	Succeed *bool `json:"succeed"`
	Error   *struct {
		Code     int    `json:"code"`
		ErrorMsg string `json:"errorMsg"`
	} `json:"error"`
}

func decodeServiceError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	return serviceErrorFromBody(resp, data)
}

func serviceErrorFromBody(resp *http.Response, data []byte) error {
	svcErr := ServiceError{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get(headers.RequestID),
	}
	if len(data) == 0 {
		svcErr.Message = resp.Status
		return svcErr
	}
	var payload serviceEnvelope
	if err := json.Unmarshal(data, &payload); err != nil {
		svcErr.Message = strings.TrimSpace(string(data))
		return svcErr
	}
	if payload.Error != nil {
		svcErr.Code = payload.Error.Code
		svcErr.Message = payload.Error.ErrorMsg
	}
	if svcErr.Message == "" {
		svcErr.Message = resp.Status
	}
	return svcErr
}

// failedEnvelope reports whether a 2xx body still signals failure via "succeed": false.
func failedEnvelope(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var payload serviceEnvelope
	if err := json.Unmarshal(data, &payload); err != nil {
		return false
	}
	return payload.Succeed != nil && !*payload.Succeed
}
