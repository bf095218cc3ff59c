// Package testutil provides helpers for client tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// DataServicePath is where the stub mounts its data service.
const DataServicePath = "/iserver/services/data-world/rest/data"

// Datasource is the metadata the stub keeps per datasource.
type Datasource struct {
	Name         string `json:"name"`
	Alias        string `json:"alias"`
	EngineType   string `json:"engineType"`
	Description  string `json:"description"`
	CoordUnit    string `json:"coordUnit"`
	DistanceUnit string `json:"distanceUnit"`
	ReadOnly     bool   `json:"readOnly"`
}

// RecordedRequest captures what the stub received.
type RecordedRequest struct {
	Method   string
	Path     string
	RawPath  string
	Query    url.Values
	Header   http.Header
	Body     []byte
	Cookies  []*http.Cookie
	Proxied  string
	Endpoint string
}

// DataServerConfig configures the stub.
type DataServerConfig struct {
	// Token, when set, is required as the token query parameter.
	Token string
	// SessionCookie, when set, is sent with every response.
	SessionCookie *http.Cookie
	// FailWithSucceedFalse makes PUT answer HTTP 200 with "succeed": false.
	FailWithSucceedFalse bool
}

// DataServer is an in-memory iServer data service.
type DataServer struct {
	*httptest.Server

	cfg DataServerConfig

	mu          sync.Mutex
	datasources map[string]Datasource
	requests    []RecordedRequest
}

// NewDataServer starts a stub serving the given datasources.
func NewDataServer(cfg DataServerConfig, datasources ...Datasource) *DataServer {
	ds := &DataServer{cfg: cfg, datasources: make(map[string]Datasource)}
	for _, d := range datasources {
		ds.datasources[d.Name] = d
	}
	mux := http.NewServeMux()
	mux.HandleFunc(DataServicePath+"/", ds.handle)
	mux.HandleFunc("/proxy", ds.handleProxy)
	ds.Server = httptest.NewServer(mux)
	return ds
}

// ServiceURL returns the absolute URL of the data service.
func (d *DataServer) ServiceURL() string {
	return d.URL + DataServicePath
}

// ProxyURL returns a proxy prefix that forwards "?url=<encoded target>" to the target.
func (d *DataServer) ProxyURL() string {
	return d.URL + "/proxy?url="
}

// Requests returns a copy of every request received so far.
func (d *DataServer) Requests() []RecordedRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RecordedRequest(nil), d.requests...)
}

// Datasource returns the current state of the named datasource.
func (d *DataServer) Datasource(name string) (Datasource, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ds, ok := d.datasources[name]
	return ds, ok
}

func (d *DataServer) handleProxy(w http.ResponseWriter, r *http.Request) {
	target, err := url.Parse(r.URL.Query().Get("url"))
	if err != nil || target.Path == "" {
		writeError(w, http.StatusBadRequest, "bad proxy target")
		return
	}
	forwarded := r.Clone(r.Context())
	forwarded.URL = target
	forwarded.RequestURI = ""
	d.serve(w, forwarded, r.URL.String())
}

func (d *DataServer) handle(w http.ResponseWriter, r *http.Request) {
	d.serve(w, r, "")
}

func (d *DataServer) serve(w http.ResponseWriter, r *http.Request, proxied string) {
	body, _ := io.ReadAll(r.Body)
	endpoint := strings.TrimPrefix(r.URL.Path, DataServicePath+"/")
	d.mu.Lock()
	d.requests = append(d.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawPath:  r.URL.EscapedPath(),
		Query:    r.URL.Query(),
		Header:   r.Header.Clone(),
		Body:     body,
		Cookies:  r.Cookies(),
		Proxied:  proxied,
		Endpoint: endpoint,
	})
	d.mu.Unlock()

	if d.cfg.SessionCookie != nil {
		http.SetCookie(w, d.cfg.SessionCookie)
	}
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		w.Header().Set("X-Request-Id", rid)
	}
	if d.cfg.Token != "" && r.URL.Query().Get("token") != d.cfg.Token {
		writeError(w, http.StatusUnauthorized, "token invalid")
		return
	}
	if !strings.HasSuffix(endpoint, ".json") {
		writeError(w, http.StatusNotAcceptable, "unsupported representation")
		return
	}
	endpoint = strings.TrimSuffix(endpoint, ".json")

	switch {
	case endpoint == "datasources" && r.Method == http.MethodGet:
		d.writeList(w)
	case strings.HasPrefix(endpoint, "datasources/name/"):
		name := strings.TrimPrefix(endpoint, "datasources/name/")
		switch r.Method {
		case http.MethodGet:
			d.writeOne(w, name)
		case http.MethodPut:
			d.update(w, name, body)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		writeError(w, http.StatusNotFound, "resource not found")
	}
}

func (d *DataServer) writeList(w http.ResponseWriter) {
	d.mu.Lock()
	names := make([]string, 0, len(d.datasources))
	for name := range d.datasources {
		names = append(names, name)
	}
	d.mu.Unlock()
	sort.Strings(names)
	children := make([]string, 0, len(names))
	for _, name := range names {
		children = append(children, DataServicePath+"/datasources/name/"+url.PathEscape(name))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"datasourceNames": names,
		"childUriList":    children,
		"datasourceCount": len(names),
	})
}

func (d *DataServer) writeOne(w http.ResponseWriter, name string) {
	ds, ok := d.Datasource(name)
	if !ok {
		writeError(w, http.StatusNotFound, "datasource "+name+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"datasourceInfo": ds,
		"childUriList":   []string{DataServicePath + "/datasources/name/" + url.PathEscape(name) + "/datasets"},
	})
}

func (d *DataServer) update(w http.ResponseWriter, name string, body []byte) {
	if d.cfg.FailWithSucceedFalse {
		writeError(w, http.StatusOK, "update rejected")
		return
	}
	var patch map[string]any
	if err := json.Unmarshal(body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	d.mu.Lock()
	ds, ok := d.datasources[name]
	if ok {
		if v, has := patch["description"].(string); has {
			ds.Description = v
		}
		if v, has := patch["coordUnit"].(string); has {
			ds.CoordUnit = v
		}
		if v, has := patch["distanceUnit"].(string); has {
			ds.DistanceUnit = v
		}
		d.datasources[name] = ds
	}
	d.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "datasource "+name+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"succeed": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	code := status
	if code == http.StatusOK {
		code = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{
		"succeed": false,
		"error": map[string]any{
			"code":     code,
			"errorMsg": msg,
		},
	})
}
