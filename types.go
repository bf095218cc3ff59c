package iclient

import "encoding/json"

// DatasourceList is the representation of the datasources resource.
type DatasourceList struct {
	DatasourceNames []string        `json:"datasourceNames"`
	ChildURIList    []string        `json:"childUriList,omitempty"`
	DatasourceCount int             `json:"datasourceCount"`
	Raw             json.RawMessage `json:"-"`
}

// DatasourceInfo holds the metadata iServer keeps for one datasource.
// Fields the client does not model remain available in DatasourceResponse.Raw.
type DatasourceInfo struct {
	Name         string          `json:"name"`
	Alias        string          `json:"alias,omitempty"`
	EngineType   string          `json:"engineType,omitempty"`
	Description  string          `json:"description,omitempty"`
	CoordUnit    Unit            `json:"coordUnit,omitempty"`
	DistanceUnit Unit            `json:"distanceUnit,omitempty"`
	ReadOnly     bool            `json:"readOnly"`
	EncodeType   string          `json:"encodeType,omitempty"`
	DataVersion  *int            `json:"dataVersion,omitempty"`
	PrjCoordSys  json.RawMessage `json:"prjCoordSys,omitempty"`
}

// DatasourceResponse is the representation of a single datasource resource.
type DatasourceResponse struct {
	DatasourceInfo DatasourceInfo  `json:"datasourceInfo"`
	ChildURIList   []string        `json:"childUriList,omitempty"`
	Raw            json.RawMessage `json:"-"`
}

// SetDatasourceResult is the body iServer answers a datasource update with.
type SetDatasourceResult struct {
	Succeed             bool            `json:"succeed"`
	PostResultType      string          `json:"postResultType,omitempty"`
	NewResourceLocation string          `json:"newResourceLocation,omitempty"`
	Raw                 json.RawMessage `json:"-"`
}

// ResultType tells the success and failure arms of a ServiceResult apart.
type ResultType string

const (
	ProcessCompleted ResultType = "processCompleted"
	ProcessFailed    ResultType = "processFailed"
)

// ServiceResult is delivered to a RequestCallback exactly once per issued request.
// On ProcessCompleted, Result holds *DatasourceList, *DatasourceResponse or
// *SetDatasourceResult depending on the operation. On ProcessFailed, Err is set.
type ServiceResult struct {
	Type   ResultType
	Result any
	Err    error
}

// Failed reports whether the request did not complete.
func (r ServiceResult) Failed() bool { return r.Type == ProcessFailed }

// RequestCallback receives the outcome of an asynchronous request.
type RequestCallback func(ServiceResult)

func completed(result any) ServiceResult {
	return ServiceResult{Type: ProcessCompleted, Result: result}
}

func failed(err error) ServiceResult {
	return ServiceResult{Type: ProcessFailed, Err: err}
}
