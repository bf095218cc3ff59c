package iclient

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("iclient: register notblank validation: %v", err))
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// SetDatasourceParameters describes an update to a datasource's descriptive properties.
// DatasourceName selects the datasource and is never sent in the request body.
// Units are sent as given; values outside the Unit constants are left for the server to judge.
type SetDatasourceParameters struct {
	DatasourceName string `toml:"datasource-name" validate:"required,notblank"`
	Description    string `toml:"description"`
	CoordUnit      Unit   `toml:"coord-unit"`
	DistanceUnit   Unit   `toml:"distance-unit"`
}

// DatasourceUpdate is the PUT payload. The name travels in the URL path only.
type DatasourceUpdate struct {
	Description  string `json:"description,omitempty"`
	CoordUnit    Unit   `json:"coordUnit,omitempty"`
	DistanceUnit Unit   `json:"distanceUnit,omitempty"`
}

// Validate checks the parameters and returns a ConfigError describing every failing field.
func (p *SetDatasourceParameters) Validate() error {
	if p == nil {
		return ConfigError{Reason: "set datasource parameters required"}
	}
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ConfigError{Reason: err.Error()}
	}
	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "notblank":
			reasons = append(reasons, fmt.Sprintf("%s is required", fe.Field()))
		default:
			reasons = append(reasons, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}
	sort.Strings(reasons)
	return ConfigError{Reason: strings.Join(reasons, "; ")}
}

func (p *SetDatasourceParameters) update() DatasourceUpdate {
	return DatasourceUpdate{
		Description:  p.Description,
		CoordUnit:    p.CoordUnit,
		DistanceUnit: p.DistanceUnit,
	}
}
