package iclient

import (
	"encoding/json"
	"strings"
)

// Unit enumerates the iServer length and angle units used for coordinate and distance units.
type Unit string

const (
	UnitMeter      Unit = "METER"
	UnitKilometer  Unit = "KILOMETER"
	UnitMile       Unit = "MILE"
	UnitYard       Unit = "YARD"
	UnitDegree     Unit = "DEGREE"
	UnitMillimeter Unit = "MILLIMETER"
	UnitCentimeter Unit = "CENTIMETER"
	UnitInch       Unit = "INCH"
	UnitDecimeter  Unit = "DECIMETER"
	UnitFoot       Unit = "FOOT"
	UnitSecond     Unit = "SECOND"
	UnitMinute     Unit = "MINUTE"
	UnitRadian     Unit = "RADIAN"
)

var knownUnits = []Unit{
	UnitMeter, UnitKilometer, UnitMile, UnitYard, UnitDegree, UnitMillimeter,
	UnitCentimeter, UnitInch, UnitDecimeter, UnitFoot, UnitSecond, UnitMinute, UnitRadian,
}

// ParseUnit normalizes known units and passes unrecognized values through unchanged.
func ParseUnit(val string) Unit {
	trimmed := strings.TrimSpace(val)
	upper := strings.ToUpper(trimmed)
	for _, u := range knownUnits {
		if string(u) == upper {
			return u
		}
	}
	return Unit(trimmed)
}

// IsKnown reports whether the unit is one of the built-in constants.
func (u Unit) IsKnown() bool {
	for _, k := range knownUnits {
		if u == k {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the unit is unset.
func (u Unit) IsEmpty() bool {
	return strings.TrimSpace(string(u)) == ""
}

func (u Unit) String() string {
	return string(u)
}

func (u *Unit) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = ParseUnit(raw)
	return nil
}

// UnmarshalText lets TOML and flag decoders normalize units.
func (u *Unit) UnmarshalText(text []byte) error {
	*u = ParseUnit(string(text))
	return nil
}
