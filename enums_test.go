package iclient

import (
	"encoding/json"
	"testing"
)

func TestParseUnit(t *testing.T) {
	if got := ParseUnit(" meter "); got != UnitMeter {
		t.Fatalf("expected METER, got %q", got)
	}
	if got := ParseUnit("Radian"); got != UnitRadian {
		t.Fatalf("expected RADIAN, got %q", got)
	}
	custom := ParseUnit("furlong")
	if custom.IsKnown() || custom != Unit("furlong") {
		t.Fatalf("expected unknown unit preserved, got %q", custom)
	}
	if !Unit("").IsEmpty() {
		t.Fatalf("expected empty unit")
	}
}

func TestUnitUnmarshalJSON(t *testing.T) {
	var info DatasourceInfo
	if err := json.Unmarshal([]byte(`{"name":"World","coordUnit":"degree","distanceUnit":"KILOMETER"}`), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.CoordUnit != UnitDegree || info.DistanceUnit != UnitKilometer {
		t.Fatalf("unexpected units: %q %q", info.CoordUnit, info.DistanceUnit)
	}
}
