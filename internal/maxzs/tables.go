package maxzs

import (
	"strings"
)

// Family groups the standards that share one row of limits.
type Family string

// Device families with tabulated earth fault loop impedance limits.
const (
	FamilyCircuitBreaker Family = "circuit-breaker" // BS EN 60898 and BS EN 61009
	FamilyBS88Part2      Family = "bs88-2"
	FamilyBS88Part3      Family = "bs88-3" // BS 1361
	FamilyBS3036         Family = "bs3036"
	FamilyBS1362         Family = "bs1362"
)

// Table looks up the tabulated maximum Zs in ohms for a device.
type Table interface {
	Lookup(family Family, curve string, rating int) (float64, bool)
}

// BS7671Table holds the 0.4 s disconnection limits of BS 7671 Tables 41.2
// and 41.3 (Cmin 0.95).
var BS7671Table Table = staticTable{
	breakers: map[string]map[int]float64{
		"B": {3: 14.57, 6: 7.28, 10: 4.37, 16: 2.73, 20: 2.19, 25: 1.75, 32: 1.37, 40: 1.09, 50: 0.87, 63: 0.69, 80: 0.55, 100: 0.44, 125: 0.35},
		"C": {6: 3.64, 10: 2.19, 16: 1.37, 20: 1.09, 25: 0.87, 32: 0.68, 40: 0.55, 50: 0.44, 63: 0.35, 80: 0.27, 100: 0.22, 125: 0.17},
		"D": {6: 1.82, 10: 1.09, 16: 0.68, 20: 0.55, 25: 0.44, 32: 0.34, 40: 0.27, 50: 0.22, 63: 0.17, 80: 0.14, 100: 0.11, 125: 0.09},
	},
	fuses: map[Family]map[int]float64{
		FamilyBS88Part2: {2: 33.1, 4: 15.6, 6: 8.52, 10: 5.11, 16: 2.70, 20: 1.77, 25: 1.44, 32: 1.04, 40: 0.82, 50: 0.60},
		FamilyBS88Part3: {5: 9.93, 15: 3.11, 20: 1.61, 30: 1.09},
		FamilyBS3036:    {5: 9.10, 15: 2.43, 20: 1.68, 30: 1.04},
		FamilyBS1362:    {3: 15.6, 13: 2.30},
	},
}

type staticTable struct {
	breakers map[string]map[int]float64
	fuses    map[Family]map[int]float64
}

func (t staticTable) Lookup(family Family, curve string, rating int) (float64, bool) {
	if family == FamilyCircuitBreaker {
		row, ok := t.breakers[curve]
		if !ok {
			return 0, false
		}
		v, ok := row[rating]
		return v, ok
	}
	row, ok := t.fuses[family]
	if !ok {
		return 0, false
	}
	v, ok := row[rating]
	return v, ok
}

// FamilyOf resolves a free-text standard ("BS EN 60898-1", "61009", "BS 1361")
// to its family. RCDs to BS EN 61008 have no overcurrent limit and resolve to "".
func FamilyOf(standard string) Family {
	s := strings.ToLower(strings.ReplaceAll(standard, " ", ""))
	switch {
	case strings.Contains(s, "60898"), strings.Contains(s, "61009"), strings.Contains(s, "60947"):
		return FamilyCircuitBreaker
	case strings.Contains(s, "1361"), strings.Contains(s, "88-3"), strings.Contains(s, "88part3"):
		return FamilyBS88Part3
	case strings.Contains(s, "3036"):
		return FamilyBS3036
	case strings.Contains(s, "1362"):
		return FamilyBS1362
	case strings.Contains(s, "88-2"), strings.Contains(s, "88part2"), strings.HasSuffix(s, "bs88"), strings.Contains(s, "88-1"):
		return FamilyBS88Part2
	}
	return ""
}
