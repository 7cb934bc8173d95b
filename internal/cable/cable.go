// Package cable canonicalises conductor sizes and resolves the circuit
// protective conductor of standard twin-and-earth cable.
package cable

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonical conductor sizes in mm², as written on a schedule of test results.
var canonical = map[float64]string{
	0.75: "0.75",
	1:    "1.0",
	1.5:  "1.5",
	2.5:  "2.5",
	4:    "4.0",
	6:    "6.0",
	10:   "10",
	16:   "16",
	25:   "25",
	35:   "35",
	50:   "50",
	70:   "70",
	95:   "95",
}

// twinAndEarthCPC maps a live conductor size to the CPC size of 6242Y cable.
var twinAndEarthCPC = map[string]string{
	"1.0": "1.0",
	"1.5": "1.0",
	"2.5": "1.5",
	"4.0": "1.5",
	"6.0": "2.5",
	"10":  "4.0",
	"16":  "6.0",
}

var (
	unitPattern   = regexp.MustCompile(`(sq\.?\s*mm|mm\s*2|mm|sq)`)
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// Normalise maps a free-text size ("2.5mm", "2.5 sq mm", "4mm²") to its
// canonical string. Input it cannot place in the canonical set comes back
// unchanged.
func Normalise(raw string) string {
	folded := strings.ToLower(norm.NFKC.String(raw))
	folded = unitPattern.ReplaceAllString(folded, " ")
	match := numberPattern.FindString(folded)
	if match == "" {
		return raw
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return raw
	}
	if size, ok := canonical[v]; ok {
		return size
	}
	return raw
}

// IsCanonical reports whether size is already in canonical form.
func IsCanonical(size string) bool {
	for _, s := range canonical {
		if s == size {
			return true
		}
	}
	return false
}

// CPCFor returns the CPC size paired with a canonical live size in
// twin-and-earth cable, or "" when the live size has no standard pairing.
func CPCFor(live string) string {
	return twinAndEarthCPC[Normalise(live)]
}
