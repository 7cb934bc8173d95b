// Package device classifies protective devices from free-text descriptions
// and supplies their default British Standard.
package device

import (
	"regexp"
	"strings"

	"eicrcore/pkg/domain"
)

// BaseType is the device family a description resolves to.
type BaseType string

// Device families recognised by Classify.
const (
	MCB  BaseType = "MCB"
	RCBO BaseType = "RCBO"
	RCD  BaseType = "RCD"
	Fuse BaseType = "Fuse"
)

// Default standards per device family.
const (
	StandardMCB  = "BS EN 60898"
	StandardRCBO = "BS EN 61009"
	StandardRCD  = "BS EN 61008"
	StandardFuse = "BS 1361"
)

// Classification is the result of Classify.
type Classification struct {
	BaseType   BaseType
	BSStandard string
}

// Known reports whether the description matched a device family.
func (c Classification) Known() bool {
	switch c.BaseType {
	case MCB, RCBO, RCD, Fuse:
		return true
	}
	return false
}

// HasCurve reports whether the family trips on a B/C/D characteristic.
func (c Classification) HasCurve() bool {
	return c.BaseType == MCB || c.BaseType == RCBO
}

// priority orders substring checks so that "RCBO" never reads as "RCD".
var priority = []struct {
	needle   string
	base     BaseType
	standard string
}{
	{"rcbo", RCBO, StandardRCBO},
	{"rcd", RCD, StandardRCD},
	{"mcb", MCB, StandardMCB},
	{"fuse", Fuse, StandardFuse},
}

var (
	legacyTypePattern = regexp.MustCompile(`(?i)\btype\s*([123])\b`)
	typeCurvePattern  = regexp.MustCompile(`(?i)\btype\s*([bcd])\b`)
	ratedCurvePattern = regexp.MustCompile(`(?i)\b([bcd])\s?\d{1,3}\b`)
)

var legacyToCurve = map[string]string{"1": "B", "2": "C", "3": "D"}

// FixTypeNomenclature rewrites legacy "Type 1/2/3" naming to "Type B/C/D".
func FixTypeNomenclature(raw string) string {
	return legacyTypePattern.ReplaceAllStringFunc(raw, func(m string) string {
		sub := legacyTypePattern.FindStringSubmatch(m)
		return "Type " + legacyToCurve[sub[1]]
	})
}

// Classify resolves a free-text device type to its family and default
// standard. Unrecognised text keeps its trimmed original as the base type and
// falls back to the MCB standard.
func Classify(raw string) Classification {
	lower := strings.ToLower(raw)
	for _, p := range priority {
		if strings.Contains(lower, p.needle) {
			return Classification{BaseType: p.base, BSStandard: p.standard}
		}
	}
	return Classification{BaseType: BaseType(strings.TrimSpace(raw)), BSStandard: StandardMCB}
}

// NormaliseRating strips everything but digits ("16A" -> "16").
func NormaliseRating(raw string) string {
	return domain.DigitsOnly(raw)
}

// ExtractCurve finds the tripping characteristic in a description, either
// "Type C" or a rating token such as "B32". It returns "" when none is present.
func ExtractCurve(raw string) string {
	fixed := FixTypeNomenclature(raw)
	if m := typeCurvePattern.FindStringSubmatch(fixed); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := ratedCurvePattern.FindStringSubmatch(fixed); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// IsResidualCurrent reports whether the device itself provides RCD protection.
func IsResidualCurrent(raw string) bool {
	c := Classify(raw)
	return c.BaseType == RCD || c.BaseType == RCBO
}
