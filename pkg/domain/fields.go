package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Field names one attribute of a TestResult. The set is closed: every valid
// Field has an entry in the accessor table below.
type Field string

// Field identifiers use the record's JSON names so that voice commands, bulk
// requests and persisted documents share one vocabulary.
const (
	FieldID                       Field = "id"
	FieldCircuitNumber            Field = "circuitNumber"
	FieldCircuitDesignation       Field = "circuitDesignation"
	FieldCircuitDescription       Field = "circuitDescription"
	FieldCircuitType              Field = "circuitType"
	FieldTypeOfWiring             Field = "typeOfWiring"
	FieldReferenceMethod          Field = "referenceMethod"
	FieldPhase                    Field = "phase"
	FieldLiveSize                 Field = "liveSize"
	FieldCableSize                Field = "cableSize"
	FieldCPCSize                  Field = "cpcSize"
	FieldProtectiveDeviceType     Field = "protectiveDeviceType"
	FieldProtectiveDeviceRating   Field = "protectiveDeviceRating"
	FieldProtectiveDeviceCurve    Field = "protectiveDeviceCurve"
	FieldProtectiveDeviceKaRating Field = "protectiveDeviceKaRating"
	FieldProtectiveDeviceLocation Field = "protectiveDeviceLocation"
	FieldProtectiveDevice         Field = "protectiveDevice"
	FieldBSStandard               Field = "bsStandard"
	FieldMaxDisconnectionTime     Field = "maxDisconnectionTime"
	FieldR1R2                     Field = "r1r2"
	FieldR2                       Field = "r2"
	FieldRingContinuityLive       Field = "ringContinuityLive"
	FieldRingContinuityNeutral    Field = "ringContinuityNeutral"
	FieldRingR1                   Field = "ringR1"
	FieldRingRn                   Field = "ringRn"
	FieldRingR2                   Field = "ringR2"
	FieldInsulationTestVoltage    Field = "insulationTestVoltage"
	FieldInsulationResistance     Field = "insulationResistance"
	FieldInsulationLiveNeutral    Field = "insulationLiveNeutral"
	FieldInsulationLiveEarth      Field = "insulationLiveEarth"
	FieldInsulationNeutralEarth   Field = "insulationNeutralEarth"
	FieldPolarity                 Field = "polarity"
	FieldZs                       Field = "zs"
	FieldMaxZs                    Field = "maxZs"
	FieldPFC                      Field = "pfc"
	FieldPFCLiveNeutral           Field = "pfcLiveNeutral"
	FieldPFCLiveEarth             Field = "pfcLiveEarth"
	FieldRCDRating                Field = "rcdRating"
	FieldRCDOneX                  Field = "rcdOneX"
	FieldRCDTestButton            Field = "rcdTestButton"
	FieldRCDBSStandard            Field = "rcdBsStandard"
	FieldRCDType                  Field = "rcdType"
	FieldRCDRatingA               Field = "rcdRatingA"
	FieldAFDDTest                 Field = "afddTest"
	FieldFunctionalTesting        Field = "functionalTesting"
	FieldPointsServed             Field = "pointsServed"
	FieldNotes                    Field = "notes"
	FieldAutoFilled               Field = "autoFilled"
)

var (
	// ErrUnknownField is returned for names outside the Field set.
	ErrUnknownField = errors.New("unknown field")
	// ErrImmutableField is returned when a write targets the record id.
	ErrImmutableField = errors.New("field is immutable")
)

type accessor struct {
	get func(*TestResult) string
	set func(*TestResult, string)
}

func str(p func(*TestResult) *string) accessor {
	return accessor{
		get: func(r *TestResult) string { return *p(r) },
		set: func(r *TestResult, v string) { *p(r) = v },
	}
}

// fieldOrder fixes the iteration order used by fingerprints and exports.
var fieldOrder = []Field{
	FieldID, FieldCircuitNumber, FieldCircuitDesignation, FieldCircuitDescription,
	FieldCircuitType, FieldTypeOfWiring, FieldReferenceMethod, FieldPhase,
	FieldLiveSize, FieldCableSize, FieldCPCSize,
	FieldProtectiveDeviceType, FieldProtectiveDeviceRating, FieldProtectiveDeviceCurve,
	FieldProtectiveDeviceKaRating, FieldProtectiveDeviceLocation, FieldProtectiveDevice,
	FieldBSStandard, FieldMaxDisconnectionTime,
	FieldR1R2, FieldR2, FieldRingContinuityLive, FieldRingContinuityNeutral,
	FieldRingR1, FieldRingRn, FieldRingR2,
	FieldInsulationTestVoltage, FieldInsulationResistance, FieldInsulationLiveNeutral,
	FieldInsulationLiveEarth, FieldInsulationNeutralEarth,
	FieldPolarity, FieldZs, FieldMaxZs, FieldPFC, FieldPFCLiveNeutral, FieldPFCLiveEarth,
	FieldRCDRating, FieldRCDOneX, FieldRCDTestButton, FieldRCDBSStandard, FieldRCDType, FieldRCDRatingA,
	FieldAFDDTest, FieldFunctionalTesting, FieldPointsServed, FieldNotes, FieldAutoFilled,
}

var fieldTable = map[Field]accessor{
	FieldID:                       str(func(r *TestResult) *string { return &r.ID }),
	FieldCircuitNumber:            str(func(r *TestResult) *string { return &r.CircuitNumber }),
	FieldCircuitDesignation:       str(func(r *TestResult) *string { return &r.CircuitDesignation }),
	FieldCircuitDescription:       str(func(r *TestResult) *string { return &r.CircuitDescription }),
	FieldCircuitType:              str(func(r *TestResult) *string { return &r.CircuitType }),
	FieldTypeOfWiring:             str(func(r *TestResult) *string { return &r.TypeOfWiring }),
	FieldReferenceMethod:          str(func(r *TestResult) *string { return &r.ReferenceMethod }),
	FieldPhase:                    str(func(r *TestResult) *string { return &r.Phase }),
	FieldLiveSize:                 str(func(r *TestResult) *string { return &r.LiveSize }),
	FieldCableSize:                str(func(r *TestResult) *string { return &r.CableSize }),
	FieldCPCSize:                  str(func(r *TestResult) *string { return &r.CPCSize }),
	FieldProtectiveDeviceType:     str(func(r *TestResult) *string { return &r.ProtectiveDeviceType }),
	FieldProtectiveDeviceRating:   str(func(r *TestResult) *string { return &r.ProtectiveDeviceRating }),
	FieldProtectiveDeviceCurve:    str(func(r *TestResult) *string { return &r.ProtectiveDeviceCurve }),
	FieldProtectiveDeviceKaRating: str(func(r *TestResult) *string { return &r.ProtectiveDeviceKaRating }),
	FieldProtectiveDeviceLocation: str(func(r *TestResult) *string { return &r.ProtectiveDeviceLocation }),
	FieldProtectiveDevice:         str(func(r *TestResult) *string { return &r.ProtectiveDevice }),
	FieldBSStandard:               str(func(r *TestResult) *string { return &r.BSStandard }),
	FieldMaxDisconnectionTime:     str(func(r *TestResult) *string { return &r.MaxDisconnectionTime }),
	FieldR1R2:                     str(func(r *TestResult) *string { return &r.R1R2 }),
	FieldR2:                       str(func(r *TestResult) *string { return &r.R2 }),
	FieldRingContinuityLive:       str(func(r *TestResult) *string { return &r.RingContinuityLive }),
	FieldRingContinuityNeutral:    str(func(r *TestResult) *string { return &r.RingContinuityNeutral }),
	FieldRingR1:                   str(func(r *TestResult) *string { return &r.RingR1 }),
	FieldRingRn:                   str(func(r *TestResult) *string { return &r.RingRn }),
	FieldRingR2:                   str(func(r *TestResult) *string { return &r.RingR2 }),
	FieldInsulationTestVoltage:    str(func(r *TestResult) *string { return &r.InsulationTestVoltage }),
	FieldInsulationResistance:     str(func(r *TestResult) *string { return &r.InsulationResistance }),
	FieldInsulationLiveNeutral:    str(func(r *TestResult) *string { return &r.InsulationLiveNeutral }),
	FieldInsulationLiveEarth:      str(func(r *TestResult) *string { return &r.InsulationLiveEarth }),
	FieldInsulationNeutralEarth:   str(func(r *TestResult) *string { return &r.InsulationNeutralEarth }),
	FieldPolarity:                 str(func(r *TestResult) *string { return &r.Polarity }),
	FieldZs:                       str(func(r *TestResult) *string { return &r.Zs }),
	FieldMaxZs:                    str(func(r *TestResult) *string { return &r.MaxZs }),
	FieldPFC:                      str(func(r *TestResult) *string { return &r.PFC }),
	FieldPFCLiveNeutral:           str(func(r *TestResult) *string { return &r.PFCLiveNeutral }),
	FieldPFCLiveEarth:             str(func(r *TestResult) *string { return &r.PFCLiveEarth }),
	FieldRCDRating:                str(func(r *TestResult) *string { return &r.RCDRating }),
	FieldRCDOneX:                  str(func(r *TestResult) *string { return &r.RCDOneX }),
	FieldRCDTestButton:            str(func(r *TestResult) *string { return &r.RCDTestButton }),
	FieldRCDBSStandard:            str(func(r *TestResult) *string { return &r.RCDBSStandard }),
	FieldRCDType:                  str(func(r *TestResult) *string { return &r.RCDType }),
	FieldRCDRatingA:               str(func(r *TestResult) *string { return &r.RCDRatingA }),
	FieldAFDDTest:                 str(func(r *TestResult) *string { return &r.AFDDTest }),
	FieldFunctionalTesting:        str(func(r *TestResult) *string { return &r.FunctionalTesting }),
	FieldPointsServed:             str(func(r *TestResult) *string { return &r.PointsServed }),
	FieldNotes:                    str(func(r *TestResult) *string { return &r.Notes }),
	FieldAutoFilled: {
		get: func(r *TestResult) string { return strconv.FormatBool(r.AutoFilled) },
		set: func(r *TestResult, v string) {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			r.AutoFilled = err == nil && b
		},
	},
}

// Fields returns every field in canonical order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// ParseField resolves a field name. Matching is exact first, then
// case-insensitive so that spoken or hand-typed names still resolve.
func ParseField(name string) (Field, error) {
	name = strings.TrimSpace(name)
	if _, ok := fieldTable[Field(name)]; ok {
		return Field(name), nil
	}
	for _, f := range fieldOrder {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Valid reports whether f belongs to the Field set.
func (f Field) Valid() bool {
	_, ok := fieldTable[f]
	return ok
}

// Get returns the string value of a field; unknown fields read as empty.
func (r TestResult) Get(f Field) string {
	acc, ok := fieldTable[f]
	if !ok {
		return ""
	}
	return acc.get(&r)
}

// Set writes a field and applies the record invariants:
//   - circuitDesignation always equals "C" + circuitNumber;
//   - liveSize and cableSize are kept equal;
//   - protectiveDeviceRating and protectiveDevice both hold the digits of the written value;
//   - a change to anything but autoFilled clears autoFilled.
//
// It reports whether any stored value changed.
func (r *TestResult) Set(f Field, value string) (bool, error) {
	acc, ok := fieldTable[f]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	if f == FieldID {
		return false, ErrImmutableField
	}
	before := *r
	switch f {
	case FieldCircuitNumber:
		r.CircuitNumber = strings.TrimSpace(value)
		r.CircuitDesignation = Designation(r.CircuitNumber)
	case FieldCircuitDesignation:
		number := strings.TrimSpace(value)
		if len(number) > 0 && (number[0] == 'C' || number[0] == 'c') {
			number = number[1:]
		}
		r.CircuitNumber = number
		r.CircuitDesignation = Designation(number)
	case FieldLiveSize, FieldCableSize:
		r.LiveSize = value
		r.CableSize = value
	case FieldProtectiveDeviceRating, FieldProtectiveDevice:
		digits := DigitsOnly(value)
		r.ProtectiveDeviceRating = digits
		r.ProtectiveDevice = digits
	default:
		acc.set(r, value)
	}
	changed := *r != before
	if changed && f != FieldAutoFilled {
		r.AutoFilled = false
	}
	return changed, nil
}

// With is the value form of Set: it returns an updated copy.
func (r TestResult) With(f Field, value string) (TestResult, bool, error) {
	changed, err := r.Set(f, value)
	return r, changed, err
}

// Values returns every field value in canonical order.
func (r TestResult) Values() []string {
	out := make([]string, len(fieldOrder))
	for i, f := range fieldOrder {
		out[i] = fieldTable[f].get(&r)
	}
	return out
}
