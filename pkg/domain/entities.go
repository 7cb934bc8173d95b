// Package domain defines the circuit record, its closed field table, and the
// rule evaluation and persistence contracts shared by eicrcore packages.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// EntityType identifies the type of record a violation refers to.
type EntityType string

const (
	// EntityTestResult identifies a circuit test record.
	EntityTestResult EntityType = "test_result"
	// EntityForm identifies a whole inspection form.
	EntityForm EntityType = "form"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine how a schedule is reported.
const (
	// SeverityBlock marks a result that makes the schedule unsatisfactory.
	SeverityBlock Severity = "block"
	// SeverityWarn marks a result that needs an inspector's attention.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// TestResult is one circuit's identification, construction and test outcomes.
// Absent values are empty strings, never sentinels.
type TestResult struct {
	ID                 string `json:"id"`
	CircuitNumber      string `json:"circuitNumber"`
	CircuitDesignation string `json:"circuitDesignation"`
	CircuitDescription string `json:"circuitDescription"`
	CircuitType        string `json:"circuitType"`
	TypeOfWiring       string `json:"typeOfWiring"`
	ReferenceMethod    string `json:"referenceMethod"`
	Phase              string `json:"phase"`

	LiveSize  string `json:"liveSize"`
	CableSize string `json:"cableSize"`
	CPCSize   string `json:"cpcSize"`

	ProtectiveDeviceType     string `json:"protectiveDeviceType"`
	ProtectiveDeviceRating   string `json:"protectiveDeviceRating"`
	ProtectiveDeviceCurve    string `json:"protectiveDeviceCurve"`
	ProtectiveDeviceKaRating string `json:"protectiveDeviceKaRating"`
	ProtectiveDeviceLocation string `json:"protectiveDeviceLocation"`
	ProtectiveDevice         string `json:"protectiveDevice"`
	BSStandard               string `json:"bsStandard"`
	MaxDisconnectionTime     string `json:"maxDisconnectionTime"`

	R1R2                  string `json:"r1r2"`
	R2                    string `json:"r2"`
	RingContinuityLive    string `json:"ringContinuityLive"`
	RingContinuityNeutral string `json:"ringContinuityNeutral"`
	RingR1                string `json:"ringR1"`
	RingRn                string `json:"ringRn"`
	RingR2                string `json:"ringR2"`

	InsulationTestVoltage  string `json:"insulationTestVoltage"`
	InsulationResistance   string `json:"insulationResistance"`
	InsulationLiveNeutral  string `json:"insulationLiveNeutral"`
	InsulationLiveEarth    string `json:"insulationLiveEarth"`
	InsulationNeutralEarth string `json:"insulationNeutralEarth"`

	Polarity       string `json:"polarity"`
	Zs             string `json:"zs"`
	MaxZs          string `json:"maxZs"`
	PFC            string `json:"pfc"`
	PFCLiveNeutral string `json:"pfcLiveNeutral"`
	PFCLiveEarth   string `json:"pfcLiveEarth"`

	RCDRating     string `json:"rcdRating"`
	RCDOneX       string `json:"rcdOneX"`
	RCDTestButton string `json:"rcdTestButton"`
	RCDBSStandard string `json:"rcdBsStandard"`
	RCDType       string `json:"rcdType"`
	RCDRatingA    string `json:"rcdRatingA"`

	AFDDTest          string `json:"afddTest"`
	FunctionalTesting string `json:"functionalTesting"`
	PointsServed      string `json:"pointsServed"`
	Notes             string `json:"notes"`

	AutoFilled bool `json:"autoFilled"`
}

// NewID allocates an opaque record identifier.
func NewID() string {
	return uuid.NewString()
}

// NewTestResult returns the minimal template for a circuit: an identifier,
// the number and its designation, every derivable field empty.
func NewTestResult(number string) TestResult {
	number = strings.TrimSpace(number)
	return TestResult{
		ID:                 NewID(),
		CircuitNumber:      number,
		CircuitDesignation: Designation(number),
	}
}

// Designation renders the display label for a circuit number.
func Designation(number string) string {
	return "C" + number
}

// IsBlank reports whether the record is an unused slot: no description,
// device type, rating or live size.
func (r TestResult) IsBlank() bool {
	return strings.TrimSpace(r.CircuitDescription) == "" &&
		strings.TrimSpace(r.ProtectiveDeviceType) == "" &&
		strings.TrimSpace(r.ProtectiveDeviceRating) == "" &&
		strings.TrimSpace(r.LiveSize) == ""
}

// DigitsOnly strips every non-digit character ("16A" -> "16").
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CloneCollection returns a shallow copy of the collection. TestResult holds
// only value fields so the copy shares nothing with the input.
func CloneCollection(in []TestResult) []TestResult {
	if in == nil {
		return nil
	}
	out := make([]TestResult, len(in))
	copy(out, in)
	return out
}

// IndexByID returns the position of the record with the given id, or -1.
func IndexByID(records []TestResult, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// IndexByNumber returns the position of the first record whose circuit
// number matches, or -1. A leading "C" on the query is ignored.
func IndexByNumber(records []TestResult, number string) int {
	number = strings.TrimSpace(number)
	if len(number) > 1 && (number[0] == 'C' || number[0] == 'c') {
		number = number[1:]
	}
	if number == "" {
		return -1
	}
	for i := range records {
		if strings.TrimSpace(records[i].CircuitNumber) == number {
			return i
		}
	}
	return -1
}

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entityId"`
	Circuit  string     `json:"circuit,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation `json:"violations"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// ForRecord returns the violations raised against one record.
func (r Result) ForRecord(id string) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.EntityID == id {
			out = append(out, v)
		}
	}
	return out
}
