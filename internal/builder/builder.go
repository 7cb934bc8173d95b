// Package builder turns raw circuit data from manual entry, board scans, test
// scans or free-text notes into complete TestResult records and inserts them
// into a form's collection.
package builder

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"eicrcore/internal/cable"
	"eicrcore/internal/device"
	"eicrcore/internal/maxzs"
	"eicrcore/internal/points"
	"eicrcore/pkg/domain"
)

// Source identifies where raw circuit data came from.
type Source string

// Sources other than SourceManual are automated and mark records autoFilled.
const (
	SourceManual    Source = "manual"
	SourceBoardScan Source = "board_scan"
	SourceTestScan  Source = "test_scan"
	SourceScribble  Source = "scribble"
)

// Automated reports whether records from this source need manual review.
func (s Source) Automated() bool {
	switch s {
	case SourceBoardScan, SourceTestScan, SourceScribble:
		return true
	}
	return false
}

// RawCircuit is partial circuit data keyed by field. Values are used as
// supplied; the builder derives whatever is missing.
type RawCircuit struct {
	Source     Source
	Confidence string
	Values     map[domain.Field]string
}

// DefaultRCDRating is the sensitivity assumed when a circuit needs additional
// protection.
const DefaultRCDRating = "30"

var ringFields = []domain.Field{
	domain.FieldRingContinuityLive,
	domain.FieldRingContinuityNeutral,
	domain.FieldRingR1,
	domain.FieldRingRn,
	domain.FieldRingR2,
}

// Builder derives records. The zero value is not usable; call New.
type Builder struct {
	calc   *maxzs.Calculator
	logger *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithCalculator replaces the max Zs calculator.
func WithCalculator(c *maxzs.Calculator) Option {
	return func(b *Builder) {
		if c != nil {
			b.calc = c
		}
	}
}

// WithLogger injects a logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New constructs a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{calc: maxzs.New(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces a complete record from raw data. It never fails: every
// derivation falls back to an empty value or the supplied text.
func (b *Builder) Build(raw RawCircuit) domain.TestResult {
	rec := domain.TestResult{ID: domain.NewID()}
	for _, f := range domain.Fields() {
		v := strings.TrimSpace(raw.Values[f])
		if v == "" || f == domain.FieldID || f == domain.FieldAutoFilled || shadowed(raw, f) {
			continue
		}
		_, _ = rec.Set(f, v)
	}

	deviceText := device.FixTypeNomenclature(rec.ProtectiveDeviceType)
	cls := device.Classify(deviceText)
	if cls.Known() {
		rec.ProtectiveDeviceType = string(cls.BaseType)
	} else if deviceText != "" {
		rec.ProtectiveDeviceType = strings.TrimSpace(deviceText)
		b.logger.Debug("unrecognised protective device", zap.String("device", deviceText))
	}
	if rec.BSStandard == "" && deviceText != "" {
		rec.BSStandard = cls.BSStandard
	}
	rec.ProtectiveDeviceCurve = curveFor(rec.ProtectiveDeviceCurve, deviceText, cls)
	_, _ = rec.Set(domain.FieldProtectiveDeviceRating, rec.ProtectiveDeviceRating)

	_, _ = rec.Set(domain.FieldLiveSize, cable.Normalise(rec.LiveSize))
	rec.CPCSize = cable.CPCFor(rec.LiveSize)

	if v := b.calc.Field(rec.BSStandard, rec.ProtectiveDeviceCurve, rec.ProtectiveDeviceRating); v != "" {
		rec.MaxZs = v
	}

	if rec.PointsServed == "" {
		rec.PointsServed = points.Estimate(rec.CircuitDescription, rec.CircuitType, deviceText)
	}

	applyRingDefaults(&rec)

	if rec.RCDRating == "" && RequiresRCD(rec.CircuitDescription, rec.CircuitType, deviceText) {
		rec.RCDRating = DefaultRCDRating
	}

	if raw.Source.Automated() {
		rec.Notes = appendNote(rec.Notes, ProvenanceNote(raw.Confidence))
		rec.AutoFilled = true
	} else {
		rec.AutoFilled = false
	}
	return rec
}

// BuildAll builds every raw circuit in order.
func (b *Builder) BuildAll(raws []RawCircuit) []domain.TestResult {
	out := make([]domain.TestResult, 0, len(raws))
	for _, raw := range raws {
		out = append(out, b.Build(raw))
	}
	return out
}

// ProvenanceNote is the review annotation attached to automated records.
// Confidence is carried through verbatim.
func ProvenanceNote(confidence string) string {
	confidence = strings.TrimSpace(confidence)
	if confidence == "" {
		return "AI detected — please verify"
	}
	return "AI detected (confidence: " + confidence + ") — please verify"
}

var ringWord = regexp.MustCompile(`\brings?\b`)

// IsRing reports whether the circuit is a ring final. "ring" must stand as a
// word so "wiring" or "flooring" do not match.
func IsRing(description, circuitType string) bool {
	return ringWord.MatchString(strings.ToLower(circuitType + " " + description))
}

var rcdKeywords = []string{"socket", "bathroom", "shower", "outdoor", "outside", "garden", "external"}

// RequiresRCD is the additional-protection heuristic: socket, bathroom and
// outdoor circuits, and circuits protected by an RCD or RCBO, default to a
// 30 mA rating.
func RequiresRCD(description, circuitType, deviceType string) bool {
	if device.IsResidualCurrent(deviceType) {
		return true
	}
	if IsRing(description, circuitType) {
		return true
	}
	text := strings.ToLower(description + " " + circuitType)
	for _, k := range rcdKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// shadowed reports whether a legacy alias should yield to its primary field.
func shadowed(raw RawCircuit, f domain.Field) bool {
	switch f {
	case domain.FieldCableSize:
		return strings.TrimSpace(raw.Values[domain.FieldLiveSize]) != ""
	case domain.FieldProtectiveDevice:
		return strings.TrimSpace(raw.Values[domain.FieldProtectiveDeviceRating]) != ""
	}
	return false
}

func curveFor(supplied, deviceText string, cls device.Classification) string {
	if c := strings.ToUpper(strings.TrimSpace(supplied)); c == "B" || c == "C" || c == "D" {
		return c
	}
	if supplied != "" {
		if c := device.ExtractCurve("Type " + supplied); c != "" {
			return c
		}
	}
	if c := device.ExtractCurve(deviceText); c != "" {
		return c
	}
	if cls.HasCurve() {
		return "B"
	}
	return strings.TrimSpace(supplied)
}

func applyRingDefaults(rec *domain.TestResult) {
	ring := IsRing(rec.CircuitDescription, rec.CircuitType)
	for _, f := range ringFields {
		v := rec.Get(f)
		switch {
		case !ring && v == "":
			_, _ = rec.Set(f, "N/A")
		case ring && strings.EqualFold(v, "N/A"):
			_, _ = rec.Set(f, "")
		}
	}
}

func appendNote(notes, note string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return note
	}
	if strings.Contains(notes, note) {
		return notes
	}
	return notes + "; " + note
}
