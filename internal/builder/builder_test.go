package builder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"eicrcore/internal/cable"
	"eicrcore/pkg/domain"
)

func raw(src Source, confidence string, kv ...string) RawCircuit {
	values := make(map[domain.Field]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		values[domain.Field(kv[i])] = kv[i+1]
	}
	return RawCircuit{Source: src, Confidence: confidence, Values: values}
}

func TestBuildBoardScanCircuit(t *testing.T) {
	b := New()
	got := b.Build(raw(SourceBoardScan, "high",
		"circuitNumber", "3",
		"circuitDescription", "Kitchen sockets",
		"circuitType", "Ring",
		"protectiveDeviceType", "Type 1 MCB",
		"protectiveDeviceRating", "32A",
		"liveSize", "2.5mm",
		"cpcSize", "2.5",
	))
	want := domain.TestResult{
		CircuitNumber:          "3",
		CircuitDesignation:     "C3",
		CircuitDescription:     "Kitchen sockets",
		CircuitType:            "Ring",
		LiveSize:               "2.5",
		CableSize:              "2.5",
		CPCSize:                "1.5",
		ProtectiveDeviceType:   "MCB",
		ProtectiveDeviceRating: "32",
		ProtectiveDevice:       "32",
		ProtectiveDeviceCurve:  "B",
		BSStandard:             "BS EN 60898",
		MaxZs:                  "1.10",
		PointsServed:           "10",
		RCDRating:              "30",
		Notes:                  "AI detected (confidence: high) — please verify",
		AutoFilled:             true,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(domain.TestResult{}, "ID")); diff != "" {
		t.Fatalf("unexpected record (-want +got):\n%s", diff)
	}
	if got.ID == "" {
		t.Fatalf("expected an id to be allocated")
	}
}

func TestBuildCPCIsAuthoritative(t *testing.T) {
	b := New()
	for _, live := range []string{"1.5mm", "2.5 sq mm", "4mm²", "10", "6.0"} {
		for _, supplied := range []string{"", "0.5", "16", "1.5"} {
			rec := b.Build(raw(SourceBoardScan, "medium", "liveSize", live, "cpcSize", supplied))
			if want := cable.CPCFor(cable.Normalise(live)); rec.CPCSize != want {
				t.Fatalf("live %q supplied cpc %q: got %q want %q", live, supplied, rec.CPCSize, want)
			}
		}
	}
}

func TestBuildManualSourceLeavesNoProvenance(t *testing.T) {
	rec := New().Build(raw(SourceManual, "high", "circuitDescription", "Lights", "protectiveDeviceType", "MCB"))
	if rec.AutoFilled {
		t.Fatalf("manual records must not be autoFilled")
	}
	if rec.Notes != "" {
		t.Fatalf("expected no note, got %q", rec.Notes)
	}
	if rec.RingR1 != "N/A" || rec.RingContinuityNeutral != "N/A" {
		t.Fatalf("non-ring circuits should default ring fields to N/A: %+v", rec)
	}
	if rec.RCDRating != "" {
		t.Fatalf("lighting on an MCB should not require RCD, got %q", rec.RCDRating)
	}
}

func TestBuildMalformedInputStillYieldsRecord(t *testing.T) {
	rec := New().Build(raw(SourceScribble, "", "protectiveDeviceType", "???", "liveSize", "thick", "protectiveDeviceRating", "n/a"))
	if rec.LiveSize != "thick" || rec.CableSize != "thick" {
		t.Fatalf("unrecognised size should pass through, got %q/%q", rec.LiveSize, rec.CableSize)
	}
	if rec.CPCSize != "" || rec.MaxZs != "" {
		t.Fatalf("expected empty derived values, got cpc %q maxZs %q", rec.CPCSize, rec.MaxZs)
	}
	if rec.BSStandard != "BS EN 60898" {
		t.Fatalf("expected fallback standard, got %q", rec.BSStandard)
	}
	if rec.Notes != "AI detected — please verify" || !rec.AutoFilled {
		t.Fatalf("expected provenance on scribble record, got %q %v", rec.Notes, rec.AutoFilled)
	}
}

func TestBuildRCBOAndRingFieldsKeepMeasuredValues(t *testing.T) {
	rec := New().Build(raw(SourceTestScan, "low",
		"circuitDescription", "Ring final",
		"protectiveDeviceType", "RCBO Type C",
		"protectiveDevice", "20A",
		"ringR1", "0.45",
		"ringRn", "N/A",
		"bsStandard", "BS EN 61009-1",
	))
	if rec.ProtectiveDeviceType != "RCBO" || rec.ProtectiveDeviceCurve != "C" {
		t.Fatalf("unexpected device %q curve %q", rec.ProtectiveDeviceType, rec.ProtectiveDeviceCurve)
	}
	if rec.BSStandard != "BS EN 61009-1" {
		t.Fatalf("supplied standard should be kept, got %q", rec.BSStandard)
	}
	if rec.ProtectiveDeviceRating != "20" || rec.ProtectiveDevice != "20" {
		t.Fatalf("rating not synchronised: %q %q", rec.ProtectiveDeviceRating, rec.ProtectiveDevice)
	}
	if rec.MaxZs != "0.87" {
		t.Fatalf("expected C20 derated limit 0.87, got %q", rec.MaxZs)
	}
	if rec.RingR1 != "0.45" || rec.RingRn != "" || rec.RingR2 != "" {
		t.Fatalf("ring fields wrong: %q %q %q", rec.RingR1, rec.RingRn, rec.RingR2)
	}
	if rec.RCDRating != "30" {
		t.Fatalf("RCBO circuits default to 30 mA, got %q", rec.RCDRating)
	}
}

func TestIsRingMatchesWholeWord(t *testing.T) {
	cases := []struct {
		desc, ctype string
		want        bool
	}{
		{"Kitchen", "Ring", true},
		{"Ring final upstairs", "", true},
		{"Downstairs rings", "", true},
		{"Garage wiring", "", false},
		{"Underfloor heating flooring", "Radial", false},
		{"Spring pump", "", false},
	}
	for _, tc := range cases {
		if got := IsRing(tc.desc, tc.ctype); got != tc.want {
			t.Errorf("IsRing(%q,%q) = %v, want %v", tc.desc, tc.ctype, got, tc.want)
		}
	}

	rec := New().Build(RawCircuit{Values: map[domain.Field]string{
		domain.FieldCircuitDescription:     "Garage wiring",
		domain.FieldProtectiveDeviceType:   "MCB",
		domain.FieldProtectiveDeviceRating: "16",
	}})
	if rec.RCDRating != "" {
		t.Fatalf("non-ring circuit should not default an RCD rating, got %q", rec.RCDRating)
	}
}

func TestRequiresRCD(t *testing.T) {
	cases := []struct {
		desc, ctype, dev string
		want             bool
	}{
		{"Bathroom lights", "", "MCB", true},
		{"Garden", "", "MCB", true},
		{"Hall lights", "", "RCD", true},
		{"Hall lights", "", "MCB", false},
		{"Cooker", "Radial", "MCB", false},
		{"Garage wiring", "", "MCB", false},
		{"Kitchen", "Ring", "MCB", true},
	}
	for _, tc := range cases {
		if got := RequiresRCD(tc.desc, tc.ctype, tc.dev); got != tc.want {
			t.Errorf("RequiresRCD(%q,%q,%q) = %v", tc.desc, tc.ctype, tc.dev, got)
		}
	}
}
