package extract

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"eicrcore/internal/builder"
	"eicrcore/pkg/domain"
)

const boardJSON = `{
  "board": {"name": "DB1 Kitchen", "manufacturer": "Hager"},
  "circuits": [
    {"circuit_number": 1, "label": "Lights", "device_type": "MCB Type 1", "rating": "6A", "cable_size": "1.5mm", "confidence": "high"},
    {"circuit_number": "2", "label": "Sockets", "device_type": "RCBO", "rating": 32, "cable_size": "2.5", "cpc_size": "2.5", "confidence": "medium"},
    {"label": "Heat pump", "device_type": "MCB", "curve": "C", "rating": 20, "cable_size": "4", "confidence": "low",
     "phases": [{"phase": "L1"}, {"phase": "L2"}, {"phase": "L3", "rating": "16"}]}
  ]
}`

func TestBoardScanRawCircuits(t *testing.T) {
	scan, err := ParseBoardScan([]byte(boardJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	raws := scan.RawCircuits()
	if len(raws) != 5 {
		t.Fatalf("expected 5 raw circuits (3 phases expanded), got %d", len(raws))
	}
	if raws[0].Values[domain.FieldCircuitNumber] != "1" || raws[1].Values[domain.FieldProtectiveDeviceRating] != "32" {
		t.Fatalf("numeric values should decode as text: %+v %+v", raws[0].Values, raws[1].Values)
	}
	if raws[0].Confidence != "high" || raws[0].Source != builder.SourceBoardScan {
		t.Fatalf("unexpected provenance %+v", raws[0])
	}
	var descs []string
	for _, r := range raws[2:] {
		descs = append(descs, r.Values[domain.FieldCircuitDescription])
	}
	if diff := cmp.Diff([]string{"Heat pump (L1)", "Heat pump (L2)", "Heat pump (L3)"}, descs); diff != "" {
		t.Fatalf("phase descriptions (-want +got):\n%s", diff)
	}
	if raws[4].Values[domain.FieldProtectiveDeviceRating] != "16" || raws[3].Values[domain.FieldProtectiveDeviceRating] != "20" {
		t.Fatalf("phase overlay wrong")
	}
	if raws[2].Values[domain.FieldProtectiveDeviceLocation] != "DB1 Kitchen" {
		t.Fatalf("board name should become the device location")
	}

	records := builder.New().BuildAll(raws)
	if records[0].ProtectiveDeviceCurve != "B" || records[0].BSStandard != "BS EN 60898" {
		t.Fatalf("legacy type not fixed: %+v", records[0])
	}
	if records[1].CPCSize != "1.5" {
		t.Fatalf("cpc must come from the twin-and-earth table, got %q", records[1].CPCSize)
	}
	if records[4].Phase != "L3" {
		t.Fatalf("expected phase L3, got %q", records[4].Phase)
	}
}

func TestParseBoardScanRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseBoardScan([]byte(`{"circuits": [`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := ParseTestScan([]byte(`[]`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for test scan, got %v", err)
	}
}

const testScanJSON = `{
  "circuits": [
    {"circuit_number": "C1", "r1_r2": {"value": "0.45"}, "zs": {"value": 0.62, "max_zs": "1.37"},
     "insulation_resistance": {"value": ">200"}, "polarity": "✓", "rcd_trip_time": {"value": "18"},
     "pfc": {"value": "1.2", "live_neutral": "1.2", "live_earth": "0.9"}},
    {"circuit_number": "9", "description": "Immersion", "insulation_resistance": {"value": "150", "test_voltage": "250V"}}
  ],
  "warnings": ["glare on row 3"],
  "suggestions": [],
  "overall_confidence": "medium",
  "layout_detected": "nic-eic"
}`

func TestTestScanValues(t *testing.T) {
	scan, err := ParseTestScan([]byte(testScanJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := scan.Circuits[0].Values()
	want := map[domain.Field]string{
		domain.FieldCircuitNumber:         "1",
		domain.FieldR1R2:                  "0.45",
		domain.FieldZs:                    "0.62",
		domain.FieldMaxZs:                 "1.37",
		domain.FieldInsulationResistance:  ">200",
		domain.FieldInsulationTestVoltage: DefaultTestVoltage,
		domain.FieldPolarity:              "✓",
		domain.FieldRCDOneX:               "18",
		domain.FieldPFC:                   "1.2",
		domain.FieldPFCLiveNeutral:        "1.2",
		domain.FieldPFCLiveEarth:          "0.9",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flattened values (-want +got):\n%s", diff)
	}
	if v := scan.Circuits[1].Values()[domain.FieldInsulationTestVoltage]; v != "250" {
		t.Fatalf("expected stated voltage without unit, got %q", v)
	}
	if scan.LayoutDetected != "nic-eic" || len(scan.Warnings) != 1 {
		t.Fatalf("envelope not decoded: %+v", scan)
	}
}

func TestApplyTestScanMergesAndInserts(t *testing.T) {
	existing := domain.NewTestResult("1")
	existing.CircuitDescription = "Lights"
	existing.Notes = "checked loft"
	blank := domain.NewTestResult("2")
	collection := []domain.TestResult{existing, blank}

	scan, err := ParseTestScan([]byte(testScanJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, report := ApplyTestScan(builder.New(), collection, scan)

	if len(out) != 2 {
		t.Fatalf("unmatched row should fill the blank slot, got %d records", len(out))
	}
	if out[0].ID != existing.ID || out[0].Zs != "0.62" || out[0].CircuitDescription != "Lights" {
		t.Fatalf("merge wrong: %+v", out[0])
	}
	if !out[0].AutoFilled || out[0].Notes != "checked loft; AI detected (confidence: medium) — please verify" {
		t.Fatalf("merged record should carry provenance, got %q %v", out[0].Notes, out[0].AutoFilled)
	}
	if out[1].ID != blank.ID || out[1].CircuitNumber != "2" || out[1].CircuitDescription != "Immersion" {
		t.Fatalf("blank slot not filled: %+v", out[1])
	}
	if diff := cmp.Diff([]string{existing.ID}, report.Merged); diff != "" {
		t.Fatalf("merged ids:\n%s", diff)
	}
	if len(report.Inserted.Filled) != 1 {
		t.Fatalf("expected one filled slot, got %+v", report.Inserted)
	}
	if collection[0].Zs != "" {
		t.Fatalf("input collection mutated")
	}
}

func TestApplyTestScanKeepsRecordedVoltage(t *testing.T) {
	rec := domain.NewTestResult("4")
	rec.CircuitDescription = "Sockets"
	rec.InsulationTestVoltage = "250"
	stated := domain.NewTestResult("5")
	stated.CircuitDescription = "Lights"
	stated.InsulationTestVoltage = "250"
	bare := domain.NewTestResult("6")
	bare.CircuitDescription = "Cooker"

	scan, err := ParseTestScan([]byte(`{"circuits": [
	  {"circuit_number": "4", "insulation_resistance": {"value": ">200"}},
	  {"circuit_number": "5", "insulation_resistance": {"value": "180", "test_voltage": "500V"}},
	  {"circuit_number": "6", "insulation_resistance": {"value": "90"}}
	]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, _ := ApplyTestScan(builder.New(), []domain.TestResult{rec, stated, bare}, scan)

	if out[0].InsulationTestVoltage != "250" || out[0].InsulationResistance != ">200" {
		t.Fatalf("recorded voltage overwritten by default: %+v", out[0])
	}
	if out[1].InsulationTestVoltage != "500" {
		t.Fatalf("a stated voltage should replace the recorded one, got %q", out[1].InsulationTestVoltage)
	}
	if out[2].InsulationTestVoltage != DefaultTestVoltage {
		t.Fatalf("missing voltage should default, got %q", out[2].InsulationTestVoltage)
	}
}

func TestParseScribble(t *testing.T) {
	raws, err := ParseScribble([]byte(`[{"circuitDescription": "Garage", "protectiveDeviceRating": 16, "bogus": "x", "id": "keep-out", "confidence": "low"}]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected one circuit, got %d", len(raws))
	}
	want := map[domain.Field]string{
		domain.FieldCircuitDescription:     "Garage",
		domain.FieldProtectiveDeviceRating: "16",
	}
	if diff := cmp.Diff(want, raws[0].Values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	if raws[0].Confidence != "low" || raws[0].Source != builder.SourceScribble {
		t.Fatalf("unexpected provenance %+v", raws[0])
	}

	wrapped, err := ParseScribble([]byte(`{"confidence": "high", "circuits": [{"circuitType": "Radial"}]}`))
	if err != nil || len(wrapped) != 1 || wrapped[0].Confidence != "high" {
		t.Fatalf("wrapped form not handled: %+v %v", wrapped, err)
	}
}
