package device

import "testing"

func TestClassifyPriority(t *testing.T) {
	cases := []struct {
		in       string
		base     BaseType
		standard string
	}{
		{"RCBO Type B", RCBO, StandardRCBO},
		{"rcbo", RCBO, StandardRCBO},
		{"RCD 30mA", RCD, StandardRCD},
		{"MCB Type C", MCB, StandardMCB},
		{"Cartridge fuse", Fuse, StandardFuse},
		{"  Isolator ", BaseType("Isolator"), StandardMCB},
		{"", BaseType(""), StandardMCB},
	}
	for _, tc := range cases {
		got := Classify(tc.in)
		if got.BaseType != tc.base || got.BSStandard != tc.standard {
			t.Errorf("Classify(%q) = %+v, want %s/%s", tc.in, got, tc.base, tc.standard)
		}
	}
}

func TestClassifyKnown(t *testing.T) {
	if !Classify("MCB").Known() || Classify("switch").Known() {
		t.Fatalf("unexpected Known result")
	}
	if !Classify("RCBO").HasCurve() || Classify("RCD").HasCurve() {
		t.Fatalf("unexpected HasCurve result")
	}
}

func TestFixTypeNomenclature(t *testing.T) {
	cases := map[string]string{
		"Type 1 MCB":   "Type B MCB",
		"MCB type2":    "MCB Type C",
		"TYPE 3":       "Type D",
		"Type B MCB":   "Type B MCB",
		"Type 4 MCB":   "Type 4 MCB",
		"no type here": "no type here",
	}
	for in, want := range cases {
		if got := FixTypeNomenclature(in); got != want {
			t.Errorf("FixTypeNomenclature(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLegacyTypeMCBClassifies(t *testing.T) {
	fixed := FixTypeNomenclature("Type 1 MCB")
	if fixed != "Type B MCB" {
		t.Fatalf("expected Type B MCB, got %q", fixed)
	}
	c := Classify(fixed)
	if c.BaseType != MCB || c.BSStandard != "BS EN 60898" {
		t.Fatalf("unexpected classification %+v", c)
	}
}

func TestNormaliseRating(t *testing.T) {
	cases := map[string]string{"16A": "16", "B32": "32", " 6 ": "6", "": "", "amps": ""}
	for in, want := range cases {
		if got := NormaliseRating(in); got != want {
			t.Errorf("NormaliseRating(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractCurve(t *testing.T) {
	cases := map[string]string{
		"MCB Type C":  "C",
		"Type 3 RCBO": "D",
		"B32 MCB":     "B",
		"RCBO c16":    "C",
		"MCB":         "",
		"BS 1361":     "",
	}
	for in, want := range cases {
		if got := ExtractCurve(in); got != want {
			t.Errorf("ExtractCurve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsResidualCurrent(t *testing.T) {
	if !IsResidualCurrent("RCBO") || !IsResidualCurrent("rcd") || IsResidualCurrent("MCB") {
		t.Fatalf("unexpected residual current classification")
	}
}
